// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package credentials

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datastudies/coursekit/pkg/config"
	"github.com/datastudies/coursekit/pkg/credentials/keyring"
)

// memoryKeyring is an in-process keyring.Provider.
type memoryKeyring struct {
	values map[string]string
	err    error
}

func (m *memoryKeyring) Set(service, key, value string) error {
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[service+"/"+key] = value
	return nil
}

func (m *memoryKeyring) Get(service, key string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.values[service+"/"+key]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}

func (m *memoryKeyring) Delete(service, key string) error {
	delete(m.values, service+"/"+key)
	return nil
}

func (*memoryKeyring) Name() string { return "memory" }

func staticLoader(cfg *config.EncryptedConfig, err error) ConfigLoader {
	return func() (*config.EncryptedConfig, error) { return cfg, err }
}

func encryptedConfig(t *testing.T, username, password string) (*config.EncryptedConfig, string) {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	encUser, err := Encrypt(username, key)
	require.NoError(t, err)
	encPass, err := Encrypt(password, key)
	require.NoError(t, err)
	return &config.EncryptedConfig{
		EncryptedUsername: encUser,
		EncryptedPassword: encPass,
		EncryptionKey:     key,
		ClientConfig: config.ClientConfig{
			ClientID:     "course-id",
			ClientSecret: "course-secret",
			UserAgent:    "course/1.0",
		},
	}, key
}

func TestEncryptedConfigSource_Resolve(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	identity := &config.ClientConfig{ClientID: "course-id", ClientSecret: "course-secret", UserAgent: "course/1.0"}

	t.Run("decrypts both fields", func(t *testing.T) {
		t.Parallel()
		cfg, _ := encryptedConfig(t, "alice", "secret123")

		res := NewEncryptedConfigSource(staticLoader(cfg, nil), FernetDecoder{}, nil).Resolve(ctx)

		assert.Equal(t, &Credentials{Username: "alice", Password: "secret123"}, res.Credentials)
		assert.Equal(t, identity, res.Identity)
	})

	t.Run("missing config is silent", func(t *testing.T) {
		t.Parallel()
		res := NewEncryptedConfigSource(staticLoader(nil, config.ErrEncryptedConfigNotFound), FernetDecoder{}, nil).
			Resolve(ctx)

		assert.Equal(t, Resolution{}, res)
	})

	t.Run("unreadable config is silent", func(t *testing.T) {
		t.Parallel()
		res := NewEncryptedConfigSource(staticLoader(nil, errors.New("permission denied")), FernetDecoder{}, nil).
			Resolve(ctx)

		assert.Equal(t, Resolution{}, res)
	})

	t.Run("wrong key keeps identity but drops credentials", func(t *testing.T) {
		t.Parallel()
		cfg, _ := encryptedConfig(t, "alice", "secret123")
		cfg.EncryptionKey, _ = GenerateKey()

		res := NewEncryptedConfigSource(staticLoader(cfg, nil), FernetDecoder{}, nil).Resolve(ctx)

		assert.Nil(t, res.Credentials)
		assert.Equal(t, identity, res.Identity)
	})

	t.Run("one malformed field discards both", func(t *testing.T) {
		t.Parallel()
		cfg, _ := encryptedConfig(t, "alice", "secret123")
		cfg.EncryptedPassword = "malformed"

		res := NewEncryptedConfigSource(staticLoader(cfg, nil), FernetDecoder{}, nil).Resolve(ctx)

		assert.Nil(t, res.Credentials)
	})

	t.Run("empty plaintext discards both", func(t *testing.T) {
		t.Parallel()
		cfg, _ := encryptedConfig(t, "alice", "")

		res := NewEncryptedConfigSource(staticLoader(cfg, nil), FernetDecoder{}, nil).Resolve(ctx)

		assert.Nil(t, res.Credentials)
	})

	t.Run("key from keyring", func(t *testing.T) {
		t.Parallel()
		cfg, key := encryptedConfig(t, "alice", "secret123")
		cfg.EncryptionKey = ""
		keys := &memoryKeyring{}
		require.NoError(t, keys.Set(keyring.Service, keyring.EncryptionKeyName, key))

		res := NewEncryptedConfigSource(staticLoader(cfg, nil), FernetDecoder{}, keys).Resolve(ctx)

		assert.Equal(t, &Credentials{Username: "alice", Password: "secret123"}, res.Credentials)
	})

	t.Run("keyring failure is silent", func(t *testing.T) {
		t.Parallel()
		cfg, _ := encryptedConfig(t, "alice", "secret123")
		cfg.EncryptionKey = ""
		keys := &memoryKeyring{err: errors.New("no secret service")}

		res := NewEncryptedConfigSource(staticLoader(cfg, nil), FernetDecoder{}, keys).Resolve(ctx)

		assert.Nil(t, res.Credentials)
		assert.Equal(t, identity, res.Identity)
	})

	t.Run("base64 compatibility mode", func(t *testing.T) {
		t.Parallel()
		cfg := &config.EncryptedConfig{
			EncryptedUsername: base64.StdEncoding.EncodeToString([]byte("alice")),
			EncryptedPassword: base64.StdEncoding.EncodeToString([]byte("secret123")),
		}

		res := NewEncryptedConfigSource(staticLoader(cfg, nil), &Base64Decoder{}, nil).Resolve(ctx)

		assert.Equal(t, &Credentials{Username: "alice", Password: "secret123"}, res.Credentials)
		assert.Nil(t, res.Identity, "no identity fields in file")
	})
}

func TestFileConfigLoader(t *testing.T) {
	t.Parallel()

	cfg, _ := encryptedConfig(t, "alice", "secret123")
	path := filepath.Join(t.TempDir(), "reddit.yaml")
	_, err := config.SaveEncryptedConfig(path, cfg)
	require.NoError(t, err)

	res := NewEncryptedConfigSource(FileConfigLoader(path), FernetDecoder{}, nil).Resolve(context.Background())
	assert.Equal(t, "alice", res.Credentials.Username)

	require.NoError(t, os.Remove(path))
	res = NewEncryptedConfigSource(FileConfigLoader(path), FernetDecoder{}, nil).Resolve(context.Background())
	assert.Nil(t, res.Credentials)
}
