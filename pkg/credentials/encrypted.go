// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package credentials

import (
	"context"
	"errors"

	"github.com/datastudies/coursekit/pkg/config"
	"github.com/datastudies/coursekit/pkg/credentials/keyring"
	"github.com/datastudies/coursekit/pkg/logger"
)

// ConfigLoader returns the encrypted config, or config.ErrEncryptedConfigNotFound.
type ConfigLoader func() (*config.EncryptedConfig, error)

// FileConfigLoader loads the encrypted config from path (default location if empty).
func FileConfigLoader(path string) ConfigLoader {
	return func() (*config.EncryptedConfig, error) {
		return config.LoadEncryptedConfig(path)
	}
}

// EncryptedConfigSource reads ciphertext credentials and identity overrides
// from an encrypted config.
type EncryptedConfigSource struct {
	load    ConfigLoader
	decoder Decoder
	keys    keyring.Provider
}

// NewEncryptedConfigSource creates a source. keys may be nil, in which case a
// config without an inline key yields nothing.
func NewEncryptedConfigSource(load ConfigLoader, decoder Decoder, keys keyring.Provider) *EncryptedConfigSource {
	return &EncryptedConfigSource{
		load:    load,
		decoder: decoder,
		keys:    keys,
	}
}

// Name implements Source.
func (*EncryptedConfigSource) Name() string {
	return "encrypted config"
}

// Resolve implements Source. Identity overrides are returned even when the
// credential fields cannot be decoded.
func (s *EncryptedConfigSource) Resolve(_ context.Context) Resolution {
	cfg, err := s.load()
	if errors.Is(err, config.ErrEncryptedConfigNotFound) {
		return Resolution{}
	}
	if err != nil {
		logger.Debugf("ignoring encrypted config: %v", err)
		return Resolution{}
	}

	var res Resolution
	if !cfg.ClientConfig.IsZero() {
		identity := cfg.ClientConfig
		res.Identity = &identity
	}

	key := s.encryptionKey(cfg)
	username := s.decode("username", cfg.EncryptedUsername, key)
	password := s.decode("password", cfg.EncryptedPassword, key)

	creds := &Credentials{Username: username, Password: password}
	if !creds.Complete() {
		// never hand out half a pair
		return res
	}
	res.Credentials = creds
	return res
}

func (s *EncryptedConfigSource) encryptionKey(cfg *config.EncryptedConfig) string {
	if cfg.EncryptionKey != "" || s.keys == nil {
		return cfg.EncryptionKey
	}

	key, err := s.keys.Get(keyring.Service, keyring.EncryptionKeyName)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			logger.Debugf("encryption key unavailable from %s: %v", s.keys.Name(), err)
		}
		return ""
	}
	return key
}

func (s *EncryptedConfigSource) decode(field, ciphertext, key string) string {
	if ciphertext == "" {
		return ""
	}
	plaintext, err := s.decoder.Decode(ciphertext, key)
	if err != nil {
		logger.Debugf("could not decode %s with %s decoder: %v", field, s.decoder.Type(), err)
		return ""
	}
	return plaintext
}
