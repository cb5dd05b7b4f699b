// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/datastudies/coursekit/pkg/fileutils"
)

// ErrEncryptedConfigNotFound is returned when no encrypted config file exists.
// Callers treat it as the normal "not configured" state.
var ErrEncryptedConfigNotFound = errors.New("encrypted config not found")

// EncryptedConfig is the on-disk form of the optional encrypted credentials.
type EncryptedConfig struct {
	EncryptedUsername string `yaml:"encrypted_username"`
	EncryptedPassword string `yaml:"encrypted_password"`
	// EncryptionKey may be left empty when the key lives in the OS keyring.
	EncryptionKey string `yaml:"encryption_key,omitempty"`

	ClientConfig `yaml:",inline"`
}

// defaultPathGenerator generates the default encrypted config path using xdg
var defaultPathGenerator = func() (string, error) {
	return xdg.ConfigFile("coursekit/reddit_config_encrypted.yaml")
}

// getEncryptedConfigPath can be replaced in tests
var getEncryptedConfigPath = defaultPathGenerator

// DefaultEncryptedConfigPath returns the xdg location of the encrypted config.
func DefaultEncryptedConfigPath() (string, error) {
	return getEncryptedConfigPath()
}

// LoadEncryptedConfig reads the encrypted config at path, or at the default
// location when path is empty.
func LoadEncryptedConfig(path string) (*EncryptedConfig, error) {
	if path == "" {
		var err error
		path, err = getEncryptedConfigPath()
		if err != nil {
			return nil, fmt.Errorf("unable to fetch encrypted config path: %w", err)
		}
	}

	// #nosec G304: path comes from the user or xdg
	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrEncryptedConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read encrypted config: %w", err)
	}

	var cfg EncryptedConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse encrypted config %s: %w", path, err)
	}
	return &cfg, nil
}

// SaveEncryptedConfig writes cfg to path (or the default location) with 0600
// permissions.
func SaveEncryptedConfig(path string, cfg *EncryptedConfig) (string, error) {
	if path == "" {
		var err error
		path, err = getEncryptedConfigPath()
		if err != nil {
			return "", fmt.Errorf("unable to fetch encrypted config path: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("error serializing encrypted config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("error creating config directory: %w", err)
	}
	if err := fileutils.AtomicWriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("error writing encrypted config: %w", err)
	}
	return path, nil
}
