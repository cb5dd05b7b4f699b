// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package keyring stores the credential encryption key in the OS keyring.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	// Service is the keyring service coursekit entries are filed under.
	Service = "coursekit"

	// EncryptionKeyName is the entry holding the Reddit credentials key.
	EncryptionKeyName = "reddit-encryption-key"
)

// ErrNotFound indicates that the requested key was not found
var ErrNotFound = errors.New("key not found")

// Provider defines the interface for keyring backends
type Provider interface {
	// Set stores a key-value pair in the keyring
	Set(service, key, value string) error

	// Get retrieves a value from the keyring
	Get(service, key string) (string, error)

	// Delete removes a specific key from the keyring
	Delete(service, key string) error

	// Name returns a human-readable name for this backend
	Name() string
}

type systemProvider struct{}

// NewSystemProvider returns a Provider backed by the platform keyring
// (Secret Service, macOS Keychain or Windows Credential Manager).
func NewSystemProvider() Provider {
	return systemProvider{}
}

func (systemProvider) Set(service, key, value string) error {
	if err := keyring.Set(service, key, value); err != nil {
		return fmt.Errorf("failed to write %s/%s to keyring: %w", service, key, err)
	}
	return nil
}

func (systemProvider) Get(service, key string) (string, error) {
	value, err := keyring.Get(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s/%s from keyring: %w", service, key, err)
	}
	return value, nil
}

func (systemProvider) Delete(service, key string) error {
	err := keyring.Delete(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s from keyring: %w", service, key, err)
	}
	return nil
}

func (systemProvider) Name() string {
	return "system keyring"
}
