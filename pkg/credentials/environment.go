// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package credentials

import (
	"context"

	"github.com/stacklok/toolhive-core/env"
)

const (
	// UsernameEnvVar holds the plaintext Reddit username.
	UsernameEnvVar = "REDDIT_USERNAME"
	// PasswordEnvVar holds the plaintext Reddit password.
	PasswordEnvVar = "REDDIT_PASSWORD"
)

// EnvironmentSource reads plaintext credentials from the process environment.
type EnvironmentSource struct {
	envReader env.Reader
}

// NewEnvironmentSource creates a source reading the real process environment.
func NewEnvironmentSource() *EnvironmentSource {
	return NewEnvironmentSourceWithEnv(&env.OSReader{})
}

// NewEnvironmentSourceWithEnv creates a source reading from envReader.
func NewEnvironmentSourceWithEnv(envReader env.Reader) *EnvironmentSource {
	return &EnvironmentSource{envReader: envReader}
}

// Name implements Source.
func (*EnvironmentSource) Name() string {
	return "environment"
}

// Resolve implements Source. A half-set pair counts as nothing.
func (e *EnvironmentSource) Resolve(_ context.Context) Resolution {
	creds := &Credentials{
		Username: e.envReader.Getenv(UsernameEnvVar),
		Password: e.envReader.Getenv(PasswordEnvVar),
	}
	if !creds.Complete() {
		return Resolution{}
	}
	return Resolution{Credentials: creds}
}
