// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config holds the application identity used against the Reddit API
// and the optional encrypted credentials file that can override it.
package config

import "errors"

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "educational-scraper/1.0 (for academic research)"

// Default application identity. These are empty in source and meant to be set
// per course run with
//
//	-ldflags "-X github.com/datastudies/coursekit/pkg/config.DefaultClientID=..."
//
// so a shared classroom app can be rotated without a code change.
var (
	DefaultClientID     = ""
	DefaultClientSecret = ""
)

// ClientConfig identifies the application to the Reddit API.
type ClientConfig struct {
	ClientID     string `yaml:"client_id,omitempty"`
	ClientSecret string `yaml:"client_secret,omitempty"`
	UserAgent    string `yaml:"user_agent,omitempty"`
}

// DefaultClientConfig returns the built-in application identity.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ClientID:     DefaultClientID,
		ClientSecret: DefaultClientSecret,
		UserAgent:    DefaultUserAgent,
	}
}

// Merge returns c with every non-empty field of override applied on top.
func (c ClientConfig) Merge(override ClientConfig) ClientConfig {
	if override.ClientID != "" {
		c.ClientID = override.ClientID
	}
	if override.ClientSecret != "" {
		c.ClientSecret = override.ClientSecret
	}
	if override.UserAgent != "" {
		c.UserAgent = override.UserAgent
	}
	return c
}

// IsZero reports whether no field is set.
func (c ClientConfig) IsZero() bool {
	return c == ClientConfig{}
}

// Validate checks the identity can be used to build a client.
func (c ClientConfig) Validate() error {
	if c.UserAgent == "" {
		return errors.New("user agent is required")
	}
	if c.ClientSecret != "" && c.ClientID == "" {
		return errors.New("client secret set without client id")
	}
	return nil
}
