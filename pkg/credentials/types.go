// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package credentials resolves the Reddit username/password pair from an
// ordered list of sources.
//
// Each [Source] either yields a complete pair or nothing; it never returns an
// error to the caller. [Chain] walks the sources in order and stops at the
// first complete pair.
package credentials

import (
	"context"

	"github.com/datastudies/coursekit/pkg/config"
	"github.com/datastudies/coursekit/pkg/logger"
)

// Credentials is a Reddit account login.
type Credentials struct {
	Username string
	Password string
}

// Complete reports whether both fields are set.
func (c *Credentials) Complete() bool {
	return c != nil && c.Username != "" && c.Password != ""
}

// String never prints the password.
func (c *Credentials) String() string {
	if c == nil {
		return "<none>"
	}
	return c.Username + ":******"
}

// Resolution is what a single source produced.
type Resolution struct {
	// Credentials is nil unless the source found a complete pair.
	Credentials *Credentials
	// Identity, when set, overrides the default application identity.
	Identity *config.ClientConfig
}

// Source is one place credentials can come from.
type Source interface {
	// Name is used in logs.
	Name() string
	// Resolve never fails; anything that goes wrong is reported as an
	// empty Resolution.
	Resolve(ctx context.Context) Resolution
}

// Outcome is the combined result of walking a list of sources.
type Outcome struct {
	// Credentials is nil when no source produced a complete pair.
	Credentials *Credentials
	// Identity is the application identity in effect: the defaults with the
	// latest override seen while walking the chain applied on top.
	Identity config.ClientConfig
	// Source names the source that produced Credentials, if any.
	Source string
}

// Chain tries each source once, in order, and returns as soon as one yields
// a complete pair.
func Chain(ctx context.Context, defaults config.ClientConfig, sources ...Source) Outcome {
	out := Outcome{Identity: defaults}

	for _, src := range sources {
		res := src.Resolve(ctx)
		if res.Identity != nil {
			out.Identity = out.Identity.Merge(*res.Identity)
		}
		if res.Credentials.Complete() {
			logger.Debugf("credentials resolved from %s source", src.Name())
			out.Credentials = res.Credentials
			out.Source = src.Name()
			return out
		}
		logger.Debugf("no credentials from %s source", src.Name())
	}

	return out
}
