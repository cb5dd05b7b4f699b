// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package credentials

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datastudies/coursekit/pkg/config"
)

// staticSource returns a fixed Resolution and counts calls.
type staticSource struct {
	name  string
	res   Resolution
	calls int
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Resolve(context.Context) Resolution {
	s.calls++
	return s.res
}

func TestCredentials_Complete(t *testing.T) {
	t.Parallel()

	var nilCreds *Credentials
	assert.False(t, nilCreds.Complete())
	assert.False(t, (&Credentials{Username: "alice"}).Complete())
	assert.False(t, (&Credentials{Password: "pw"}).Complete())
	assert.True(t, (&Credentials{Username: "alice", Password: "pw"}).Complete())
}

func TestCredentials_StringHidesPassword(t *testing.T) {
	t.Parallel()

	creds := &Credentials{Username: "alice", Password: "secret123"}
	assert.NotContains(t, creds.String(), "secret123")
	assert.Contains(t, creds.String(), "alice")

	var nilCreds *Credentials
	assert.Equal(t, "<none>", nilCreds.String())
}

func TestChain(t *testing.T) {
	t.Parallel()

	defaults := config.ClientConfig{ClientID: "default-id", UserAgent: "default/1.0"}
	alice := &Credentials{Username: "alice", Password: "secret123"}
	bob := &Credentials{Username: "bob", Password: "hunter2"}

	t.Run("first complete pair wins", func(t *testing.T) {
		t.Parallel()
		first := &staticSource{name: "first", res: Resolution{Credentials: alice}}
		second := &staticSource{name: "second", res: Resolution{Credentials: bob}}

		out := Chain(context.Background(), defaults, first, second)

		assert.Equal(t, alice, out.Credentials)
		assert.Equal(t, "first", out.Source)
		assert.Equal(t, defaults, out.Identity)
		assert.Equal(t, 0, second.calls, "later sources must not be consulted")
	})

	t.Run("falls through to later source", func(t *testing.T) {
		t.Parallel()
		first := &staticSource{name: "first"}
		second := &staticSource{name: "second", res: Resolution{Credentials: bob}}

		out := Chain(context.Background(), defaults, first, second)

		assert.Equal(t, bob, out.Credentials)
		assert.Equal(t, "second", out.Source)
	})

	t.Run("incomplete pair is ignored", func(t *testing.T) {
		t.Parallel()
		half := &staticSource{name: "half", res: Resolution{Credentials: &Credentials{Username: "alice"}}}

		out := Chain(context.Background(), defaults, half)

		assert.Nil(t, out.Credentials)
		assert.Empty(t, out.Source)
	})

	t.Run("identity override applies without credentials", func(t *testing.T) {
		t.Parallel()
		override := &config.ClientConfig{ClientID: "course-id", ClientSecret: "course-secret"}
		src := &staticSource{name: "cfg", res: Resolution{Identity: override}}

		out := Chain(context.Background(), defaults, src)

		assert.Nil(t, out.Credentials)
		assert.Equal(t, config.ClientConfig{
			ClientID:     "course-id",
			ClientSecret: "course-secret",
			UserAgent:    "default/1.0",
		}, out.Identity)
	})

	t.Run("no sources", func(t *testing.T) {
		t.Parallel()
		out := Chain(context.Background(), defaults)

		assert.Nil(t, out.Credentials)
		assert.Equal(t, defaults, out.Identity)
	})
}
