// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package connect

import (
	"errors"
	"net/http"

	"github.com/stacklok/toolhive-core/httperr"

	"github.com/datastudies/coursekit/pkg/reddit"
)

// AuthMode is the trust level a resolved client runs at.
type AuthMode string

const (
	// AuthModeAuthenticated means the client is logged in and the account
	// passed the identity self-check.
	AuthModeAuthenticated AuthMode = "authenticated"

	// AuthModeReadOnly means the client only reads public data.
	AuthModeReadOnly AuthMode = "read-only"
)

// Requests per minute allowed for each mode.
const (
	AuthenticatedRateLimit = 600
	ReadOnlyRateLimit      = 60
)

// RateLimit returns the requests per minute allowed in this mode.
func (m AuthMode) RateLimit() int {
	if m == AuthModeAuthenticated {
		return AuthenticatedRateLimit
	}
	return ReadOnlyRateLimit
}

// ErrEmptyListing is returned by the liveness probe when the probed
// subreddit returned no posts.
var ErrEmptyListing = httperr.WithCode(
	errors.New("liveness probe returned no posts"),
	http.StatusNotFound,
)

// Result is a ready-to-use client and the mode it was negotiated at.
type Result struct {
	Client    reddit.API
	Mode      AuthMode
	RateLimit int

	// Source names the credential source used, empty in read-only mode.
	Source string
	// Probe is the post fetched by the liveness probe.
	Probe reddit.Post
}
