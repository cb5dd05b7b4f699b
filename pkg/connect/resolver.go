// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package connect negotiates a Reddit client for course notebooks and tools.
//
// A [Resolver] walks the credential sources, tries to log in, falls back to
// read-only access when anything about the login fails, and finally proves
// the client works by fetching one post. Only that last step can fail.
package connect

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/datastudies/coursekit/pkg/config"
	"github.com/datastudies/coursekit/pkg/credentials"
	"github.com/datastudies/coursekit/pkg/credentials/keyring"
	"github.com/datastudies/coursekit/pkg/logger"
	"github.com/datastudies/coursekit/pkg/reddit"
)

// DefaultProbeSubreddit is the public subreddit used by the liveness probe.
const DefaultProbeSubreddit = "python"

// Resolver produces a connected Reddit client. It keeps no state between
// calls to Resolve.
type Resolver struct {
	sources        []credentials.Source
	identity       config.ClientConfig
	factory        reddit.Factory
	clientOptions  reddit.Options
	hints          io.Writer
	probeSubreddit string
	meterProvider  metric.MeterProvider
	metrics        *resolverMetrics
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSources replaces the credential sources, tried in the given order.
func WithSources(sources ...credentials.Source) Option {
	return func(r *Resolver) {
		r.sources = append([]credentials.Source{}, sources...)
	}
}

// WithClientConfig replaces the default application identity.
func WithClientConfig(identity config.ClientConfig) Option {
	return func(r *Resolver) {
		r.identity = identity
	}
}

// WithClientFactory replaces how clients are built.
func WithClientFactory(factory reddit.Factory) Option {
	return func(r *Resolver) {
		r.factory = factory
	}
}

// WithClientOptions sets the template for every client built (endpoints,
// base HTTP client). Identity, login and rate limit are filled in per client.
func WithClientOptions(opts reddit.Options) Option {
	return func(r *Resolver) {
		r.clientOptions = opts
	}
}

// WithHintWriter sets where remediation hints go on failure.
func WithHintWriter(w io.Writer) Option {
	return func(r *Resolver) {
		r.hints = w
	}
}

// WithProbeSubreddit changes the subreddit used by the liveness probe.
func WithProbeSubreddit(name string) Option {
	return func(r *Resolver) {
		r.probeSubreddit = name
	}
}

// WithMeterProvider sets the provider for resolution metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(r *Resolver) {
		r.meterProvider = mp
	}
}

// DefaultSources returns the standard chain: environment variables, then the
// encrypted config at configPath (default location when empty).
func DefaultSources(configPath string, decoder credentials.Decoder) []credentials.Source {
	return []credentials.Source{
		credentials.NewEnvironmentSource(),
		credentials.NewEncryptedConfigSource(
			credentials.FileConfigLoader(configPath),
			decoder,
			keyring.NewSystemProvider(),
		),
	}
}

// NewResolver creates a Resolver. Without options it uses DefaultSources with
// the fernet decoder, the built-in identity and the real Reddit API.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		identity:       config.DefaultClientConfig(),
		factory:        reddit.DefaultFactory{},
		hints:          os.Stderr,
		probeSubreddit: DefaultProbeSubreddit,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sources == nil {
		r.sources = DefaultSources("", credentials.FernetDecoder{})
	}
	if r.meterProvider == nil {
		r.meterProvider = otel.GetMeterProvider()
	}
	r.metrics = newResolverMetrics(r.meterProvider)
	return r
}

// Resolve negotiates a client. The returned error, if any, is the probe (or
// read-only construction) error itself, after hints have been written.
func (r *Resolver) Resolve(ctx context.Context) (*Result, error) {
	outcome := credentials.Chain(ctx, r.identity, r.sources...)

	result := &Result{Mode: AuthModeReadOnly}
	if outcome.Credentials != nil {
		if client := r.authenticate(ctx, outcome); client != nil {
			result.Client = client
			result.Mode = AuthModeAuthenticated
			result.Source = outcome.Source
		}
	}

	if result.Client == nil {
		client, err := r.factory.New(r.optionsFor(outcome.Identity, nil, AuthModeReadOnly))
		if err != nil {
			r.metrics.recordFailure(ctx, stageClient)
			return nil, r.fail(err)
		}
		result.Client = client
	}
	result.RateLimit = result.Mode.RateLimit()

	post, err := r.probe(ctx, result.Client)
	if err != nil {
		r.metrics.recordFailure(ctx, stageLiveness)
		return nil, r.fail(err)
	}
	result.Probe = post

	r.metrics.recordResolution(ctx, result.Mode)
	r.log().Debug("reddit connection ready", "auth_mode", result.Mode, "rate_limit", result.RateLimit)
	return result, nil
}

// authenticate returns a logged-in client that passed the self-check, or nil.
func (r *Resolver) authenticate(ctx context.Context, outcome credentials.Outcome) reddit.API {
	client, err := r.factory.New(r.optionsFor(outcome.Identity, outcome.Credentials, AuthModeAuthenticated))
	if err != nil {
		r.log().Debug("could not build authenticated client, continuing read-only", "error", err)
		return nil
	}

	user, err := client.Me(ctx)
	if err != nil {
		r.log().Debug("authentication self-check failed, continuing read-only", "error", err)
		return nil
	}

	r.log().Debug("authenticated", "user", user.Name, "source", outcome.Source)
	return client
}

func (r *Resolver) probe(ctx context.Context, client reddit.API) (reddit.Post, error) {
	posts, err := client.Hot(ctx, r.probeSubreddit, 1)
	if err != nil {
		return reddit.Post{}, err
	}
	if len(posts) == 0 {
		return reddit.Post{}, ErrEmptyListing
	}
	return posts[0], nil
}

func (r *Resolver) optionsFor(identity config.ClientConfig, creds *credentials.Credentials, mode AuthMode) reddit.Options {
	opts := r.clientOptions
	opts.Identity = identity
	opts.Username, opts.Password = "", ""
	if creds != nil {
		opts.Username = creds.Username
		opts.Password = creds.Password
	}
	opts.RequestsPerMinute = mode.RateLimit()
	return opts
}

// log is looked up per call so it follows logger.Initialize.
func (*Resolver) log() *slog.Logger {
	return logger.Component("connect")
}

var (
	errFmt  = color.New(color.FgRed, color.Bold).SprintFunc()
	infoFmt = color.New(color.FgYellow).SprintFunc()
)

// fail writes remediation hints and hands err back untouched.
func (r *Resolver) fail(err error) error {
	_, _ = fmt.Fprintf(r.hints, "%s %v\n", errFmt("Connection failed:"), err)
	_, _ = fmt.Fprintln(r.hints, infoFmt("Possible solutions:"))
	_, _ = fmt.Fprint(r.hints, remediationHints)
	return err
}

const remediationHints = `  - Check your internet connection
  - Verify the Reddit API client id, client secret and user agent
  - Try running the command again
  - Make sure coursekit is installed completely: go install github.com/datastudies/coursekit/cmd/coursekit@latest
`
