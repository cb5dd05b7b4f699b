// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package reddit is a small Reddit API client covering what coursekit needs:
// an identity self-check and subreddit listings.
package reddit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/datastudies/coursekit/pkg/config"
	"github.com/datastudies/coursekit/pkg/networking"
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go API,Factory

const (
	// DefaultAPIURL serves OAuth-authenticated requests.
	DefaultAPIURL = "https://oauth.reddit.com"
	// DefaultPublicURL serves anonymous .json requests.
	DefaultPublicURL = "https://www.reddit.com"
	// DefaultTokenURL is the OAuth2 token endpoint.
	DefaultTokenURL = "https://www.reddit.com/api/v1/access_token"
)

// ErrReadOnly is returned by operations that need a logged-in account.
var ErrReadOnly = errors.New("operation requires an authenticated client")

// API is the subset of Reddit coursekit talks to.
type API interface {
	// Me returns the account the client is logged in as.
	Me(ctx context.Context) (*User, error)
	// Hot returns up to limit posts from the hot listing of subreddit.
	Hot(ctx context.Context, subreddit string, limit int) ([]Post, error)
	// Authenticated reports whether the client acts on behalf of an account.
	Authenticated() bool
}

// Factory builds API clients.
type Factory interface {
	New(opts Options) (API, error)
}

// Options configures a Client.
type Options struct {
	Identity config.ClientConfig

	// Username and Password select the password grant. Both or neither.
	Username string
	Password string

	// RequestsPerMinute caps outgoing requests. Zero disables the limiter.
	RequestsPerMinute int

	APIURL    string
	PublicURL string
	TokenURL  string

	// CABundle is an extra PEM bundle trusted by the default HTTP client,
	// for networks behind a TLS-intercepting proxy.
	CABundle string

	// Proxy picks the proxy for each request. Nil means the HTTP_PROXY,
	// HTTPS_PROXY and NO_PROXY environment variables.
	Proxy func(*http.Request) (*url.URL, error)

	// HTTPClient is the base client for API and token requests. When nil a
	// client is built with the networking defaults.
	HTTPClient *http.Client
}

// Client implements API.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	public        bool
	authenticated bool
	userAgent     string
	limiter       *rate.Limiter
}

// DefaultFactory builds *Client values.
type DefaultFactory struct{}

// New implements Factory.
func (DefaultFactory) New(opts Options) (API, error) {
	return New(opts)
}

// New creates a client. No network call is made; tokens are fetched on the
// first request.
func New(opts Options) (*Client, error) {
	if err := opts.Identity.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client identity: %w", err)
	}
	if (opts.Username == "") != (opts.Password == "") {
		return nil, errors.New("username and password must be provided together")
	}
	opts = withDefaults(opts)

	base := opts.HTTPClient
	if base == nil {
		var err error
		// the targets are fixed Reddit hosts; proxies usually sit on private addresses
		builder := networking.NewHttpClientBuilder().
			WithUserAgent(opts.Identity.UserAgent).
			WithCABundle(opts.CABundle).
			WithPrivateIPs(true)
		if opts.Proxy != nil {
			builder = builder.WithProxy(opts.Proxy)
		}
		base, err = builder.Build()
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
	}

	c := &Client{
		userAgent: opts.Identity.UserAgent,
		limiter:   newLimiter(opts.RequestsPerMinute),
	}

	// token requests inherit the base client through this context
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	switch {
	case opts.Username != "":
		cfg := &oauth2.Config{
			ClientID:     opts.Identity.ClientID,
			ClientSecret: opts.Identity.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  opts.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		}
		ts := oauth2.ReuseTokenSource(nil, &passwordTokenSource{
			ctx:      tokenCtx,
			config:   cfg,
			username: opts.Username,
			password: opts.Password,
		})
		c.httpClient = oauth2.NewClient(tokenCtx, ts)
		c.baseURL = opts.APIURL
		c.authenticated = true
	case opts.Identity.ClientID != "":
		cfg := &clientcredentials.Config{
			ClientID:     opts.Identity.ClientID,
			ClientSecret: opts.Identity.ClientSecret,
			TokenURL:     opts.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		c.httpClient = cfg.Client(tokenCtx)
		c.baseURL = opts.APIURL
	default:
		c.httpClient = base
		c.baseURL = opts.PublicURL
		c.public = true
	}

	c.baseURL = strings.TrimRight(c.baseURL, "/")
	return c, nil
}

func withDefaults(opts Options) Options {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.PublicURL == "" {
		opts.PublicURL = DefaultPublicURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = DefaultTokenURL
	}
	return opts
}

func newLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := max(1, requestsPerMinute/60)
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst)
}

// Authenticated implements API.
func (c *Client) Authenticated() bool {
	return c.authenticated
}

// Me implements API.
func (c *Client) Me(ctx context.Context) (*User, error) {
	if !c.authenticated {
		return nil, ErrReadOnly
	}

	result, err := fetch[User](ctx, c, "/api/v1/me", nil)
	if err != nil {
		return nil, fmt.Errorf("identity check failed: %w", err)
	}
	if result.Data.Name == "" {
		return nil, errors.New("identity check returned no account")
	}
	return &result.Data, nil
}

// passwordTokenSource runs the resource owner password grant.
type passwordTokenSource struct {
	ctx      context.Context
	config   *oauth2.Config
	username string
	password string
}

func (p *passwordTokenSource) Token() (*oauth2.Token, error) {
	return p.config.PasswordCredentialsToken(p.ctx, p.username, p.password)
}
