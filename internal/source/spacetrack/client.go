// Package spacetrack talks to the Space-Track.org API: a form login that
// sets a session cookie, then a GP catalog query returning OMM XML.
package spacetrack

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Default endpoints.
const (
	DefaultAuthURL    = "https://www.space-track.org/ajaxauth/login"
	DefaultCatalogURL = "https://www.space-track.org/basicspacedata/query/class/gp/EPOCH/%3Enow-30/orderby/NORAD_CAT_ID,EPOCH/format/xml"
)

var (
	// ErrAuthentication is returned when the login is refused or cannot be attempted.
	ErrAuthentication = errors.New("space-track authentication failed")
	// ErrMissingCredentials is returned before any request when username or password is empty.
	ErrMissingCredentials = errors.New("space-track credentials not configured")
)

// HTTPDoer is the fetch capability the client needs. The same value must be
// used for login and queries so the session cookie is kept.
type HTTPDoer interface {
	Get(ctx context.Context, rawURL string, params url.Values, headers http.Header) ([]byte, error)
	PostForm(ctx context.Context, rawURL string, form url.Values) ([]byte, error)
}

// Config holds endpoints and credentials.
type Config struct {
	AuthURL    string
	CatalogURL string
	Username   string
	Password   string
}

// Client is a Space-Track session.
type Client struct {
	http HTTPDoer
	cfg  Config
}

// New returns a Client. Empty URLs fall back to the public endpoints.
func New(doer HTTPDoer, cfg Config) *Client {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.CatalogURL == "" {
		cfg.CatalogURL = DefaultCatalogURL
	}
	return &Client{http: doer, cfg: cfg}
}

// Authenticate logs in. Any failure, including a transport error, is
// reported as ErrAuthentication wrapping the cause.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.cfg.Username == "" || c.cfg.Password == "" {
		return fmt.Errorf("%w: %w", ErrAuthentication, ErrMissingCredentials)
	}
	body, err := c.http.PostForm(ctx, c.cfg.AuthURL, url.Values{
		"identity": {c.cfg.Username},
		"password": {c.cfg.Password},
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	// A refused login still answers 200 with a JSON verdict.
	if bytes.Contains(body, []byte(`"Login":"Failed"`)) {
		return fmt.Errorf("%w: login refused", ErrAuthentication)
	}
	return nil
}

// FetchCatalog downloads the full GP catalog. Authenticate must have
// succeeded on the same client first.
func (c *Client) FetchCatalog(ctx context.Context) ([]byte, error) {
	body, err := c.http.Get(ctx, c.cfg.CatalogURL, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}
	return body, nil
}
