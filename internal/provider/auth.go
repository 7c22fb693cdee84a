// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Token cache constants.
const (
	// defaultTokenTTL applies when the fetch response carries no expires_in.
	defaultTokenTTL = 5 * time.Minute

	// tokenSafetyMargin is subtracted from the expiry so a token is never
	// used right at its deadline.
	tokenSafetyMargin = 30 * time.Second

	// maxTokenResponseSize caps the token endpoint response body.
	maxTokenResponseSize = 64 * 1024
)

// tokenResponse covers the two JSON response shapes a token endpoint may
// return. Endpoints returning a bare string are handled separately.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
	ExpiresIn   int    `json:"expires_in"`
}

// =============================================================================
// BEARER-TOKEN SOURCE
// =============================================================================

// TokenSource resolves the bearer token for cloud requests. When a fetch URL
// is configured it GETs the URL and caches the result until expiry minus a
// safety margin; on fetch failure it falls back to the static key so the
// caller's chat request is not failed outright.
//
// The cache is guarded by a mutex: a provider may be shared across
// goroutines even though a single stream never is.
type TokenSource struct {
	mu        sync.Mutex
	fetchURL  string
	staticKey string
	client    *http.Client
	now       func() time.Time

	token  string
	expiry time.Time
}

// NewTokenSource creates a token source. Either argument may be empty; with
// no fetch URL the static key is returned directly, and with neither set
// Token reports ErrNoToken.
func NewTokenSource(fetchURL, staticKey string) *TokenSource {
	return &TokenSource{
		fetchURL:  strings.TrimSpace(fetchURL),
		staticKey: strings.TrimSpace(staticKey),
		client:    sharedHTTPClient,
		now:       time.Now,
	}
}

// Token returns a bearer token, fetching or refreshing as needed. Two calls
// inside the expiry window perform exactly one network fetch.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fetchURL == "" {
		if t.staticKey == "" {
			return "", ErrNoToken
		}
		return t.staticKey, nil
	}

	if t.token != "" && t.now().Before(t.expiry.Add(-tokenSafetyMargin)) {
		return t.token, nil
	}

	token, ttl, err := t.fetch(ctx)
	if err != nil {
		// Degrade to the static key rather than failing the request.
		if t.staticKey != "" {
			return t.staticKey, nil
		}
		return "", fmt.Errorf("%w: %v", ErrNoToken, err)
	}

	t.token = token
	t.expiry = t.now().Add(ttl)
	return t.token, nil
}

// Invalidate clears the cached token so the next call fetches a fresh one.
func (t *TokenSource) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = ""
	t.expiry = time.Time{}
}

// fetch GETs the token endpoint and parses one of the three accepted
// response shapes: bare string, {access_token, expires_in?}, or
// {token, expires_in?}.
func (t *TokenSource) fetch(ctx context.Context) (string, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.fetchURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	logRequest(req)
	resp, err := t.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("token fetch failed: %w", err)
	}
	defer resp.Body.Close()
	logResponse(resp, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseSize))
	if err != nil {
		return "", 0, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, &TransportError{
			Status: resp.StatusCode,
			Reason: http.StatusText(resp.StatusCode),
			Body:   strings.TrimSpace(string(body)),
		}
	}

	token, ttl := parseTokenBody(body)
	if token == "" {
		return "", 0, fmt.Errorf("token endpoint returned no usable token")
	}
	return token, ttl, nil
}

// parseTokenBody extracts the token and its lifetime from a response body.
// A non-JSON body is treated as a bare token string.
func parseTokenBody(body []byte) (string, time.Duration) {
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err == nil {
		token := tr.AccessToken
		if token == "" {
			token = tr.Token
		}
		ttl := defaultTokenTTL
		if tr.ExpiresIn > 0 {
			ttl = time.Duration(tr.ExpiresIn) * time.Second
		}
		return strings.TrimSpace(token), ttl
	}

	// A bare JSON string is also valid JSON; try that before falling back
	// to raw text.
	var bare string
	if err := json.Unmarshal(body, &bare); err == nil {
		return strings.TrimSpace(bare), defaultTokenTTL
	}
	return strings.TrimSpace(string(body)), defaultTokenTTL
}
