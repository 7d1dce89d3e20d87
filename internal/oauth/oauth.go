// Package oauth fetches and caches OAuth2 client-credentials tokens for
// collections that declare oauth2 auth.
package oauth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenRequestTimeout bounds a single token exchange
const TokenRequestTimeout = 30 * time.Second

// Config holds client-credentials settings
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

func (c Config) cacheKey() string {
	return strings.Join([]string{c.TokenURL, c.ClientID, c.ClientSecret, strings.Join(c.Scopes, " ")}, "\x00")
}

// TokenCache reuses tokens per Config until they expire
type TokenCache struct {
	mu     sync.Mutex
	tokens map[string]*oauth2.Token
	client *http.Client
}

// NewTokenCache creates a cache. client is used for token requests; nil uses a
// default client with TokenRequestTimeout.
func NewTokenCache(client *http.Client) *TokenCache {
	if client == nil {
		client = &http.Client{Timeout: TokenRequestTimeout}
	}
	return &TokenCache{
		tokens: make(map[string]*oauth2.Token),
		client: client,
	}
}

// Token returns a valid access token, fetching a new one when none is cached
// or the cached one expired.
func (tc *TokenCache) Token(ctx context.Context, cfg Config) (*oauth2.Token, error) {
	if cfg.TokenURL == "" {
		return nil, fmt.Errorf("oauth2: token URL is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("oauth2: client ID is required")
	}

	key := cfg.cacheKey()

	tc.mu.Lock()
	tok, ok := tc.tokens[key]
	tc.mu.Unlock()
	if ok && tok.Valid() {
		return tok, nil
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}

	tok, err := cc.Token(context.WithValue(ctx, oauth2.HTTPClient, tc.client))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch oauth2 token: %w", err)
	}

	tc.mu.Lock()
	tc.tokens[key] = tok
	tc.mu.Unlock()

	return tok, nil
}

// Invalidate drops every cached token
func (tc *TokenCache) Invalidate() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.tokens = make(map[string]*oauth2.Token)
}
