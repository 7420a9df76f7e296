// Package oauth2 acquires OAuth2 access tokens for fetchkit requests.
package oauth2

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/fetchkit/packages/fetcher"
)

// GrantType represents the OAuth2 grant type
type GrantType string

const (
	// ClientCredentials is the client_credentials grant type
	ClientCredentials GrantType = "client_credentials"
	// Password is the password (resource owner) grant type
	Password GrantType = "password"
	// RefreshToken is the refresh_token grant type
	RefreshToken GrantType = "refresh_token"
)

// expiryLeeway treats tokens as expired slightly early to absorb clock skew.
const expiryLeeway = 30 * time.Second

// Config holds OAuth2 configuration
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Username     string // For password grant
	Password     string // For password grant
	GrantType    GrantType
}

// Token represents an OAuth2 access token
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	ExpiresAt    time.Time `json:"-"`
}

// IsExpired reports whether the token is past (or about to pass) its expiry.
// Tokens without an expiry never expire.
func (t *Token) IsExpired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(expiryLeeway).After(t.ExpiresAt)
}

// Type returns the token type for the Authorization header, defaulting to Bearer.
func (t *Token) Type() string {
	if t.TokenType == "" || strings.EqualFold(t.TokenType, "bearer") {
		return "Bearer"
	}
	return t.TokenType
}

// Provider handles OAuth2 token acquisition. It is safe for concurrent use;
// concurrent callers share a single token request.
type Provider struct {
	config *Config
	cache  *TokenCache
	doer   fetcher.Doer
	tokens *fetcher.Fetcher

	mu sync.Mutex
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithCache shares a token cache between providers.
func WithCache(cache *TokenCache) ProviderOption {
	return func(p *Provider) {
		p.cache = cache
	}
}

// WithDoer sets the transport used for token requests.
func WithDoer(d fetcher.Doer) ProviderOption {
	return func(p *Provider) {
		p.doer = d
	}
}

// NewProvider creates a new OAuth2 provider
func NewProvider(config *Config, opts ...ProviderOption) *Provider {
	p := &Provider{config: config}
	for _, opt := range opts {
		opt(p)
	}
	if p.cache == nil {
		p.cache = NewTokenCache()
	}

	var fopts []fetcher.Option
	if p.doer != nil {
		fopts = append(fopts, fetcher.WithDoer(p.doer))
	}
	p.tokens = fetcher.New(config.TokenURL, fopts...)
	return p
}

// GetToken returns a valid access token. A cached token is reused until it
// expires; an expired token with a refresh token is refreshed, otherwise a
// new token is requested.
func (p *Provider) GetToken(ctx context.Context) (*Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cacheKey := p.cacheKey()
	cached, ok := p.cache.Lookup(cacheKey)
	if ok && !cached.IsExpired() {
		return cached, nil
	}

	var (
		token *Token
		err   error
	)
	if ok && cached.RefreshToken != "" {
		token, err = p.RefreshAccessToken(ctx, cached.RefreshToken)
		if err != nil {
			// The refresh token may be revoked; fall back to the configured grant.
			token, err = p.fetchToken(ctx)
		}
	} else {
		token, err = p.fetchToken(ctx)
	}
	if err != nil {
		p.cache.Forget(cacheKey)
		return nil, err
	}

	p.cache.Store(cacheKey, token)
	return token, nil
}

// Invalidate drops the cached token so the next GetToken fetches a new one.
func (p *Provider) Invalidate() {
	p.cache.Forget(p.cacheKey())
}

func (p *Provider) cacheKey() string {
	return strings.Join([]string{
		string(p.config.GrantType),
		p.config.TokenURL,
		p.config.ClientID,
		p.config.Username,
		strings.Join(p.config.Scopes, ","),
	}, "|")
}

func (p *Provider) fetchToken(ctx context.Context) (*Token, error) {
	data := url.Values{}
	switch p.config.GrantType {
	case Password:
		data.Set("grant_type", string(Password))
		data.Set("username", p.config.Username)
		data.Set("password", p.config.Password)
	default:
		data.Set("grant_type", string(ClientCredentials))
	}
	if len(p.config.Scopes) > 0 {
		data.Set("scope", strings.Join(p.config.Scopes, " "))
	}

	return p.doTokenRequest(ctx, data)
}

// RefreshAccessToken exchanges a refresh token for a new access token. The
// refresh token is carried over when the server does not rotate it.
func (p *Provider) RefreshAccessToken(ctx context.Context, refreshToken string) (*Token, error) {
	data := url.Values{}
	data.Set("grant_type", string(RefreshToken))
	data.Set("refresh_token", refreshToken)

	token, err := p.doTokenRequest(ctx, data)
	if err != nil {
		return nil, err
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return token, nil
}

func (p *Provider) doTokenRequest(ctx context.Context, data url.Values) (*Token, error) {
	headers := http.Header{"Content-Type": {"application/x-www-form-urlencoded"}}
	if p.config.ClientID != "" && p.config.ClientSecret != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(p.config.ClientID + ":" + p.config.ClientSecret))
		headers.Set("Authorization", "Basic "+auth)
	}

	token, err := fetcher.Fetch[Token](ctx, p.tokens, "", &fetcher.RequestOptions{
		Method:  http.MethodPost,
		Headers: headers,
		Body:    fetcher.StringBody(data.Encode()),
	})
	if err != nil {
		if apiErr, ok := fetcher.AsAPIError(err); ok {
			if body, ok := apiErr.Data.(map[string]any); ok {
				if code, _ := body["error"].(string); code != "" {
					desc, _ := body["error_description"].(string)
					return nil, fmt.Errorf("token request failed: %s - %s: %w", code, desc, err)
				}
			}
		}
		return nil, fmt.Errorf("token request failed: %w", err)
	}

	if token.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}

	if token.ExpiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}

	return &token, nil
}

// ParseParams parses the positional OAuth2 parameters accepted by the CLI:
//
//	client_credentials tokenUrl clientId clientSecret [scope1,scope2]
//	password tokenUrl clientId clientSecret username password [scope1,scope2]
func ParseParams(params []string) (*Config, error) {
	if len(params) < 4 {
		return nil, fmt.Errorf("oauth2 auth requires at least: grant_type tokenUrl clientId clientSecret")
	}

	config := &Config{
		GrantType:    GrantType(params[0]),
		TokenURL:     params[1],
		ClientID:     params[2],
		ClientSecret: params[3],
	}

	switch config.GrantType {
	case ClientCredentials:
		if len(params) > 4 {
			config.Scopes = strings.Split(params[4], ",")
		}
	case Password:
		if len(params) < 6 {
			return nil, fmt.Errorf("oauth2 password grant requires: tokenUrl clientId clientSecret username password [scopes]")
		}
		config.Username = params[4]
		config.Password = params[5]
		if len(params) > 6 {
			config.Scopes = strings.Split(params[6], ",")
		}
	default:
		return nil, fmt.Errorf("unsupported OAuth2 grant type: %s", config.GrantType)
	}

	return config, nil
}
