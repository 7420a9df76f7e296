// Package interceptors provides ready-made fetcher interceptors for
// authentication, request identification, request signing and rate limiting.
// Each one is built with fetcher.NewInterceptor, so it only adds the headers
// it owns and leaves the rest of the options untouched.
package interceptors

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/abdul-hamid-achik/fetchkit/packages/auth/oauth2"
	"github.com/abdul-hamid-achik/fetchkit/packages/fetcher"
)

// Bearer sets a fixed bearer token.
func Bearer(token string) fetcher.Interceptor {
	return fetcher.NewInterceptor(fetcher.Static(fetcher.RequestOptions{
		Headers: http.Header{"Authorization": {"Bearer " + token}},
	}))
}

// BearerFunc resolves the bearer token for every request. An empty token
// leaves the request unauthenticated.
func BearerFunc(fn func(ctx context.Context) (string, error)) fetcher.Interceptor {
	return fetcher.NewInterceptor(fetcher.Computed(func(ctx context.Context, _ fetcher.RequestOptions, _ string) (fetcher.RequestOptions, error) {
		token, err := fn(ctx)
		if err != nil {
			return fetcher.RequestOptions{}, fmt.Errorf("resolve bearer token: %w", err)
		}
		if token == "" {
			return fetcher.RequestOptions{}, nil
		}
		return fetcher.RequestOptions{
			Headers: http.Header{"Authorization": {"Bearer " + token}},
		}, nil
	}))
}

// BasicAuth sets HTTP basic credentials.
func BasicAuth(username, password string) fetcher.Interceptor {
	auth := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return fetcher.NewInterceptor(fetcher.Static(fetcher.RequestOptions{
		Headers: http.Header{"Authorization": {"Basic " + auth}},
	}))
}

// APIKey sets header to key.
func APIKey(header, key string) fetcher.Interceptor {
	return fetcher.NewInterceptor(fetcher.Static(fetcher.RequestOptions{
		Headers: http.Header{header: {key}},
	}))
}

// OAuth2 authorizes every request with a token from p, fetching or
// refreshing it as needed.
func OAuth2(p *oauth2.Provider) fetcher.Interceptor {
	return fetcher.NewInterceptor(fetcher.Computed(func(ctx context.Context, _ fetcher.RequestOptions, _ string) (fetcher.RequestOptions, error) {
		token, err := p.GetToken(ctx)
		if err != nil {
			return fetcher.RequestOptions{}, fmt.Errorf("oauth2: %w", err)
		}
		return fetcher.RequestOptions{
			Headers: http.Header{"Authorization": {token.Type() + " " + token.AccessToken}},
		}, nil
	}))
}
