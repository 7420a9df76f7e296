package oauth2

import "sync"

// TokenCache stores tokens per provider identity (token URL, client ID,
// grant and scopes) so several providers for the same client can share one
// token. Safe for concurrent use.
type TokenCache struct {
	mu     sync.RWMutex
	tokens map[string]*Token
}

func NewTokenCache() *TokenCache {
	return &TokenCache{tokens: make(map[string]*Token)}
}

// Lookup returns the token stored under key, expired or not.
func (c *TokenCache) Lookup(key string) (*Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	token, ok := c.tokens[key]
	return token, ok
}

func (c *TokenCache) Store(key string, token *Token) {
	c.mu.Lock()
	c.tokens[key] = token
	c.mu.Unlock()
}

func (c *TokenCache) Forget(key string) {
	c.mu.Lock()
	delete(c.tokens, key)
	c.mu.Unlock()
}

// Len counts stored tokens, including expired ones.
func (c *TokenCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tokens)
}
