package auth

import (
	"context"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
)

// StaticTokenCredential is an azcore.TokenCredential over a caller-injected
// bearer token. Reads and swaps are atomic under a single mutex so a token
// read never observes a partially written value.
type StaticTokenCredential struct {
	mu        sync.RWMutex
	token     string
	expiresOn time.Time
}

// NewStaticTokenCredential seeds the credential; token may be empty, in which
// case GetToken fails until Set provides one.
func NewStaticTokenCredential(token string, expiresOn time.Time) *StaticTokenCredential {
	return &StaticTokenCredential{token: token, expiresOn: expiresOn}
}

// Set replaces the held token and expiry together.
func (c *StaticTokenCredential) Set(token string, expiresOn time.Time) {
	c.mu.Lock()
	c.token = token
	c.expiresOn = expiresOn
	c.mu.Unlock()
}

// GetToken returns the injected token as-is; scopes are not checked because
// the caller owns the token's audience. An expired token is still returned so
// the backend's 401 surfaces rather than an opaque local failure.
func (c *StaticTokenCredential) GetToken(_ context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	c.mu.RLock()
	token, expiresOn := c.token, c.expiresOn
	c.mu.RUnlock()
	if token == "" {
		return azcore.AccessToken{}, &AuthenticationError{Message: "no access token has been provided; call updateAccessToken first"}
	}
	return azcore.AccessToken{Token: token, ExpiresOn: expiresOn}, nil
}

// Status reports expiry computed against the current time. Absent expiry
// means unknown and reports not expired.
func (c *StaticTokenCredential) Status() TokenStatus {
	c.mu.RLock()
	expiresOn := c.expiresOn
	c.mu.RUnlock()
	status := TokenStatus{}
	if !expiresOn.IsZero() {
		e := expiresOn
		status.ExpiresOn = &e
		status.IsExpired = time.Now().After(expiresOn)
	}
	return status
}
