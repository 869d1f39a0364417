package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	kiotaauth "github.com/microsoft/kiota-authentication-azure-go"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
)

// GraphDefaultScope requests whatever application permissions were consented.
const GraphDefaultScope = "https://graph.microsoft.com/.default"

// TokenStatus reports the held token's expiry as observed at call time.
// Unknown expiry reports IsExpired=false.
type TokenStatus struct {
	IsExpired bool       `json:"isExpired"`
	ExpiresOn *time.Time `json:"expiresOn,omitempty"`
}

// Manager owns exactly one credential strategy and surfaces it as a token
// provider. It is immutable after construction except for token injection in
// client_provided_token mode; re-authentication replaces the whole Manager.
type Manager struct {
	mode Mode
	cred azcore.TokenCredential
	// static is non-nil only in client_provided_token mode.
	static *StaticTokenCredential

	// lastExpiresOn tracks the expiry the strategy reported on the most
	// recent acquisition, for TokenStatus on modes with opaque expiry.
	mu            sync.RWMutex
	lastExpiresOn time.Time
}

// NewManager validates cfg for its mode and constructs the corresponding
// credential strategy. No network round trip happens here; use Verify for an
// eager acquisition check.
func NewManager(cfg *Config) (*Manager, error) {
	if cfg == nil {
		return nil, &ConfigurationError{Missing: []string{"config"}}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{mode: cfg.Mode}
	switch cfg.Mode {
	case ModeClientCredentials:
		cred, err := azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
		if err != nil {
			return nil, &AuthenticationError{Message: "client secret credential", Err: err}
		}
		m.cred = cred
	case ModeCertificate:
		cred, err := newCertificateCredential(cfg)
		if err != nil {
			return nil, err
		}
		m.cred = cred
	case ModeInteractive:
		tenantID := cfg.TenantID
		if tenantID == "" {
			tenantID = DefaultInteractiveTenant
		}
		clientID := cfg.ClientID
		if clientID == "" {
			clientID = DefaultInteractiveClientID
		}
		cred, err := azidentity.NewInteractiveBrowserCredential(&azidentity.InteractiveBrowserCredentialOptions{
			TenantID:    tenantID,
			ClientID:    clientID,
			RedirectURL: cfg.RedirectURI,
		})
		if err != nil {
			return nil, &AuthenticationError{Message: "interactive browser credential", Err: err}
		}
		m.cred = cred
	case ModeClientProvidedToken:
		expiresOn := cfg.ExpiresOn
		if expiresOn.IsZero() && cfg.AccessToken != "" {
			if exp, ok := tokenExpiry(cfg.AccessToken); ok {
				expiresOn = exp
			}
		}
		m.static = NewStaticTokenCredential(cfg.AccessToken, expiresOn)
		m.cred = m.static
	}
	return m, nil
}

// NewManagerWithCredential wraps a credential obtained out-of-band (e.g. after
// acquiring additional consented scopes) without reconstructing the strategy.
func NewManagerWithCredential(cred azcore.TokenCredential, mode Mode) *Manager {
	m := &Manager{mode: mode, cred: cred}
	if static, ok := cred.(*StaticTokenCredential); ok {
		m.static = static
	}
	return m
}

func newCertificateCredential(cfg *Config) (azcore.TokenCredential, error) {
	data, err := os.ReadFile(cfg.CertificatePath)
	if err != nil {
		return nil, &AuthenticationError{Message: fmt.Sprintf("read certificate %s", cfg.CertificatePath), Err: err}
	}
	var password []byte
	if cfg.CertificatePassword != "" {
		password = []byte(cfg.CertificatePassword)
	}
	certs, key, err := azidentity.ParseCertificates(data, password)
	if err != nil {
		return nil, &AuthenticationError{Message: fmt.Sprintf("parse certificate %s", cfg.CertificatePath), Err: err}
	}
	cred, err := azidentity.NewClientCertificateCredential(cfg.TenantID, cfg.ClientID, certs, key, nil)
	if err != nil {
		return nil, &AuthenticationError{Message: "client certificate credential", Err: err}
	}
	return cred, nil
}

// Mode returns the active authentication mode.
func (m *Manager) Mode() Mode { return m.mode }

// GetToken implements azcore.TokenCredential by delegating to the active
// strategy and recording the expiry it reported. This makes the Manager
// itself the token-provider capability handed to backend clients.
func (m *Manager) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	token, err := m.cred.GetToken(ctx, opts)
	if err != nil {
		var authErr *AuthenticationError
		if errors.As(err, &authErr) {
			return azcore.AccessToken{}, err
		}
		return azcore.AccessToken{}, &AuthenticationError{Message: "token acquisition", Err: err}
	}
	m.mu.Lock()
	m.lastExpiresOn = token.ExpiresOn
	m.mu.Unlock()
	return token, nil
}

// Token acquires a bearer token for the given scopes.
func (m *Manager) Token(ctx context.Context, scopes []string) (string, error) {
	token, err := m.GetToken(ctx, policy.TokenRequestOptions{Scopes: scopes})
	if err != nil {
		return "", err
	}
	return token.Token, nil
}

// Verify performs one eager acquisition so configuration problems surface at
// startup rather than on the first request. Interactive mode is skipped, it
// would block on a browser; provided-token mode is skipped until injection.
func (m *Manager) Verify(ctx context.Context) error {
	switch m.mode {
	case ModeClientCredentials, ModeCertificate:
		_, err := m.Token(ctx, []string{GraphDefaultScope})
		return err
	}
	return nil
}

// UpdateAccessToken replaces the injected token; valid only in
// client_provided_token mode. A zero expiresOn is recovered from the token's
// exp claim when the token parses as a JWT.
func (m *Manager) UpdateAccessToken(token string, expiresOn time.Time) error {
	if m.mode != ModeClientProvidedToken || m.static == nil {
		return &InvalidOperationError{Operation: "updateAccessToken", Mode: m.mode}
	}
	if expiresOn.IsZero() {
		if exp, ok := tokenExpiry(token); ok {
			expiresOn = exp
		}
	}
	m.static.Set(token, expiresOn)
	return nil
}

// TokenStatus reports expiry computed against the current time.
func (m *Manager) TokenStatus() TokenStatus {
	if m.static != nil {
		return m.static.Status()
	}
	m.mu.RLock()
	expiresOn := m.lastExpiresOn
	m.mu.RUnlock()
	status := TokenStatus{}
	if !expiresOn.IsZero() {
		e := expiresOn
		status.ExpiresOn = &e
		status.IsExpired = time.Now().After(expiresOn)
	}
	return status
}

// AzureCredential exposes the manager in the shape Azure management clients
// expect.
func (m *Manager) AzureCredential() azcore.TokenCredential { return m }

// GraphAuthProvider exposes the manager as a kiota authentication provider
// for the Graph SDK.
func (m *Manager) GraphAuthProvider(scopes ...string) (*kiotaauth.AzureIdentityAuthenticationProvider, error) {
	if len(scopes) == 0 {
		scopes = []string{GraphDefaultScope}
	}
	provider, err := kiotaauth.NewAzureIdentityAuthenticationProviderWithScopes(m, scopes)
	if err != nil {
		return nil, &AuthenticationError{Message: "graph auth provider", Err: err}
	}
	return provider, nil
}

// GraphClient builds a typed Graph SDK client over the manager's credential.
func (m *Manager) GraphClient(scopes ...string) (*msgraphsdk.GraphServiceClient, error) {
	if len(scopes) == 0 {
		scopes = []string{GraphDefaultScope}
	}
	client, err := msgraphsdk.NewGraphServiceClientWithCredentials(m, scopes)
	if err != nil {
		return nil, &AuthenticationError{Message: "graph service client", Err: err}
	}
	return client, nil
}
