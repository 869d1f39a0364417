package auth

import (
	"strings"
	"time"
)

// Mode selects how the manager obtains bearer tokens. Exactly one mode is
// active for the lifetime of a Manager.
type Mode string

const (
	// ModeClientCredentials authenticates as the application with a shared secret.
	ModeClientCredentials Mode = "client_credentials"
	// ModeCertificate authenticates as the application with a client certificate.
	ModeCertificate Mode = "certificate"
	// ModeInteractive authenticates a user through a browser sign-in.
	ModeInteractive Mode = "interactive"
	// ModeClientProvidedToken serves tokens injected by the caller as-is.
	ModeClientProvidedToken Mode = "client_provided_token"
)

// Well-known defaults for interactive sign-in when no app registration is supplied.
const (
	// DefaultInteractiveClientID is the Azure CLI public client id.
	DefaultInteractiveClientID = "04b07795-8ddb-461a-bbee-02f9e1bf7b46"
	DefaultInteractiveTenant   = "common"
)

// Config carries the credential material for one Manager. Fields beyond the
// selected mode's requirements are ignored.
type Config struct {
	Mode     Mode   `json:"mode"`
	TenantID string `json:"tenantID,omitempty"`
	ClientID string `json:"clientID,omitempty"`

	// ClientSecret is required for client_credentials.
	ClientSecret string `json:"clientSecret,omitempty"`

	// CertificatePath/CertificatePassword are required for certificate mode;
	// the file may be PEM or PFX, password optional for unencrypted keys.
	CertificatePath     string `json:"certificatePath,omitempty"`
	CertificatePassword string `json:"certificatePassword,omitempty"`

	// RedirectURI overrides the browser callback for interactive mode.
	RedirectURI string `json:"redirectURI,omitempty"`

	// AccessToken/ExpiresOn optionally seed client_provided_token mode.
	AccessToken string    `json:"accessToken,omitempty"`
	ExpiresOn   time.Time `json:"expiresOn,omitempty"`
}

// ParseMode maps a config string to a Mode, tolerating common spellings.
func ParseMode(value string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "client_credentials", "client-credentials", "clientcredentials", "":
		return ModeClientCredentials, true
	case "certificate", "client_certificate", "client-certificate":
		return ModeCertificate, true
	case "interactive", "browser":
		return ModeInteractive, true
	case "client_provided_token", "client-provided-token", "token", "provided":
		return ModeClientProvidedToken, true
	}
	return "", false
}

// Validate checks that the fields the selected mode needs are present.
// It returns a *ConfigurationError naming every missing field.
func (c *Config) Validate() error {
	var missing []string
	switch c.Mode {
	case ModeClientCredentials:
		if c.TenantID == "" {
			missing = append(missing, "tenantID")
		}
		if c.ClientID == "" {
			missing = append(missing, "clientID")
		}
		if c.ClientSecret == "" {
			missing = append(missing, "clientSecret")
		}
	case ModeCertificate:
		if c.TenantID == "" {
			missing = append(missing, "tenantID")
		}
		if c.ClientID == "" {
			missing = append(missing, "clientID")
		}
		if c.CertificatePath == "" {
			missing = append(missing, "certificatePath")
		}
	case ModeInteractive:
		// Tenant and client default to well-known public values.
	case ModeClientProvidedToken:
		// Nothing required up front; unusable until a token is injected.
	default:
		return &ConfigurationError{Mode: c.Mode, Missing: []string{"mode"}}
	}
	if len(missing) > 0 {
		return &ConfigurationError{Mode: c.Mode, Missing: missing}
	}
	return nil
}
