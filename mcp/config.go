package mcp

import (
	"github.com/viant/scy"
)

// Config controls the MSGraph MCP server behaviour and authentication.
type Config struct {
	// AuthMode selects the credential strategy; see auth.ParseMode.
	AuthMode string `json:"authMode,omitempty"`
	// Azure AD application (client) ID.
	ClientID string `json:"clientID,omitempty"`
	// Tenant ID, or "common"/"organizations" for multi-tenant sign-in.
	TenantID string `json:"tenantID,omitempty"`

	ClientSecret        string `json:"clientSecret,omitempty"`
	CertificatePath     string `json:"certificatePath,omitempty"`
	CertificatePassword string `json:"certificatePassword,omitempty"`
	RedirectURI         string `json:"redirectURI,omitempty"`
	// AccessToken seeds client_provided_token mode.
	AccessToken string `json:"accessToken,omitempty"`

	// If true, return tool results in the data field instead of text.
	UseData bool `json:"useData,omitempty"`

	// AzureRef optionally points to an Azure OAuth2 client config stored as a
	// scy resource, using EncodedResource syntax "<URL>|<kmsKey>".
	// The referenced content should unmarshal into github.com/viant/scy/cred.Azure.
	AzureRef scy.EncodedResource `json:"azureRef,omitempty"`
}
