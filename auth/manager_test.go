package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/golang-jwt/jwt/v5"
)

func TestNewManagerMissingFields(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		missing []string
	}{
		{
			name:    "client credentials without secret",
			cfg:     Config{Mode: ModeClientCredentials, TenantID: "contoso.onmicrosoft.com", ClientID: "app"},
			missing: []string{"clientSecret"},
		},
		{
			name:    "client credentials empty",
			cfg:     Config{Mode: ModeClientCredentials},
			missing: []string{"tenantID", "clientID", "clientSecret"},
		},
		{
			name:    "certificate without path",
			cfg:     Config{Mode: ModeCertificate, TenantID: "contoso.onmicrosoft.com", ClientID: "app"},
			missing: []string{"certificatePath"},
		},
		{
			name:    "unknown mode",
			cfg:     Config{Mode: Mode("kerberos")},
			missing: []string{"mode"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := NewManager(&tc.cfg)
			if m != nil {
				t.Fatalf("no manager expected on validation failure")
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
			for _, field := range tc.missing {
				if !strings.Contains(cfgErr.Error(), field) {
					t.Fatalf("error should name %s: %v", field, cfgErr)
				}
			}
		})
	}
}

func TestInteractiveDefaultsWellKnownClient(t *testing.T) {
	m, err := NewManager(&Config{Mode: ModeInteractive})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Mode() != ModeInteractive {
		t.Fatalf("unexpected mode %q", m.Mode())
	}
}

func TestUpdateAccessTokenWrongMode(t *testing.T) {
	m, err := NewManager(&Config{
		Mode:         ModeClientCredentials,
		TenantID:     "contoso.onmicrosoft.com",
		ClientID:     "app",
		ClientSecret: "secret",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = m.UpdateAccessToken("tok", time.Time{})
	var opErr *InvalidOperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected InvalidOperationError, got %v", err)
	}
}

func TestProvidedTokenBeforeInjection(t *testing.T) {
	m, err := NewManager(&Config{Mode: ModeClientProvidedToken})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Token(context.Background(), []string{GraphDefaultScope}); err == nil {
		t.Fatalf("expected failure before injection")
	} else {
		var authErr *AuthenticationError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected AuthenticationError, got %v", err)
		}
	}
}

func TestUpdateAccessTokenStatus(t *testing.T) {
	m, err := NewManager(&Config{Mode: ModeClientProvidedToken})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	future := time.Now().Add(time.Hour)
	if err := m.UpdateAccessToken("tok-1", future); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	status := m.TokenStatus()
	if status.IsExpired {
		t.Fatalf("token with future expiry should not be expired")
	}
	if status.ExpiresOn == nil || !status.ExpiresOn.Equal(future) {
		t.Fatalf("unexpected expiry: %v", status.ExpiresOn)
	}

	if err := m.UpdateAccessToken("tok-2", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.TokenStatus().IsExpired {
		t.Fatalf("token with past expiry should be expired")
	}

	// Opaque token, no expiry given: conservatively not expired.
	if err := m.UpdateAccessToken("tok-3", time.Time{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	status = m.TokenStatus()
	if status.IsExpired || status.ExpiresOn != nil {
		t.Fatalf("unknown expiry should report not expired: %+v", status)
	}

	if tok, err := m.Token(context.Background(), []string{GraphDefaultScope}); err != nil || tok != "tok-3" {
		t.Fatalf("expected tok-3, got %q (%v)", tok, err)
	}
}

func TestUpdateAccessTokenRecoversJWTExpiry(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
		"upn": "alice@contoso.com",
	})
	signed, err := token.SignedString([]byte("test"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	m, err := NewManager(&Config{Mode: ModeClientProvidedToken})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.UpdateAccessToken(signed, time.Time{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	status := m.TokenStatus()
	if status.ExpiresOn == nil || !status.ExpiresOn.Equal(exp) {
		t.Fatalf("expected expiry recovered from exp claim, got %v", status.ExpiresOn)
	}
	if identity, ok := TokenIdentity(signed); !ok || identity != "alice@contoso.com" {
		t.Fatalf("unexpected identity %q (%v)", identity, ok)
	}
}

func TestNewManagerWithCredential(t *testing.T) {
	static := NewStaticTokenCredential("seed", time.Time{})
	m := NewManagerWithCredential(static, ModeClientProvidedToken)
	if m.Mode() != ModeClientProvidedToken {
		t.Fatalf("unexpected mode %q", m.Mode())
	}
	if tok, err := m.Token(context.Background(), []string{GraphDefaultScope}); err != nil || tok != "seed" {
		t.Fatalf("expected seed token, got %q (%v)", tok, err)
	}
	if err := m.UpdateAccessToken("next", time.Time{}); err != nil {
		t.Fatalf("injection should be supported: %v", err)
	}
}

type opaqueCred struct{}

func (opaqueCred) GetToken(_ context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "opaque"}, nil
}

func TestNewManagerWithCredentialNonStaticInjection(t *testing.T) {
	m := NewManagerWithCredential(opaqueCred{}, ModeClientProvidedToken)
	err := m.UpdateAccessToken("tok", time.Time{})
	var opErr *InvalidOperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected InvalidOperationError for non-injectable credential, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"":                      ModeClientCredentials,
		"client_credentials":    ModeClientCredentials,
		"Certificate":           ModeCertificate,
		"interactive":           ModeInteractive,
		"client-provided-token": ModeClientProvidedToken,
	}
	for in, want := range cases {
		got, ok := ParseMode(in)
		if !ok || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseMode("ntlm"); ok {
		t.Fatalf("expected unknown mode to be rejected")
	}
}
