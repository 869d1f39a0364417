package mcp

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/XiansAiPlatform/mcp-msgraph/auth"
)

func newProvidedTokenService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(&Config{AuthMode: "client_provided_token"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func TestNewServiceRejectsUnknownMode(t *testing.T) {
	_, err := NewService(&Config{AuthMode: "ntlm"})
	var cfgErr *auth.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestReauthenticateSwapsSession(t *testing.T) {
	svc := newProvidedTokenService(t)
	oldManager, oldClient := svc.Session()
	if oldManager.Mode() != auth.ModeClientProvidedToken {
		t.Fatalf("unexpected initial mode %q", oldManager.Mode())
	}

	err := svc.Reauthenticate(&auth.Config{
		Mode:         auth.ModeClientCredentials,
		TenantID:     "contoso.onmicrosoft.com",
		ClientID:     "app",
		ClientSecret: "secret",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	newManager, newClient := svc.Session()
	if newManager == oldManager || newClient == oldClient {
		t.Fatalf("expected a fresh manager/client pair")
	}
	if newManager.Mode() != auth.ModeClientCredentials {
		t.Fatalf("unexpected mode %q", newManager.Mode())
	}
}

func TestReauthenticateKeepsSessionOnFailure(t *testing.T) {
	svc := newProvidedTokenService(t)
	oldManager, _ := svc.Session()

	err := svc.Reauthenticate(&auth.Config{Mode: auth.ModeClientCredentials})
	var cfgErr *auth.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if current, _ := svc.Session(); current != oldManager {
		t.Fatalf("failed reauthentication must leave the session untouched")
	}
}

func TestStatusHandler(t *testing.T) {
	svc := newProvidedTokenService(t)
	expiry := time.Now().Add(time.Hour)
	if err := svc.Manager().UpdateAccessToken("tok", expiry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := httptest.NewRecorder()
	svc.StatusHandler()(rec, httptest.NewRequest(http.MethodGet, "/msgraph/auth/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var body struct {
		AuthMode  string     `json:"authMode"`
		IsExpired bool       `json:"isExpired"`
		ExpiresOn *time.Time `json:"expiresOn"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.AuthMode != string(auth.ModeClientProvidedToken) || body.IsExpired {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.ExpiresOn == nil {
		t.Fatalf("expected expiry to be reported")
	}
}

func TestPendingRegistry(t *testing.T) {
	p := NewPendingAuths()
	p.Put(&PendingAuth{UUID: "a", Mode: auth.ModeInteractive})
	p.Put(&PendingAuth{UUID: "b", Mode: auth.ModeInteractive})
	if len(p.List()) != 2 {
		t.Fatalf("expected 2 pending auths")
	}
	p.SetMessage("a", "waiting")
	if x, ok := p.Get("a"); !ok || x.Message != "waiting" {
		t.Fatalf("unexpected pending auth: %+v", x)
	}
	p.Complete("a")
	if _, ok := p.Get("a"); ok {
		t.Fatalf("completed auth should be removed")
	}
	cleared := p.Clear()
	if len(cleared) != 1 || cleared[0] != "b" {
		t.Fatalf("unexpected cleared set: %v", cleared)
	}
}
