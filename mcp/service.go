package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/scy"
	"github.com/viant/scy/cred"

	"github.com/XiansAiPlatform/mcp-msgraph/auth"
	"github.com/XiansAiPlatform/mcp-msgraph/graph"
)

// session is the one mutable slot holding the active manager/dispatcher pair.
// It is replaced atomically on re-authentication; in-flight calls keep the
// pair they captured.
type session struct {
	manager *auth.Manager
	client  *graph.Client
}

// Service wires the authentication manager and dispatch client behind the
// MCP tool surface.
type Service struct {
	mu      sync.RWMutex
	current session

	useText bool
	pending *PendingAuths
}

// NewService resolves the config (including an optional scy-encoded Azure
// secret) and constructs the initial session.
func NewService(cfg *Config) (*Service, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	authCfg, err := resolveAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	manager, err := auth.NewManager(authCfg)
	if err != nil {
		return nil, err
	}
	return &Service{
		current: session{manager: manager, client: graph.NewClient(manager.AzureCredential(), nil)},
		useText: !cfg.UseData,
		pending: NewPendingAuths(),
	}, nil
}

func resolveAuthConfig(cfg *Config) (*auth.Config, error) {
	clientID := cfg.ClientID
	tenantID := cfg.TenantID
	if cfg.AzureRef != "" {
		// Decode EncodedResource and load with scy.
		res := cfg.AzureRef.Decode(context.Background(), cred.Azure{})
		if sec, err := scy.New().Load(context.Background(), res); err == nil {
			if az, ok := sec.Target.(*cred.Azure); ok {
				if clientID == "" && az.ClientID != "" {
					clientID = az.ClientID
				}
				if tenantID == "" && az.TenantID != "" {
					tenantID = az.TenantID
				}
			}
		}
	}
	mode, ok := auth.ParseMode(cfg.AuthMode)
	if !ok {
		return nil, &auth.ConfigurationError{Mode: auth.Mode(cfg.AuthMode), Missing: []string{"authMode"}}
	}
	return &auth.Config{
		Mode:                mode,
		TenantID:            tenantID,
		ClientID:            clientID,
		ClientSecret:        cfg.ClientSecret,
		CertificatePath:     cfg.CertificatePath,
		CertificatePassword: cfg.CertificatePassword,
		RedirectURI:         cfg.RedirectURI,
		AccessToken:         cfg.AccessToken,
	}, nil
}

// Session returns the active manager/dispatcher pair as one consistent read.
func (s *Service) Session() (*auth.Manager, *graph.Client) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.manager, s.current.client
}

// Manager returns the active authentication manager.
func (s *Service) Manager() *auth.Manager {
	m, _ := s.Session()
	return m
}

// Reauthenticate discards the current session and installs a fresh
// manager/dispatcher pair built from authCfg. The swap is atomic; operations
// already in flight complete against the pair they captured.
func (s *Service) Reauthenticate(authCfg *auth.Config) error {
	manager, err := auth.NewManager(authCfg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.current = session{manager: manager, client: graph.NewClient(manager.AzureCredential(), nil)}
	s.mu.Unlock()
	return nil
}

// StartInteractiveLogin triggers the browser sign-in for an interactive-mode
// session in the background and tracks it as a pending auth.
func (s *Service) StartInteractiveLogin(manager *auth.Manager) string {
	id := uuid.New().String()
	s.pending.Put(&PendingAuth{UUID: id, Mode: manager.Mode(), Message: "waiting for browser sign-in"})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := manager.Token(ctx, []string{auth.GraphDefaultScope}); err != nil {
			s.pending.SetMessage(id, err.Error())
			// Leave the failed attempt visible until cleared.
			return
		}
		s.pending.Complete(id)
	}()
	return id
}

func (s *Service) UseTextField() bool     { return s.useText }
func (s *Service) Pending() *PendingAuths { return s.pending }

// RegisterHTTP attaches the auth status and pending-login endpoints.
func (s *Service) RegisterHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/msgraph/auth/status", s.StatusHandler())
	mux.HandleFunc("/msgraph/auth/pending", s.PendingListHandler())
	mux.HandleFunc("/msgraph/auth/pending/clear", s.PendingClearHandler())
}

// StatusHandler reports the active mode and token expiry as JSON.
func (s *Service) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		manager, _ := s.Session()
		status := manager.TokenStatus()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"authMode":  manager.Mode(),
			"isExpired": status.IsExpired,
			"expiresOn": status.ExpiresOn,
		})
	}
}

// PendingListHandler returns JSON of in-flight sign-ins.
func (s *Service) PendingListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		type row struct {
			UUID      string    `json:"uuid"`
			Mode      auth.Mode `json:"mode"`
			StartedAt time.Time `json:"startedAt"`
			Message   string    `json:"message,omitempty"`
		}
		list := s.pending.List()
		out := make([]row, 0, len(list))
		for _, x := range list {
			out = append(out, row{UUID: x.UUID, Mode: x.Mode, StartedAt: x.StartedAt, Message: x.Message})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// PendingClearHandler drops all in-flight sign-ins.
func (s *Service) PendingClearHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		cleared := s.pending.Clear()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"cleared": len(cleared), "uuids": cleared})
	}
}
