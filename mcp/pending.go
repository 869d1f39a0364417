package mcp

import (
	"sync"
	"time"

	"github.com/XiansAiPlatform/mcp-msgraph/auth"
)

// PendingAuth tracks one in-flight re-authentication, typically an
// interactive sign-in blocking on the browser.
type PendingAuth struct {
	UUID      string
	Mode      auth.Mode
	StartedAt time.Time
	// Message carries progress or failure detail for the status page.
	Message string
}

type PendingAuths struct {
	mu   sync.RWMutex
	byID map[string]*PendingAuth
}

func NewPendingAuths() *PendingAuths {
	return &PendingAuths{byID: make(map[string]*PendingAuth)}
}

func (p *PendingAuths) Put(x *PendingAuth) {
	if x.StartedAt.IsZero() {
		x.StartedAt = time.Now()
	}
	p.mu.Lock()
	p.byID[x.UUID] = x
	p.mu.Unlock()
}

func (p *PendingAuths) Get(uuid string) (*PendingAuth, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	x, ok := p.byID[uuid]
	return x, ok
}

// SetMessage updates the progress message for a pending auth.
func (p *PendingAuths) SetMessage(uuid, message string) {
	p.mu.Lock()
	if x, ok := p.byID[uuid]; ok {
		x.Message = message
	}
	p.mu.Unlock()
}

// Complete removes a finished pending auth.
func (p *PendingAuths) Complete(uuid string) {
	p.mu.Lock()
	delete(p.byID, uuid)
	p.mu.Unlock()
}

// List returns a snapshot of pending auths.
func (p *PendingAuths) List() []*PendingAuth {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*PendingAuth, 0, len(p.byID))
	for _, x := range p.byID {
		out = append(out, x)
	}
	return out
}

// Clear removes every pending auth and returns the cleared UUIDs.
func (p *PendingAuths) Clear() []string {
	p.mu.Lock()
	ids := make([]string, 0, len(p.byID))
	for id := range p.byID {
		ids = append(ids, id)
	}
	p.byID = make(map[string]*PendingAuth)
	p.mu.Unlock()
	return ids
}
