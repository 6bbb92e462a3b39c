// Package session keeps the wizard controllers of open sessions, keyed by an
// opaque id, and closes the ones that went idle.
package session

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"realtywizard/server/internal/wizard"
)

var ErrNotFound = errors.New("wizard session not found")

type entry struct {
	ctrl     *wizard.Controller
	lastSeen time.Time
}

type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	now      func() time.Time
	logger   *logrus.Logger
}

func NewRegistry(logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Registry{
		sessions: make(map[string]*entry),
		now:      time.Now,
		logger:   logger,
	}
}

// Add registers a controller and returns its session id.
func (r *Registry) Add(ctrl *wizard.Controller) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = &entry{ctrl: ctrl, lastSeen: r.now()}
	r.mu.Unlock()
	return id
}

// Get returns the controller of id if it belongs to tenantID, and marks the
// session as used.
func (r *Registry) Get(id, tenantID string) (*wizard.Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok || e.ctrl.TenantID() != tenantID {
		return nil, ErrNotFound
	}
	e.lastSeen = r.now()
	return e.ctrl, nil
}

// Close closes and forgets one session.
func (r *Registry) Close(id, tenantID string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if !ok || e.ctrl.TenantID() != tenantID {
		r.mu.Unlock()
		return ErrNotFound
	}
	delete(r.sessions, id)
	r.mu.Unlock()

	e.ctrl.Close()
	return nil
}

// Sweep closes sessions unused for longer than ttl and returns how many were
// closed.
func (r *Registry) Sweep(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)

	r.mu.Lock()
	var idle []*wizard.Controller
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e.ctrl)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, c := range idle {
		c.Close()
	}
	if len(idle) > 0 {
		r.logger.WithField("closed", len(idle)).Info("Closed idle wizard sessions")
	}
	return len(idle)
}

// CloseAll closes every session, on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range all {
		e.ctrl.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
