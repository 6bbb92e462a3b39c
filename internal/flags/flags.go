// Package flags resolves tenant-level feature flags.
package flags

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"
	"github.com/sirupsen/logrus"
)

const (
	FlagMCMVModule       = "mcmv_module_enabled"
	FlagApprovalRequired = "public_site_requires_approval"

	tenantContextKind = "tenant"
)

// Tenant holds the flags the wizard consults for one tenant.
type Tenant struct {
	MCMVEnabled      bool `json:"mcmv_enabled"`
	ApprovalRequired bool `json:"approval_required"`
}

type Provider interface {
	TenantFlags(ctx context.Context, tenantID string) Tenant
}

// Static serves fixed flags, optionally overridden per tenant.
type Static struct {
	Defaults Tenant

	mu        sync.RWMutex
	overrides map[string]Tenant
}

func NewStatic(defaults Tenant) *Static {
	return &Static{Defaults: defaults, overrides: make(map[string]Tenant)}
}

func (s *Static) Set(tenantID string, t Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[tenantID] = t
}

func (s *Static) TenantFlags(_ context.Context, tenantID string) Tenant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.overrides[tenantID]; ok {
		return t
	}
	return s.Defaults
}

// LaunchDarkly evaluates flags against a "tenant" context. Evaluation errors
// fall back to the configured defaults.
type LaunchDarkly struct {
	client   *ld.LDClient
	fallback Tenant
	logger   *logrus.Logger
}

// NewLaunchDarkly connects to LaunchDarkly. A client that fails to initialize
// in time is kept; it serves the fallback until the connection succeeds.
func NewLaunchDarkly(sdkKey string, timeout time.Duration, fallback Tenant, logger *logrus.Logger) (*LaunchDarkly, error) {
	client, err := ld.MakeClient(sdkKey, timeout)
	if err != nil && client == nil {
		return nil, fmt.Errorf("failed to create LaunchDarkly client: %w", err)
	}
	l := newLaunchDarkly(client, fallback, logger)
	if !client.Initialized() {
		l.logger.Warn("LaunchDarkly client not initialized, serving fallback flags")
	}
	return l, nil
}

func newLaunchDarkly(client *ld.LDClient, fallback Tenant, logger *logrus.Logger) *LaunchDarkly {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &LaunchDarkly{client: client, fallback: fallback, logger: logger}
}

func (l *LaunchDarkly) TenantFlags(_ context.Context, tenantID string) Tenant {
	ctx := ldcontext.NewWithKind(ldcontext.Kind(tenantContextKind), tenantID)
	return Tenant{
		MCMVEnabled:      l.boolFlag(FlagMCMVModule, ctx, l.fallback.MCMVEnabled),
		ApprovalRequired: l.boolFlag(FlagApprovalRequired, ctx, l.fallback.ApprovalRequired),
	}
}

func (l *LaunchDarkly) boolFlag(key string, ctx ldcontext.Context, fallback bool) bool {
	v, err := l.client.BoolVariation(key, ctx, fallback)
	if err != nil {
		l.logger.WithError(err).WithField("flag", key).Debug("Flag evaluation failed, using fallback")
		return fallback
	}
	return v
}

func (l *LaunchDarkly) Close() error {
	return l.client.Close()
}
