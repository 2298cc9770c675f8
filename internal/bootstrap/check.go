// Package bootstrap decides which setup dialog a fresh installation shows
// before anyone can sign in.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/model"
	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/logger"
	"github.com/XTREM35000/core-toolkit-app-sub001/prometheus"

	"go.uber.org/zap"
)

// Init steps
const (
	StepChecking = "checking"
	StepChecked  = "checked"
)

// InitStatus tells the dashboard which modal to open. At most one of the
// admin/super-admin/auth flags is set.
type InitStatus struct {
	Step                string `json:"step"`
	ShowDevModal        bool   `json:"showDevModal"`
	ShowSuperAdminModal bool   `json:"showSuperAdminModal"`
	ShowAdminModal      bool   `json:"showAdminModal"`
	ShowAuthModal       bool   `json:"showAuthModal"`
}

// Probe answers existence questions about privileged accounts.
// HasSuperAdmin and ExistsAdmin are optional fast paths; an error from either
// means "unknown".
type Probe interface {
	HasSuperAdmin(ctx context.Context) (bool, error)
	ExistsAdmin(ctx context.Context) (bool, error)
	ProfileWithRole(ctx context.Context, role string) (bool, error)
	RoleAssignment(ctx context.Context, role string) (bool, error)
}

// Checker runs the initialization check
type Checker struct {
	probe Probe
	log   *zap.Logger
}

// NewChecker creates a checker over probe
func NewChecker(probe Probe, log *zap.Logger) *Checker {
	return &Checker{probe: probe, log: logger.OrNop(log)}
}

// Decide applies the decision table. A missing super-admin wins over
// everything else, even when an admin exists.
func Decide(hasSuperAdmin, hasAdmin bool) InitStatus {
	status := InitStatus{Step: StepChecked}
	switch {
	case !hasSuperAdmin:
		status.ShowDevModal = true
		status.ShowSuperAdminModal = true
	case !hasAdmin:
		status.ShowAdminModal = true
	default:
		status.ShowAuthModal = true
	}
	return status
}

// Check resolves the installation state. It always returns a checked status;
// failures yield one with no modal flag set.
func (c *Checker) Check(ctx context.Context) (status InitStatus) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("Initialization check panicked", zap.Any("panic", r))
			prometheus.RecordInitCheck("failed")
			status = InitStatus{Step: StepChecked}
		}
	}()

	hasSuperAdmin, err := c.exists(ctx, model.RoleSuperAdmin, c.probe.HasSuperAdmin)
	if err != nil {
		return c.fail(err)
	}
	hasAdmin, err := c.exists(ctx, model.RoleAdmin, c.probe.ExistsAdmin)
	if err != nil {
		return c.fail(err)
	}

	status = Decide(hasSuperAdmin, hasAdmin)
	prometheus.RecordInitCheck(outcome(status))
	c.log.Info("Initialization check completed",
		zap.Bool("has_super_admin", hasSuperAdmin),
		zap.Bool("has_admin", hasAdmin))
	return status
}

// exists asks the fast path first and falls back to profiles, then user_roles
func (c *Checker) exists(ctx context.Context, role string, fast func(context.Context) (bool, error)) (bool, error) {
	ok, err := fast(ctx)
	if err != nil {
		c.log.Debug("Fast path unavailable", zap.String("role", role), zap.Error(err))
	}
	if err == nil && ok {
		return true, nil
	}

	ok, err = c.probe.ProfileWithRole(ctx, role)
	if err != nil {
		return false, fmt.Errorf("query profiles for %s: %w", role, err)
	}
	if ok {
		return true, nil
	}

	ok, err = c.probe.RoleAssignment(ctx, role)
	if err != nil {
		return false, fmt.Errorf("query user_roles for %s: %w", role, err)
	}
	return ok, nil
}

func (c *Checker) fail(err error) InitStatus {
	c.log.Error("Initialization check failed", zap.Error(err))
	prometheus.RecordInitCheck("failed")
	return InitStatus{Step: StepChecked}
}

func outcome(s InitStatus) string {
	switch {
	case s.ShowSuperAdminModal:
		return "super_admin_missing"
	case s.ShowAdminModal:
		return "admin_missing"
	case s.ShowAuthModal:
		return "ready"
	}
	return "failed"
}
