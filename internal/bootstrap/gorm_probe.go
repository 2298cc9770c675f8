package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/model"
	"github.com/XTREM35000/core-toolkit-app-sub001/prometheus"

	"gorm.io/gorm"
)

// GormProbe answers the initialization questions against the backend database
type GormProbe struct {
	db *gorm.DB
}

// NewGormProbe creates a probe over db
func NewGormProbe(db *gorm.DB) *GormProbe {
	return &GormProbe{db: db}
}

// HasSuperAdmin calls the has_super_admin() procedure
func (p *GormProbe) HasSuperAdmin(ctx context.Context) (bool, error) {
	return p.procedure(ctx, "SELECT has_super_admin()")
}

// ExistsAdmin calls the exists_admin() procedure
func (p *GormProbe) ExistsAdmin(ctx context.Context) (bool, error) {
	return p.procedure(ctx, "SELECT exists_admin()")
}

func (p *GormProbe) procedure(ctx context.Context, query string) (bool, error) {
	defer prometheus.TrackDBOperation("procedure")(time.Now())

	var ok bool
	if err := p.db.WithContext(ctx).Raw(query).Scan(&ok).Error; err != nil {
		return false, err
	}
	return ok, nil
}

// ProfileWithRole reports whether any profile carries role
func (p *GormProbe) ProfileWithRole(ctx context.Context, role string) (bool, error) {
	var profile model.Profile
	return p.first(ctx, &profile, role)
}

// RoleAssignment reports whether any user_roles row carries role
func (p *GormProbe) RoleAssignment(ctx context.Context, role string) (bool, error) {
	var assignment model.UserRole
	return p.first(ctx, &assignment, role)
}

func (p *GormProbe) first(ctx context.Context, dest interface{}, role string) (bool, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	err := p.db.WithContext(ctx).Select("id").Where("role = ?", role).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
