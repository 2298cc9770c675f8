package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/model"
	"github.com/XTREM35000/core-toolkit-app-sub001/prometheus"

	"gorm.io/gorm"
)

type userKey struct{}

// WithUser returns a copy of ctx carrying the authenticated user id
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFromContext returns the user id stored by WithUser
func UserFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

// ContextAuthenticator reads the user placed on the context by the auth middleware
type ContextAuthenticator struct{}

// CurrentUser implements Authenticator
func (ContextAuthenticator) CurrentUser(ctx context.Context) (string, error) {
	return UserFromContext(ctx), nil
}

// GormProfileLookup reads profiles.tenant_id
type GormProfileLookup struct {
	db *gorm.DB
}

// NewGormProfileLookup creates a profile lookup over db
func NewGormProfileLookup(db *gorm.DB) *GormProfileLookup {
	return &GormProfileLookup{db: db}
}

// TenantOf implements ProfileLookup
func (l *GormProfileLookup) TenantOf(ctx context.Context, userID string) (*string, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var profile model.Profile
	err := l.db.WithContext(ctx).Select("id", "tenant_id").Where("id = ?", userID).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return profile.TenantID, nil
}
