package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/model"
	"github.com/XTREM35000/core-toolkit-app-sub001/prometheus"

	"gorm.io/gorm"
)

// GormStore reads the onboarding tables with gorm
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over db
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// take runs query into dest and reports whether a row was found
func take(query *gorm.DB, dest interface{}) (bool, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	err := query.Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Profile implements Store
func (s *GormStore) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	var profile model.Profile
	found, err := take(s.db.WithContext(ctx).Where("id = ?", userID), &profile)
	if !found {
		return nil, err
	}
	return &profile, nil
}

// LatestSucceededPayment implements Store
func (s *GormStore) LatestSucceededPayment(ctx context.Context, userID string) (*model.Payment, error) {
	var payment model.Payment
	query := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.PaymentSucceeded).
		Order("created_at desc")
	found, err := take(query, &payment)
	if !found {
		return nil, err
	}
	return &payment, nil
}

// LatestUsedValidation implements Store
func (s *GormStore) LatestUsedValidation(ctx context.Context, userID string) (*model.SMSValidation, error) {
	var validation model.SMSValidation
	query := s.db.WithContext(ctx).
		Where("user_id = ? AND is_used = ?", userID, true).
		Order("created_at desc")
	found, err := take(query, &validation)
	if !found {
		return nil, err
	}
	return &validation, nil
}

// AdminMembership implements Store
func (s *GormStore) AdminMembership(ctx context.Context, userID string) (*model.UserOrganization, error) {
	var membership model.UserOrganization
	query := s.db.WithContext(ctx).Where("user_id = ? AND role = ?", userID, model.RoleTenantAdmin)
	found, err := take(query, &membership)
	if !found {
		return nil, err
	}
	return &membership, nil
}

// Garage implements Store
func (s *GormStore) Garage(ctx context.Context, organizationID string) (*model.Garage, error) {
	var garage model.Garage
	found, err := take(s.db.WithContext(ctx).Where("organization_id = ?", organizationID), &garage)
	if !found {
		return nil, err
	}
	return &garage, nil
}

// TeamMembers implements Store
func (s *GormStore) TeamMembers(ctx context.Context, organizationID string) ([]model.UserOrganization, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var members []model.UserOrganization
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND role <> ?", organizationID, model.RoleTenantAdmin).
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// SelectPlan records the plan picked by userID
func (s *GormStore) SelectPlan(ctx context.Context, userID, plan string) error {
	defer prometheus.TrackDBOperation("update")(time.Now())

	result := s.db.WithContext(ctx).Model(&model.Profile{}).
		Where("id = ?", userID).
		Update("selected_plan", plan)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
