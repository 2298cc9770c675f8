package otp

import (
	"context"
	"errors"
	"time"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/model"
	"github.com/XTREM35000/core-toolkit-app-sub001/prometheus"

	"gorm.io/gorm"
)

// GormStore keeps validations in the sms_validations table
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over db
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Create implements Store
func (s *GormStore) Create(ctx context.Context, v *model.SMSValidation) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return s.db.WithContext(ctx).Create(v).Error
}

// LatestPending implements Store
func (s *GormStore) LatestPending(ctx context.Context, userID string, now time.Time) (*model.SMSValidation, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var v model.SMSValidation
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_used = ? AND expires_at > ?", userID, false, now).
		Order("created_at desc").
		Take(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// MarkUsed implements Store
func (s *GormStore) MarkUsed(ctx context.Context, id string) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return s.db.WithContext(ctx).Model(&model.SMSValidation{}).
		Where("id = ?", id).
		Update("is_used", true).Error
}

// ConsumeAttempt implements Store. The check and the increment are one
// statement, so concurrent tries cannot exceed limit.
func (s *GormStore) ConsumeAttempt(ctx context.Context, id string, limit int) (bool, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())
	res := s.db.WithContext(ctx).Model(&model.SMSValidation{}).
		Where("id = ? AND attempts < ?", id, limit).
		UpdateColumn("attempts", gorm.Expr("attempts + ?", 1))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
