// Package otp issues and verifies the SMS codes that validate a user's phone
// during onboarding.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/model"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/notify"
	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// CodeLength is the number of digits in a code
const CodeLength = 6

// DefaultMaxAttempts is the number of tries a code allows when none is configured
const DefaultMaxAttempts = 5

// ErrInvalidCode is returned when no pending code matches
var ErrInvalidCode = errors.New("invalid or expired code")

// Store persists sms_validations rows
type Store interface {
	Create(ctx context.Context, v *model.SMSValidation) error
	LatestPending(ctx context.Context, userID string, now time.Time) (*model.SMSValidation, error)
	MarkUsed(ctx context.Context, id string) error
	// ConsumeAttempt counts one try against id. It reports false once the
	// code has already been tried limit times.
	ConsumeAttempt(ctx context.Context, id string, limit int) (bool, error)
}

// Sender delivers the code
type Sender interface {
	SendSMS(ctx context.Context, phone, message string, opts notify.Options) notify.Result
}

// Service issues and verifies codes
type Service struct {
	store  Store
	sender Sender
	ttl         time.Duration
	maxAttempts int
	cost        int
	log         *zap.Logger
	now         func() time.Time
}

// NewService creates a code service. Codes expire after ttl and stop
// verifying after maxAttempts tries.
func NewService(store Store, sender Sender, ttl time.Duration, maxAttempts int, log *zap.Logger) *Service {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Service{
		store:       store,
		sender:      sender,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		cost:        bcrypt.DefaultCost,
		log:         logger.OrNop(log),
		now:         time.Now,
	}
}

func generateCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}

// Issue stores a new code for userID and sends it to phone. A failed
// delivery is reported in the result; the stored code stays valid.
func (s *Service) Issue(ctx context.Context, userID, phone string, opts notify.Options) (notify.Result, error) {
	code, err := generateCode()
	if err != nil {
		return notify.Result{}, fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return notify.Result{}, fmt.Errorf("hash code: %w", err)
	}

	now := s.now().UTC()
	validation := &model.SMSValidation{
		ID:        uuid.New().String(),
		UserID:    userID,
		Phone:     phone,
		CodeHash:  string(hash),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.store.Create(ctx, validation); err != nil {
		return notify.Result{}, fmt.Errorf("store code: %w", err)
	}

	msg := fmt.Sprintf("Votre code de validation est %s. Il expire dans %d minutes.", code, int(s.ttl.Minutes()))
	result := s.sender.SendSMS(ctx, phone, msg, opts)
	s.log.Info("Validation code issued",
		zap.String("user_id", userID),
		zap.String("validation_id", validation.ID),
		zap.Bool("delivered", result.Success))
	return result, nil
}

// Verify checks code against the latest pending validation of userID and
// marks it used on success. Every try counts against the code, so a code that
// has been tried maxAttempts times no longer verifies.
func (s *Service) Verify(ctx context.Context, userID, code string) error {
	pending, err := s.store.LatestPending(ctx, userID, s.now().UTC())
	if err != nil {
		return fmt.Errorf("load pending code: %w", err)
	}
	if pending == nil {
		return ErrInvalidCode
	}

	allowed, err := s.store.ConsumeAttempt(ctx, pending.ID, s.maxAttempts)
	if err != nil {
		return fmt.Errorf("count attempt: %w", err)
	}
	if !allowed {
		s.log.Warn("Validation code locked after too many attempts",
			zap.String("user_id", userID),
			zap.String("validation_id", pending.ID))
		return ErrInvalidCode
	}
	if err := bcrypt.CompareHashAndPassword([]byte(pending.CodeHash), []byte(code)); err != nil {
		s.log.Warn("Validation code mismatch", zap.String("user_id", userID))
		return ErrInvalidCode
	}
	if err := s.store.MarkUsed(ctx, pending.ID); err != nil {
		return fmt.Errorf("mark code used: %w", err)
	}

	s.log.Info("Phone validated", zap.String("user_id", userID))
	return nil
}
