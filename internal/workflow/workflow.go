// Package workflow derives where a user stands in the onboarding sequence.
//
// Onboarding is an ordered list of gates. The runner checks them in order and
// stops at the first one that does not pass; the user's step is the 1-based
// position of that gate, or FinalStep when every gate passes. Gates are data:
// reordering or adding one does not touch the runner.
package workflow

import (
	"context"
	"fmt"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/model"
	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/logger"
	"github.com/XTREM35000/core-toolkit-app-sub001/prometheus"

	"go.uber.org/zap"
)

// Gate ids
const (
	GatePlan          = "plan"
	GateTenantAdmin   = "tenant_admin"
	GatePayment       = "payment"
	GateSMSValidation = "sms_validation"
	GateOrganization  = "organization"
	GateGarage        = "garage"
	GateTeam          = "team"
)

// FinalStep is reported once every default gate has passed
const FinalStep = 8

// Data accumulates what the passed gates verified
type Data struct {
	Profile      *model.Profile           `json:"profile,omitempty"`
	Payment      *model.Payment           `json:"payment,omitempty"`
	SMS          *model.SMSValidation     `json:"sms,omitempty"`
	Organization *model.UserOrganization  `json:"organization,omitempty"`
	Garage       *model.Garage            `json:"garage,omitempty"`
	Team         []model.UserOrganization `json:"team,omitempty"`
}

// State is the per-resolution scratch space handed to each gate
type State struct {
	UserID string
	Data   Data
}

// Gate is one onboarding prerequisite. Check records what it verified in
// state.Data when it passes; a nil error with false means "not yet".
type Gate struct {
	ID    string
	Check func(ctx context.Context, state *State) (bool, error)
}

// Result is the resolved step. Data is nil when not even the first gate passed.
type Result struct {
	Step int    `json:"step"`
	Data *Data  `json:"data"`
	Gate string `json:"gate,omitempty"`
	Err  error  `json:"-"`
}

// Runner evaluates gates in order. It holds no per-call state.
type Runner struct {
	gates []Gate
	log   *zap.Logger
}

// NewRunner creates a runner over gates
func NewRunner(gates []Gate, log *zap.Logger) *Runner {
	return &Runner{gates: gates, log: logger.OrNop(log)}
}

// Resolve returns the current step of userID. Any check error aborts the
// resolution and reports step 1 with no data.
func (r *Runner) Resolve(ctx context.Context, userID string) Result {
	state := &State{UserID: userID}

	for i, gate := range r.gates {
		ok, err := gate.Check(ctx, state)
		if err != nil {
			r.log.Error("Workflow gate failed",
				zap.String("user_id", userID),
				zap.String("gate", gate.ID),
				zap.Error(err))
			prometheus.RecordWorkflowStep(1)
			return Result{Step: 1, Err: fmt.Errorf("gate %s: %w", gate.ID, err)}
		}
		if ok {
			continue
		}

		result := Result{Step: i + 1, Gate: gate.ID}
		if i > 0 {
			data := state.Data
			result.Data = &data
		}
		prometheus.RecordWorkflowStep(result.Step)
		return result
	}

	data := state.Data
	prometheus.RecordWorkflowStep(len(r.gates) + 1)
	return Result{Step: len(r.gates) + 1, Data: &data}
}

// Store reads the onboarding tables. Lookups return nil without an error when
// no row matches.
type Store interface {
	Profile(ctx context.Context, userID string) (*model.Profile, error)
	LatestSucceededPayment(ctx context.Context, userID string) (*model.Payment, error)
	LatestUsedValidation(ctx context.Context, userID string) (*model.SMSValidation, error)
	AdminMembership(ctx context.Context, userID string) (*model.UserOrganization, error)
	Garage(ctx context.Context, organizationID string) (*model.Garage, error)
	TeamMembers(ctx context.Context, organizationID string) ([]model.UserOrganization, error)
}

// DefaultGates returns the seven onboarding gates in order
func DefaultGates(store Store) []Gate {
	return []Gate{
		{ID: GatePlan, Check: func(ctx context.Context, s *State) (bool, error) {
			profile, err := store.Profile(ctx, s.UserID)
			if err != nil || profile == nil || !profile.HasPlan() {
				return false, err
			}
			s.Data.Profile = profile
			return true, nil
		}},
		{ID: GateTenantAdmin, Check: func(_ context.Context, s *State) (bool, error) {
			return s.Data.Profile.Role == model.RoleTenantAdmin, nil
		}},
		{ID: GatePayment, Check: func(ctx context.Context, s *State) (bool, error) {
			payment, err := store.LatestSucceededPayment(ctx, s.UserID)
			if err != nil || payment == nil {
				return false, err
			}
			s.Data.Payment = payment
			return true, nil
		}},
		{ID: GateSMSValidation, Check: func(ctx context.Context, s *State) (bool, error) {
			sms, err := store.LatestUsedValidation(ctx, s.UserID)
			if err != nil || sms == nil {
				return false, err
			}
			s.Data.SMS = sms
			return true, nil
		}},
		{ID: GateOrganization, Check: func(ctx context.Context, s *State) (bool, error) {
			membership, err := store.AdminMembership(ctx, s.UserID)
			if err != nil || membership == nil {
				return false, err
			}
			s.Data.Organization = membership
			return true, nil
		}},
		{ID: GateGarage, Check: func(ctx context.Context, s *State) (bool, error) {
			garage, err := store.Garage(ctx, s.Data.Organization.OrganizationID)
			if err != nil || garage == nil {
				return false, err
			}
			s.Data.Garage = garage
			return true, nil
		}},
		{ID: GateTeam, Check: func(ctx context.Context, s *State) (bool, error) {
			team, err := store.TeamMembers(ctx, s.Data.Organization.OrganizationID)
			if err != nil || len(team) == 0 {
				return false, err
			}
			s.Data.Team = team
			return true, nil
		}},
	}
}
