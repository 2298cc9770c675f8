package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/model"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	profile    *model.Profile
	payment    *model.Payment
	sms        *model.SMSValidation
	membership *model.UserOrganization
	garage     *model.Garage
	team       []model.UserOrganization
	failOn     string
}

var errBoom = errors.New("connection reset")

func (f *fakeStore) fail(op string) error {
	if f.failOn == op {
		return errBoom
	}
	return nil
}

func (f *fakeStore) Profile(context.Context, string) (*model.Profile, error) {
	return f.profile, f.fail("profile")
}

func (f *fakeStore) LatestSucceededPayment(context.Context, string) (*model.Payment, error) {
	return f.payment, f.fail("payment")
}

func (f *fakeStore) LatestUsedValidation(context.Context, string) (*model.SMSValidation, error) {
	return f.sms, f.fail("sms")
}

func (f *fakeStore) AdminMembership(context.Context, string) (*model.UserOrganization, error) {
	return f.membership, f.fail("membership")
}

func (f *fakeStore) Garage(context.Context, string) (*model.Garage, error) {
	return f.garage, f.fail("garage")
}

func (f *fakeStore) TeamMembers(context.Context, string) ([]model.UserOrganization, error) {
	return f.team, f.fail("team")
}

func plan(s string) *string { return &s }

// onboarded returns a store where every gate passes
func onboarded() *fakeStore {
	return &fakeStore{
		profile:    &model.Profile{ID: "u1", Role: model.RoleTenantAdmin, SelectedPlan: plan("pro")},
		payment:    &model.Payment{ID: "pay1", UserID: "u1", Status: model.PaymentSucceeded},
		sms:        &model.SMSValidation{ID: "sms1", UserID: "u1", IsUsed: true},
		membership: &model.UserOrganization{ID: "m1", UserID: "u1", OrganizationID: "org1", Role: model.RoleTenantAdmin},
		garage:     &model.Garage{ID: "g1", OrganizationID: "org1"},
		team:       []model.UserOrganization{{ID: "m2", UserID: "u2", OrganizationID: "org1", Role: model.RoleMember}},
	}
}

func resolve(store Store) Result {
	return NewRunner(DefaultGates(store), nil).Resolve(context.Background(), "u1")
}

func TestResolveSteps(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*fakeStore)
		step   int
		gate   string
	}{
		{"no profile", func(s *fakeStore) { s.profile = nil }, 1, GatePlan},
		{"no plan", func(s *fakeStore) { s.profile.SelectedPlan = nil }, 1, GatePlan},
		{"empty plan", func(s *fakeStore) { s.profile.SelectedPlan = plan("") }, 1, GatePlan},
		{"not tenant admin", func(s *fakeStore) { s.profile.Role = model.RoleMember }, 2, GateTenantAdmin},
		{"no payment", func(s *fakeStore) { s.payment = nil }, 3, GatePayment},
		{"no sms", func(s *fakeStore) { s.sms = nil }, 4, GateSMSValidation},
		{"no organization", func(s *fakeStore) { s.membership = nil }, 5, GateOrganization},
		{"no garage", func(s *fakeStore) { s.garage = nil }, 6, GateGarage},
		{"no team", func(s *fakeStore) { s.team = nil }, 7, GateTeam},
		{"onboarded", func(*fakeStore) {}, FinalStep, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := onboarded()
			tt.mutate(store)

			result := resolve(store)
			require.NoError(t, result.Err)
			assert.Equal(t, tt.step, result.Step)
			assert.Equal(t, tt.gate, result.Gate)
		})
	}
}

func TestPlanlessUserStaysOnFirstStep(t *testing.T) {
	store := onboarded()
	store.profile.SelectedPlan = nil

	result := resolve(store)
	assert.Equal(t, 1, result.Step)
	assert.Nil(t, result.Data)
}

func TestDataHoldsEveryEarlierGate(t *testing.T) {
	store := onboarded()
	store.membership = nil

	result := resolve(store)
	require.Equal(t, 5, result.Step)
	require.NotNil(t, result.Data)
	assert.NotNil(t, result.Data.Profile)
	assert.NotNil(t, result.Data.Payment)
	assert.NotNil(t, result.Data.SMS)
	assert.Nil(t, result.Data.Organization)
	assert.Nil(t, result.Data.Garage)

	result = resolve(onboarded())
	require.Equal(t, FinalStep, result.Step)
	assert.Equal(t, "org1", result.Data.Garage.OrganizationID)
	assert.Len(t, result.Data.Team, 1)
}

func TestStoreErrorResetsToFirstStep(t *testing.T) {
	for _, op := range []string{"profile", "payment", "sms", "membership", "garage", "team"} {
		t.Run(op, func(t *testing.T) {
			store := onboarded()
			store.failOn = op

			result := resolve(store)
			assert.Equal(t, 1, result.Step)
			assert.Nil(t, result.Data)
			assert.ErrorIs(t, result.Err, errBoom)
		})
	}
}

func TestResolveIsRepeatable(t *testing.T) {
	runner := NewRunner(DefaultGates(onboarded()), nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, FinalStep, runner.Resolve(context.Background(), "u1").Step)
		}()
	}
	wg.Wait()
}

func TestCustomGates(t *testing.T) {
	gates := []Gate{
		{ID: "a", Check: func(context.Context, *State) (bool, error) { return true, nil }},
		{ID: "b", Check: func(context.Context, *State) (bool, error) { return false, nil }},
	}
	result := NewRunner(gates, nil).Resolve(context.Background(), "u1")
	assert.Equal(t, 2, result.Step)
	assert.Equal(t, "b", result.Gate)
	assert.NotNil(t, result.Data)
}

func TestGormStore(t *testing.T) {
	db, mock := testutil.NewGormMock(t)
	store := NewGormStore(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE user_id = \$1 AND status = \$2 ORDER BY created_at desc`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "status"}).AddRow("pay1", "u1", "succeeded"))
	mock.ExpectQuery(`SELECT \* FROM "sms_validations" WHERE user_id = \$1 AND is_used = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT \* FROM "user_organization" WHERE organization_id = \$1 AND role <> \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "role"}).AddRow("m2", "u2", "member"))
	mock.ExpectQuery(`FROM "garages"`).
		WillReturnError(errBoom)

	payment, err := store.LatestSucceededPayment(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, "pay1", payment.ID)

	sms, err := store.LatestUsedValidation(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, sms)

	team, err := store.TeamMembers(ctx, "org1")
	require.NoError(t, err)
	assert.Len(t, team, 1)

	_, err = store.Garage(ctx, "org1")
	assert.ErrorIs(t, err, errBoom)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectPlan(t *testing.T) {
	db, mock := testutil.NewGormMock(t)
	store := NewGormStore(db)

	mock.ExpectExec(`UPDATE "profiles" SET "selected_plan"=\$1 WHERE id = \$2`).
		WithArgs("pro", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "profiles"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.SelectPlan(context.Background(), "u1", "pro"))
	assert.Error(t, store.SelectPlan(context.Background(), "ghost", "pro"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
