package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/model"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProbe struct {
	superFast, adminFast       bool
	superFastErr, adminFastErr error
	profiles, assignments      map[string]bool
	tier2Err                   error
	panicOn                    string
	calls                      []string
}

func (p *fakeProbe) HasSuperAdmin(context.Context) (bool, error) {
	p.calls = append(p.calls, "has_super_admin")
	return p.superFast, p.superFastErr
}

func (p *fakeProbe) ExistsAdmin(context.Context) (bool, error) {
	p.calls = append(p.calls, "exists_admin")
	return p.adminFast, p.adminFastErr
}

func (p *fakeProbe) ProfileWithRole(_ context.Context, role string) (bool, error) {
	p.calls = append(p.calls, "profiles:"+role)
	if p.panicOn == role {
		panic("driver exploded")
	}
	return p.profiles[role], p.tier2Err
}

func (p *fakeProbe) RoleAssignment(_ context.Context, role string) (bool, error) {
	p.calls = append(p.calls, "user_roles:"+role)
	return p.assignments[role], p.tier2Err
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name         string
		super, admin bool
		want         InitStatus
	}{
		{"no super admin", false, false, InitStatus{Step: StepChecked, ShowDevModal: true, ShowSuperAdminModal: true}},
		{"admin without super admin", false, true, InitStatus{Step: StepChecked, ShowDevModal: true, ShowSuperAdminModal: true}},
		{"super admin only", true, false, InitStatus{Step: StepChecked, ShowAdminModal: true}},
		{"both", true, true, InitStatus{Step: StepChecked, ShowAuthModal: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.super, tt.admin))
		})
	}
}

func TestCheckFastPath(t *testing.T) {
	probe := &fakeProbe{superFast: true, adminFast: true}
	status := NewChecker(probe, nil).Check(context.Background())

	assert.True(t, status.ShowAuthModal)
	assert.Equal(t, []string{"has_super_admin", "exists_admin"}, probe.calls)
}

func TestCheckFallsBackWhenProceduresMissing(t *testing.T) {
	missing := errors.New("function does not exist")
	probe := &fakeProbe{
		superFastErr: missing,
		adminFastErr: missing,
		profiles:     map[string]bool{model.RoleSuperAdmin: true},
		assignments:  map[string]bool{model.RoleAdmin: true},
	}
	status := NewChecker(probe, nil).Check(context.Background())

	assert.Equal(t, InitStatus{Step: StepChecked, ShowAuthModal: true}, status)
	assert.Equal(t, []string{
		"has_super_admin", "profiles:super_admin",
		"exists_admin", "profiles:admin", "user_roles:admin",
	}, probe.calls)
}

func TestCheckFalseFastPathStillConsultsTables(t *testing.T) {
	probe := &fakeProbe{assignments: map[string]bool{model.RoleSuperAdmin: true}}
	status := NewChecker(probe, nil).Check(context.Background())

	assert.True(t, status.ShowAdminModal)
	assert.False(t, status.ShowSuperAdminModal)
}

func TestCheckEmptyInstallation(t *testing.T) {
	status := NewChecker(&fakeProbe{}, nil).Check(context.Background())
	assert.True(t, status.ShowDevModal)
	assert.True(t, status.ShowSuperAdminModal)
}

func TestCheckErrorSettlesWithoutFlags(t *testing.T) {
	probe := &fakeProbe{tier2Err: errors.New("permission denied")}
	status := NewChecker(probe, nil).Check(context.Background())
	assert.Equal(t, InitStatus{Step: StepChecked}, status)
}

func TestCheckRecoversFromPanic(t *testing.T) {
	probe := &fakeProbe{superFast: true, panicOn: model.RoleAdmin}
	status := NewChecker(probe, nil).Check(context.Background())
	assert.Equal(t, InitStatus{Step: StepChecked}, status)
}

func TestGormProbe(t *testing.T) {
	db, mock := testutil.NewGormMock(t)
	probe := NewGormProbe(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT has_super_admin\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"has_super_admin"}).AddRow(true))
	mock.ExpectQuery(`SELECT exists_admin\(\)`).
		WillReturnError(errors.New(`function exists_admin() does not exist`))
	mock.ExpectQuery(`FROM "profiles" WHERE role = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`FROM "user_roles" WHERE role = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("r1"))

	ok, err := probe.HasSuperAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = probe.ExistsAdmin(ctx)
	assert.Error(t, err)

	ok, err = probe.ProfileWithRole(ctx, model.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = probe.RoleAssignment(ctx, model.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}
