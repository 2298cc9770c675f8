package otp

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/model"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/notify"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memStore struct {
	mu   sync.Mutex
	rows []*model.SMSValidation
	err  error
}

func (m *memStore) Create(_ context.Context, v *model.SMSValidation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	copied := *v
	m.rows = append(m.rows, &copied)
	return nil
}

func (m *memStore) LatestPending(_ context.Context, userID string, now time.Time) (*model.SMSValidation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pending []*model.SMSValidation
	for _, v := range m.rows {
		if v.UserID == userID && !v.IsUsed && v.ExpiresAt.After(now) {
			pending = append(pending, v)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].CreatedAt.After(pending[j].CreatedAt) })
	copied := *pending[0]
	return &copied, nil
}

func (m *memStore) MarkUsed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.rows {
		if v.ID == id {
			v.IsUsed = true
		}
	}
	return nil
}

func (m *memStore) ConsumeAttempt(_ context.Context, id string, limit int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.rows {
		if v.ID == id && v.Attempts < limit {
			v.Attempts++
			return true, nil
		}
	}
	return false, nil
}

type recordingSender struct {
	messages []string
}

func (s *recordingSender) SendSMS(_ context.Context, _, message string, opts notify.Options) notify.Result {
	s.messages = append(s.messages, message)
	return notify.Result{Success: true, Provider: opts.Provider}
}

var codePattern = regexp.MustCompile(`\d{6}`)

func (s *recordingSender) lastCode() string {
	return codePattern.FindString(s.messages[len(s.messages)-1])
}

type fixture struct {
	store  *memStore
	sender *recordingSender
	svc    *Service
	clock  time.Time
}

func newFixture() *fixture {
	f := &fixture{store: &memStore{}, sender: &recordingSender{}, clock: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	f.svc = NewService(f.store, f.sender, 10*time.Minute, 0, nil)
	f.svc.cost = bcrypt.MinCost
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func TestIssueAndVerify(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.svc.Issue(ctx, "u1", "+22507000000", notify.Options{Provider: notify.ProviderLog})
	require.NoError(t, err)
	assert.True(t, result.Success)

	require.Len(t, f.store.rows, 1)
	row := f.store.rows[0]
	code := f.sender.lastCode()
	assert.Len(t, code, CodeLength)
	assert.NotEqual(t, code, row.CodeHash)
	assert.Equal(t, f.clock.Add(10*time.Minute), row.ExpiresAt)
	assert.Contains(t, f.sender.messages[0], "10 minutes")

	require.NoError(t, f.svc.Verify(ctx, "u1", code))
	assert.True(t, f.store.rows[0].IsUsed)

	assert.ErrorIs(t, f.svc.Verify(ctx, "u1", code), ErrInvalidCode)
}

func TestVerifyRejectsWrongCode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Issue(ctx, "u1", "225", notify.Options{})
	require.NoError(t, err)

	wrong := "000000"
	if f.sender.lastCode() == wrong {
		wrong = "111111"
	}
	assert.ErrorIs(t, f.svc.Verify(ctx, "u1", wrong), ErrInvalidCode)
	assert.False(t, f.store.rows[0].IsUsed)
	assert.ErrorIs(t, f.svc.Verify(ctx, "u2", f.sender.lastCode()), ErrInvalidCode)
}

func TestCodeLocksAfterMaxAttempts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Issue(ctx, "u1", "225", notify.Options{})
	require.NoError(t, err)
	code := f.sender.lastCode()

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	for i := 0; i < DefaultMaxAttempts; i++ {
		assert.ErrorIs(t, f.svc.Verify(ctx, "u1", wrong), ErrInvalidCode)
	}
	assert.Equal(t, DefaultMaxAttempts, f.store.rows[0].Attempts)

	assert.ErrorIs(t, f.svc.Verify(ctx, "u1", code), ErrInvalidCode)
	assert.False(t, f.store.rows[0].IsUsed)

	// a fresh code starts a new budget
	f.clock = f.clock.Add(time.Minute)
	_, err = f.svc.Issue(ctx, "u1", "225", notify.Options{})
	require.NoError(t, err)
	assert.NoError(t, f.svc.Verify(ctx, "u1", f.sender.lastCode()))
}

func TestConcurrentGuessesRespectLimit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Issue(ctx, "u1", "225", notify.Options{})
	require.NoError(t, err)
	code := f.sender.lastCode()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.svc.Verify(ctx, "u1", "999999x")
		}()
	}
	wg.Wait()

	f.store.mu.Lock()
	attempts := f.store.rows[0].Attempts
	f.store.mu.Unlock()
	assert.Equal(t, DefaultMaxAttempts, attempts)
	assert.ErrorIs(t, f.svc.Verify(ctx, "u1", code), ErrInvalidCode)
}

func TestVerifyRejectsExpiredCode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Issue(ctx, "u1", "225", notify.Options{})
	require.NoError(t, err)

	f.clock = f.clock.Add(11 * time.Minute)
	assert.ErrorIs(t, f.svc.Verify(ctx, "u1", f.sender.lastCode()), ErrInvalidCode)
}

func TestOnlyLatestCodeCounts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, "u1", "225", notify.Options{})
	require.NoError(t, err)
	first := f.sender.lastCode()

	f.clock = f.clock.Add(time.Minute)
	_, err = f.svc.Issue(ctx, "u1", "225", notify.Options{})
	require.NoError(t, err)
	second := f.sender.lastCode()

	if first != second {
		assert.ErrorIs(t, f.svc.Verify(ctx, "u1", first), ErrInvalidCode)
	}
	assert.NoError(t, f.svc.Verify(ctx, "u1", second))
}

func TestIssueStoreError(t *testing.T) {
	f := newFixture()
	f.store.err = errors.New("insert failed")

	_, err := f.svc.Issue(context.Background(), "u1", "225", notify.Options{})
	assert.Error(t, err)
	assert.Empty(t, f.sender.messages)
}

func TestGormStore(t *testing.T) {
	db, mock := testutil.NewGormMock(t)
	store := NewGormStore(db)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO "sms_validations"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "sms_validations" WHERE user_id = \$1 AND is_used = \$2 AND expires_at > \$3 ORDER BY created_at desc`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "code_hash"}).AddRow("v1", "u1", "hash"))
	mock.ExpectExec(`UPDATE "sms_validations" SET "attempts"=attempts \+ \$1 WHERE id = \$2 AND attempts < \$3`).
		WithArgs(1, "v1", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "sms_validations" SET "attempts"=attempts \+ \$1 WHERE id = \$2 AND attempts < \$3`).
		WithArgs(1, "v1", 5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE "sms_validations" SET "is_used"=\$1 WHERE id = \$2`).
		WithArgs(true, "v1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Create(ctx, &model.SMSValidation{ID: "v1", UserID: "u1", ExpiresAt: now}))

	pending, err := store.LatestPending(ctx, "u1", now)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, "hash", pending.CodeHash)

	allowed, err := store.ConsumeAttempt(ctx, "v1", 5)
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, err = store.ConsumeAttempt(ctx, "v1", 5)
	require.NoError(t, err)
	assert.False(t, allowed)

	require.NoError(t, store.MarkUsed(ctx, "v1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
