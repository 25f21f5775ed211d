package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	expiredWith time.Duration
	resets      int
	started     []string
	countErr    error
}

func (f *fakeSessions) ExpireSessions(_ context.Context, maxIdle time.Duration) (int64, error) {
	f.expiredWith = maxIdle
	return 1, nil
}

func (f *fakeSessions) ResetAll(_ context.Context) (int64, error) {
	f.resets++
	return 4, nil
}

func (f *fakeSessions) ActiveSessions(_ context.Context) (int64, error) {
	return 2, f.countErr
}

func (f *fakeSessions) StartCycle(_ context.Context, identity string) error {
	f.started = append(f.started, identity)
	return nil
}

func TestIsLastDayOfMonth(t *testing.T) {
	type testCase struct {
		date string
		want bool
	}

	tests := []testCase{
		{date: "2024-01-31", want: true},
		{date: "2024-02-28", want: false},
		{date: "2024-02-29", want: true},
		{date: "2023-02-28", want: true},
		{date: "2024-04-30", want: true},
		{date: "2024-12-31", want: true},
		{date: "2024-12-01", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d, err := time.Parse("2006-01-02", tt.date)
			require.NoError(t, err)

			assert.Equal(t, tt.want, IsLastDayOfMonth(d))
		})
	}
}

func TestScheduler_MonthlyReminder(t *testing.T) {
	type testCase struct {
		name        string
		today       time.Time
		admin       string
		wantStarted []string
	}

	tests := []testCase{
		{name: "LastDay", today: time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC), admin: "whatsapp:+39123", wantStarted: []string{"whatsapp:+39123"}},
		{name: "OtherDay", today: time.Date(2024, 1, 30, 9, 0, 0, 0, time.UTC), admin: "whatsapp:+39123"},
		{name: "NoAdmin", today: time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &fakeSessions{}
			s := New(sessions, Config{AdminIdentity: tt.admin, Location: time.UTC})
			s.now = func() time.Time { return tt.today }

			s.MonthlyReminder(context.Background())

			assert.Equal(t, tt.wantStarted, sessions.started)
		})
	}
}

func TestScheduler_Jobs(t *testing.T) {
	sessions := &fakeSessions{countErr: errors.New("db down")}
	s := New(sessions, Config{SessionTimeout: 30 * time.Minute, Location: time.UTC})

	s.CleanupExpired(context.Background())
	s.ResetOnStartup(context.Background())
	s.DailyStats(context.Background())

	assert.Equal(t, 30*time.Minute, sessions.expiredWith)
	assert.Equal(t, 1, sessions.resets)
}

func TestScheduler_StartResetsWhenEnabled(t *testing.T) {
	sessions := &fakeSessions{}
	s := New(sessions, Config{ResetOnStartup: true, Location: time.UTC})

	require.NoError(t, s.Start(context.Background()))
	s.Stop()

	assert.Equal(t, 1, sessions.resets)
}
