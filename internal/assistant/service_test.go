package assistant_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/billbot/internal/assistant"
	"github.com/MrJamesThe3rd/billbot/internal/billing"
	"github.com/MrJamesThe3rd/billbot/internal/catalog"
	"github.com/MrJamesThe3rd/billbot/internal/conversation"
	"github.com/MrJamesThe3rd/billbot/internal/draft"
	"github.com/MrJamesThe3rd/billbot/internal/events"
)

const identity = "whatsapp:+39123456789"

var now = time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)

type fakeCatalog struct {
	projects []*catalog.Project
}

func (f *fakeCatalog) ListActive(_ context.Context) ([]*catalog.Project, error) {
	return f.projects, nil
}

func (f *fakeCatalog) Get(_ context.Context, id uuid.UUID) (*catalog.Project, error) {
	for _, p := range f.projects {
		if p.ID == id {
			return p, nil
		}
	}

	return nil, catalog.ErrNotFound
}

type fakeNotifier struct {
	sent []string
	to   []string
	err  error
}

func (f *fakeNotifier) SendText(_ context.Context, to, body string) (string, error) {
	if f.err != nil {
		return "", f.err
	}

	f.sent = append(f.sent, body)
	f.to = append(f.to, to)

	return "SM123", nil
}

type fakeMailer struct {
	sent []draft.Draft
	err  error
}

func (f *fakeMailer) Send(_ context.Context, d draft.Draft) (string, error) {
	if f.err != nil {
		return "", f.err
	}

	f.sent = append(f.sent, d)

	return "<msg@billbot>", nil
}

type fakePublisher struct {
	published []events.Completion
}

func (f *fakePublisher) PublishCompletion(_ context.Context, c events.Completion) error {
	f.published = append(f.published, c)
	return nil
}

type fixture struct {
	repo      *conversation.MockRepository
	turn      *conversation.MockTurnTx
	engine    *conversation.Engine
	notifier  *fakeNotifier
	mailer    *fakeMailer
	publisher *fakePublisher
	svc       *assistant.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := &fixture{
		repo: conversation.NewMockRepository(ctrl),
		turn: conversation.NewMockTurnTx(ctrl),
		engine: conversation.NewEngine(&fakeCatalog{projects: []*catalog.Project{
			{ID: uuid.New(), Name: "Acme", Rate: decimal.NewFromInt(250), Active: true},
			{ID: uuid.New(), Name: "Globex", Rate: decimal.NewFromInt(300), Active: true},
		}}, "client@example.com"),
		notifier:  &fakeNotifier{},
		mailer:    &fakeMailer{},
		publisher: &fakePublisher{},
	}

	f.svc = assistant.NewService(f.repo, f.engine, f.mailer, f.notifier, f.publisher).
		WithClock(func() time.Time { return now })

	return f
}

// advance runs inputs through the engine to build a stored conversation.
func (f *fixture) advance(inputs ...string) conversation.Conversation {
	c := conversation.New(identity, now.Add(-time.Hour))
	for _, in := range inputs {
		c = f.engine.HandleTurn(context.Background(), c, in).Conversation
	}

	return c
}

func (f *fixture) expectTurn(stored conversation.Conversation, getErr error) {
	f.repo.EXPECT().BeginTurn(gomock.Any(), identity).Return(f.turn, nil)
	f.turn.EXPECT().Get(gomock.Any()).Return(stored, getErr)
	f.turn.EXPECT().Rollback().Return(nil).AnyTimes()
}

func (f *fixture) expectSave() *conversation.Conversation {
	var saved conversation.Conversation

	f.turn.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c conversation.Conversation) error {
			saved = c
			return nil
		})
	f.turn.EXPECT().Commit().Return(nil)

	return &saved
}

// expectRecords makes the turn accept (or reject with err) one batch of
// records and returns the batches it received.
func (f *fixture) expectRecords(err error) *[][]billing.Record {
	var batches [][]billing.Record

	f.turn.EXPECT().CreateRecords(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, records []billing.Record) error {
			if err != nil {
				return err
			}

			for i := range records {
				records[i].ID = uuid.New()
				records[i].CreatedAt = now
			}

			batches = append(batches, records)

			return nil
		})

	return &batches
}

func TestService_SubmitMessage_NewConversation(t *testing.T) {
	f := newFixture(t)

	f.expectTurn(conversation.Conversation{}, conversation.ErrNotFound)
	saved := f.expectSave()

	err := f.svc.SubmitMessage(context.Background(), identity, "ciao")
	require.NoError(t, err)

	assert.Equal(t, identity, saved.Identity)
	assert.Equal(t, conversation.StateWaitingMonthYear, saved.State)
	assert.Equal(t, now, saved.CreatedAt)
	assert.Equal(t, now, saved.LastUpdated)

	require.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0], "Month and year?")
}

func TestService_SubmitMessage_ConfirmSendsEmailAndPersistsRecords(t *testing.T) {
	f := newFixture(t)

	f.expectTurn(f.advance("start", "Gennaio-2024", "5", "3"), nil)
	batches := f.expectRecords(nil)
	saved := f.expectSave()

	err := f.svc.SubmitMessage(context.Background(), identity, "1")
	require.NoError(t, err)

	assert.Equal(t, conversation.StateCompleted, saved.State)
	assert.Equal(t, now, saved.LastUpdated)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "Billing authorization Gennaio 2024", f.mailer.sent[0].Subject)
	assert.Contains(t, f.mailer.sent[0].HTMLBody, "&euro;2150.00")

	require.Len(t, *batches, 1)
	assert.Len(t, (*batches)[0], 2)
	assert.NotEqual(t, uuid.Nil, (*batches)[0][0].ID)

	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, "2150.00", f.publisher.published[0].GrandTotal.StringFixed(2))

	assert.Equal(t, []string{"Email sent!"}, f.notifier.sent)
}

func TestService_SubmitMessage_DeliveryFailureHoldsReview(t *testing.T) {
	type testCase struct {
		name      string
		mailErr   error
		recordErr error
		wantMails int
	}

	tests := []testCase{
		{name: "EmailRejected", mailErr: errors.New("smtp down"), wantMails: 0},
		{name: "RecordsRejected", recordErr: errors.New("db down"), wantMails: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.mailer.err = tt.mailErr

			review := f.advance("start", "Gennaio-2024", "5", "3")
			f.expectTurn(review, nil)

			if tt.mailErr == nil {
				f.expectRecords(tt.recordErr)
			}

			saved := f.expectSave()

			err := f.svc.SubmitMessage(context.Background(), identity, "1")
			require.NoError(t, err)

			assert.Equal(t, conversation.StateReview, saved.State)
			assert.Equal(t, review.Lines, saved.Lines)
			assert.Len(t, f.mailer.sent, tt.wantMails)
			assert.Empty(t, f.publisher.published)
			assert.Equal(t, []string{"Sending failed. Retry with 1"}, f.notifier.sent)
		})
	}
}

func TestService_SubmitMessage_StorageFailureSendsNoReply(t *testing.T) {
	type testCase struct {
		name  string
		setup func(f *fixture)
	}

	dbErr := errors.New("connection refused")

	tests := []testCase{
		{
			name: "BeginTurn",
			setup: func(f *fixture) {
				f.repo.EXPECT().BeginTurn(gomock.Any(), identity).Return(nil, dbErr)
			},
		},
		{
			name: "Get",
			setup: func(f *fixture) {
				f.expectTurn(conversation.Conversation{}, dbErr)
			},
		},
		{
			name: "Save",
			setup: func(f *fixture) {
				f.expectTurn(f.advance("start"), nil)
				f.turn.EXPECT().Save(gomock.Any(), gomock.Any()).Return(dbErr)
			},
		},
		{
			name: "Commit",
			setup: func(f *fixture) {
				f.expectTurn(f.advance("start"), nil)
				f.turn.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
				f.turn.EXPECT().Commit().Return(dbErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			err := f.svc.SubmitMessage(context.Background(), identity, "Gennaio-2024")

			require.Error(t, err)
			assert.ErrorIs(t, err, dbErr)
			assert.Empty(t, f.notifier.sent)
		})
	}
}

func TestService_SubmitMessage_CommitFailureKeepsRecordsUncommitted(t *testing.T) {
	f := newFixture(t)
	dbErr := errors.New("connection reset")

	f.repo.EXPECT().BeginTurn(gomock.Any(), identity).Return(f.turn, nil)
	f.turn.EXPECT().Get(gomock.Any()).Return(f.advance("start", "Gennaio-2024", "5", "3"), nil)
	f.expectRecords(nil)
	f.turn.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	f.turn.EXPECT().Commit().Return(dbErr)
	// Records were written through the turn, so rolling it back discards them.
	f.turn.EXPECT().Rollback().Return(nil).Times(1)

	err := f.svc.SubmitMessage(context.Background(), identity, "1")

	require.ErrorIs(t, err, dbErr)
	assert.Len(t, f.mailer.sent, 1)
	assert.Empty(t, f.publisher.published)
	assert.Empty(t, f.notifier.sent)
}

func TestService_ReminderAndReplyShareConversation(t *testing.T) {
	f := newFixture(t)

	var (
		begun  []string
		stored = map[string]conversation.Conversation{}
	)

	f.repo.EXPECT().BeginTurn(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id string) (conversation.TurnTx, error) {
			begun = append(begun, id)
			return f.turn, nil
		}).Times(2)
	f.turn.EXPECT().Get(gomock.Any()).
		DoAndReturn(func(context.Context) (conversation.Conversation, error) {
			c, ok := stored[begun[len(begun)-1]]
			if !ok {
				return conversation.Conversation{}, conversation.ErrNotFound
			}

			return c, nil
		}).Times(2)
	f.turn.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c conversation.Conversation) error {
			stored[c.Identity] = c
			return nil
		}).Times(2)
	f.turn.EXPECT().Commit().Return(nil).Times(2)
	f.turn.EXPECT().Rollback().Return(nil).AnyTimes()

	require.NoError(t, f.svc.StartCycle(context.Background(), "+39123456789"))
	require.NoError(t, f.svc.SubmitMessage(context.Background(), "whatsapp:+39123456789", "Gennaio-2024"))

	assert.Equal(t, []string{identity, identity}, begun)
	require.Len(t, stored, 1)
	assert.Equal(t, conversation.StateWaitingDays, stored[identity].State)
	assert.Equal(t, []string{identity, identity}, f.notifier.to)
}

func TestService_EmptyIdentityIsRejected(t *testing.T) {
	f := newFixture(t)

	err := f.svc.SubmitMessage(context.Background(), "  ", "ciao")
	assert.ErrorIs(t, err, conversation.ErrEmptyIdentity)

	err = f.svc.StartCycle(context.Background(), "")
	assert.ErrorIs(t, err, conversation.ErrEmptyIdentity)

	assert.Empty(t, f.notifier.sent)
}

func TestService_SubmitMessage_ReplyFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("twilio down")

	f.expectTurn(f.advance("start"), nil)
	saved := f.expectSave()

	err := f.svc.SubmitMessage(context.Background(), identity, "Gennaio-2024")
	require.NoError(t, err)

	assert.Equal(t, conversation.StateWaitingDays, saved.State)
}

func TestService_StartCycle(t *testing.T) {
	f := newFixture(t)

	f.expectTurn(f.advance("start", "Gennaio-2024", "5"), nil)
	saved := f.expectSave()

	err := f.svc.StartCycle(context.Background(), identity)
	require.NoError(t, err)

	assert.Equal(t, conversation.StateWaitingMonthYear, saved.State)
	assert.Empty(t, saved.Lines)
	assert.Empty(t, saved.ProjectIDs)
	assert.Equal(t, now, saved.LastUpdated)

	require.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0], "Month and year?")
}

func TestService_ExpireSessions(t *testing.T) {
	f := newFixture(t)

	f.repo.EXPECT().DeleteOlderThan(gomock.Any(), now.Add(-30*time.Minute)).Return(int64(3), nil)

	n, err := f.svc.ExpireSessions(context.Background(), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestService_ResetAllAndActiveSessions(t *testing.T) {
	f := newFixture(t)

	f.repo.EXPECT().DeleteAll(gomock.Any()).Return(int64(2), nil)
	f.repo.EXPECT().Count(gomock.Any()).Return(int64(0), errors.New("db down"))

	n, err := f.svc.ResetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = f.svc.ActiveSessions(context.Background())
	assert.Error(t, err)
}
