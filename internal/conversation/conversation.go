// Package conversation holds the billing chat state machine: the per-identity
// conversation value, the turn engine and the storage contract around it.
package conversation

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/billbot/internal/billing"
)

var (
	ErrNotFound      = errors.New("conversation not found")
	ErrEmptyIdentity = errors.New("identity is empty")
)

const channelPrefix = "whatsapp:"

// CanonicalIdentity returns the form conversations are keyed by: trimmed and
// carrying the whatsapp: prefix, so "+39..." and "whatsapp:+39..." are the
// same sender.
func CanonicalIdentity(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", ErrEmptyIdentity
	}

	if strings.HasPrefix(id, channelPrefix) {
		return id, nil
	}

	return channelPrefix + id, nil
}

type State string

const (
	StateInitial          State = "INITIAL"
	StateWaitingMonthYear State = "WAITING_MONTH_YEAR"
	StateWaitingDays      State = "WAITING_DAYS"
	StateReview           State = "REVIEW"
	StateCompleted        State = "COMPLETED"
	StateCancelled        State = "CANCELLED"
)

func (s State) Valid() bool {
	switch s {
	case StateInitial, StateWaitingMonthYear, StateWaitingDays, StateReview, StateCompleted, StateCancelled:
		return true
	}

	return false
}

// Conversation is one identity's progress through a billing cycle.
// It is treated as a value: the engine never mutates the slices it receives
// and always returns a fresh copy.
type Conversation struct {
	Identity    string
	State       State
	Month       string
	Year        string
	ProjectIDs  []uuid.UUID
	Cursor      int
	Lines       []billing.Line
	CreatedAt   time.Time
	LastUpdated time.Time
}

// New returns a fresh conversation in the INITIAL state.
func New(identity string, now time.Time) Conversation {
	return Conversation{
		Identity:    identity,
		State:       StateInitial,
		ProjectIDs:  []uuid.UUID{},
		Lines:       []billing.Line{},
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// Reset clears the cycle data, keeping identity and timestamps.
func (c Conversation) Reset() Conversation {
	c.State = StateInitial
	c.Month = ""
	c.Year = ""
	c.ProjectIDs = []uuid.UUID{}
	c.Cursor = 0
	c.Lines = []billing.Line{}

	return c
}

// Pending reports whether projects remain to be asked about.
func (c Conversation) Pending() bool {
	return c.Cursor < len(c.ProjectIDs)
}

// CurrentProjectID returns the project awaiting a days answer.
func (c Conversation) CurrentProjectID() (uuid.UUID, bool) {
	if !c.Pending() || c.Cursor < 0 {
		return uuid.Nil, false
	}

	return c.ProjectIDs[c.Cursor], true
}

func (c Conversation) withLine(l billing.Line) Conversation {
	lines := make([]billing.Line, len(c.Lines), len(c.Lines)+1)
	copy(lines, c.Lines)
	c.Lines = append(lines, l)

	return c
}

// Clone returns a deep copy so callers can hand the value out safely.
func (c Conversation) Clone() Conversation {
	c.ProjectIDs = slices.Clone(c.ProjectIDs)
	c.Lines = slices.Clone(c.Lines)

	if c.ProjectIDs == nil {
		c.ProjectIDs = []uuid.UUID{}
	}

	if c.Lines == nil {
		c.Lines = []billing.Line{}
	}

	return c
}
