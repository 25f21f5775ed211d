package conversation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/billbot/internal/billing"
	"github.com/MrJamesThe3rd/billbot/internal/catalog"
	"github.com/MrJamesThe3rd/billbot/internal/draft"
)

// Catalog is the read-only project lookup the engine needs.
type Catalog interface {
	ListActive(ctx context.Context) ([]*catalog.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*catalog.Project, error)
}

// Effects are the side effects a turn asks its caller to perform.
type Effects struct {
	Email   *draft.Draft
	Records []billing.Record
}

func (e Effects) Empty() bool {
	return e.Email == nil && len(e.Records) == 0
}

// Result is the outcome of one turn.
type Result struct {
	Conversation Conversation
	Reply        string
	Effects      Effects
}

// Engine interprets user input against the current conversation state.
// It holds no per-conversation state and only reads from the catalog.
type Engine struct {
	catalog   Catalog
	recipient string
}

func NewEngine(c Catalog, recipient string) *Engine {
	return &Engine{catalog: c, recipient: recipient}
}

// HandleTurn computes the next conversation, the reply and any side effects
// for one inbound message. Malformed input never fails: it yields the same
// conversation and a corrective reply.
func (e *Engine) HandleTurn(ctx context.Context, c Conversation, text string) Result {
	c = c.Clone()
	text = strings.TrimSpace(text)

	switch c.State {
	case StateInitial:
		return e.handleInitial(c)
	case StateWaitingMonthYear:
		return e.handleMonthYear(ctx, c, text)
	case StateWaitingDays:
		return e.handleDays(ctx, c, text)
	case StateReview:
		return e.handleReview(c, text)
	case StateCompleted, StateCancelled:
		return e.handleFinished(c, text)
	}

	slog.Error("conversation in unknown state, resetting", "identity", c.Identity, "state", c.State)

	return e.handleInitial(c.Reset())
}

// Start resets c and applies the INITIAL transition, as a scheduled reminder does.
func (e *Engine) Start(c Conversation) Result {
	return e.handleInitial(c.Clone().Reset())
}

// DeliveryFailed is the result to use when the effects of a confirmed review
// could not be carried out: the conversation stays in REVIEW with its lines.
func DeliveryFailed(prev Conversation) Result {
	return Result{Conversation: prev.Clone(), Reply: msgDeliveryFailed}
}

func (e *Engine) handleInitial(c Conversation) Result {
	c.State = StateWaitingMonthYear

	return Result{Conversation: c, Reply: msgAskMonthYear}
}

func (e *Engine) handleMonthYear(ctx context.Context, c Conversation, text string) Result {
	month, year, problem := parseMonthYear(text)
	if problem != "" {
		return Result{Conversation: c, Reply: problem}
	}

	projects, err := e.catalog.ListActive(ctx)
	if err != nil {
		slog.Error("listing active projects", "identity", c.Identity, "error", err)
		return Result{Conversation: c, Reply: msgInternalError}
	}

	if len(projects) == 0 {
		return Result{Conversation: c.Reset(), Reply: msgNoActiveProjects}
	}

	ids := make([]uuid.UUID, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}

	c.Month = month
	c.Year = year
	c.ProjectIDs = ids
	c.Cursor = 0
	c.Lines = []billing.Line{}
	c.State = StateWaitingDays

	return Result{Conversation: c, Reply: askDays(projects[0].Name)}
}

func (e *Engine) handleDays(ctx context.Context, c Conversation, text string) Result {
	days, problem := parseDays(text)
	if problem != "" {
		return Result{Conversation: c, Reply: problem}
	}

	id, ok := c.CurrentProjectID()
	if !ok {
		slog.Error("cursor past project snapshot", "identity", c.Identity, "cursor", c.Cursor, "projects", len(c.ProjectIDs))
		return Result{Conversation: c, Reply: msgInternalError}
	}

	project, err := e.catalog.Get(ctx, id)
	if err != nil {
		slog.Error("resolving current project", "identity", c.Identity, "project_id", id, "error", err)
		return Result{Conversation: c, Reply: msgInternalError}
	}

	next := c
	if days.IsPositive() {
		next = next.withLine(billing.Line{
			ProjectName: project.Name,
			Rate:        project.Rate,
			Days:        days,
		})
	}

	next.Cursor++

	if next.Pending() {
		nextProject, err := e.catalog.Get(ctx, next.ProjectIDs[next.Cursor])
		if err != nil {
			slog.Error("resolving next project", "identity", c.Identity, "project_id", next.ProjectIDs[next.Cursor], "error", err)
			return Result{Conversation: c, Reply: msgInternalError}
		}

		return Result{Conversation: next, Reply: askDays(nextProject.Name)}
	}

	if len(next.Lines) == 0 {
		return Result{Conversation: next.Reset(), Reply: msgNothingEntered}
	}

	next.State = StateReview

	return Result{Conversation: next, Reply: draft.Preview(next.Month, next.Year, next.Lines)}
}

func (e *Engine) handleReview(c Conversation, text string) Result {
	switch text {
	case "1":
		return e.confirm(c)
	case "2":
		c = c.Reset()
		c.State = StateCancelled

		return Result{Conversation: c, Reply: msgCancelled}
	}

	return Result{Conversation: c, Reply: msgReviewChoice}
}

func (e *Engine) confirm(c Conversation) Result {
	d, err := draft.Build(c.Month, c.Year, c.Lines, e.recipient)
	if err != nil {
		slog.Error("building email draft", "identity", c.Identity, "error", err)
		return DeliveryFailed(c)
	}

	effects := Effects{
		Email:   &d,
		Records: billing.RecordsFromLines(c.Month, c.Year, c.Lines),
	}

	next := c.Clone()
	next.State = StateCompleted

	return Result{Conversation: next, Reply: msgEmailSent, Effects: effects}
}

func (e *Engine) handleFinished(c Conversation, text string) Result {
	if isRestart(text) {
		return e.handleInitial(c.Reset())
	}

	return Result{Conversation: c, Reply: msgTypeStart}
}
