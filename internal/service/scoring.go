package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/hackathon-range/shop-backend/internal/config"
	"github.com/hackathon-range/shop-backend/internal/model"
	"github.com/hackathon-range/shop-backend/internal/queue"
	"github.com/hackathon-range/shop-backend/internal/repository"
	"github.com/hackathon-range/shop-backend/internal/utils"
)

// UserReader is the part of the credential store the engine reads.
type UserReader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
}

// LedgerReader yields the order lines relevant to one participant.
type LedgerReader interface {
	ScoringLines(ctx context.Context, userID uint64) ([]model.LedgerLine, error)
}

// CatalogReader yields the canonical answer of the unreleased product
// question.
type CatalogReader interface {
	UnreleasedDescription(ctx context.Context) (string, bool, error)
}

// AnswerStore persists graded submissions.
type AnswerStore interface {
	SaveGraded(ctx context.Context, userID uint64, answers map[string]string, b model.ScoreBreakdown) (uint64, error)
	GetScore(ctx context.Context, userID uint64) (model.ScoreAggregate, bool, error)
}

// EventPublisher receives scoring events.  Publishing is best effort and
// must not block.
type EventPublisher interface {
	Publish(ev queue.Event)
}

// Engine grades answer submissions and computes the scoreboard.
type Engine struct {
	cfg     config.ScoringConfig
	users   UserReader
	ledger  LedgerReader
	catalog CatalogReader
	answers AnswerStore
	events  EventPublisher
	now     func() time.Time
}

// NewEngine wires an Engine.  events may be nil.
func NewEngine(cfg config.ScoringConfig, users UserReader, ledger LedgerReader, catalog CatalogReader, answers AnswerStore, events EventPublisher) *Engine {
	if events == nil {
		events = nopPublisher{}
	}
	return &Engine{
		cfg:     cfg,
		users:   users,
		ledger:  ledger,
		catalog: catalog,
		answers: answers,
		events:  events,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Participants returns the configured roster in scoreboard order.
func (e *Engine) Participants() []string { return e.cfg.Participants }

// Graded is the outcome of a submission.
type Graded struct {
	SubmissionID uint64
	Scores       model.ScoreBreakdown
	TotalPoints  int
}

// Submit strips the submitter's own PII question, grades what is left,
// and persists the submission together with the new aggregate.  The
// aggregate is replaced, never merged, and only when this submission is
// the newest one stored for the user.
func (e *Engine) Submit(ctx context.Context, who utils.Identity, answers Answers) (Graded, error) {
	if answers == nil {
		return Graded{}, Errorf(InvalidInput, "answers must be an object")
	}
	user, err := e.users.GetByID(ctx, who.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return Graded{}, Errorf(NotFound, "participant not found")
	}
	if err != nil {
		return Graded{}, Wrap(StorageError, err, "load participant")
	}

	answers = e.stripSelf(user, answers)

	scores, err := e.grade(ctx, user, answers)
	if err != nil {
		return Graded{}, err
	}
	id, err := e.answers.SaveGraded(ctx, user.ID, answers.Plain(), scores)
	if err != nil {
		return Graded{}, Wrap(StorageError, err, "save submission")
	}

	out := Graded{SubmissionID: id, Scores: scores, TotalPoints: scores.Total()}
	e.events.Publish(queue.Event{
		Type:         queue.TypeAnswersGraded,
		UserID:       user.ID,
		Username:     user.Username,
		SubmissionID: id,
		Scores: &queue.Scores{
			CTFFlagPoints:           scores.CTFFlagPoints,
			PIIPoints:               scores.PIIPoints,
			UnreleasedProductPoints: scores.UnreleasedProductPoints,
			TotalPoints:             out.TotalPoints,
		},
		OccurredAt: e.now().Format(time.RFC3339),
	})
	return out, nil
}

// stripSelf removes every key that names the submitter's own PII
// question, in any letter case.  The returned map is a copy.
func (e *Engine) stripSelf(user model.User, answers Answers) Answers {
	own := string(PIIQuestion(user.Username))
	out := make(Answers, len(answers))
	for k, v := range answers {
		if strings.EqualFold(string(k), own) {
			log.Printf("scoring: suspicious self-scoring attempt by %q (user_id=%d key=%q) discarded", user.Username, user.ID, k)
			e.events.Publish(queue.Event{
				Type:       queue.TypeSelfAttempt,
				UserID:     user.ID,
				Username:   user.Username,
				Key:        string(k),
				OccurredAt: e.now().Format(time.RFC3339),
			})
			continue
		}
		out[k] = v
	}
	return out
}

func (e *Engine) grade(ctx context.Context, user model.User, answers Answers) (model.ScoreBreakdown, error) {
	var b model.ScoreBreakdown

	if v, ok := answers[QuestionCTFFlag]; ok && matches(v, e.cfg.CTFFlag) {
		b.CTFFlagPoints = e.cfg.CTFFlagPoints
	}

	if v, ok := answers[QuestionUnreleasedProduct]; ok {
		desc, found, err := e.catalog.UnreleasedDescription(ctx)
		if err != nil {
			return b, Wrap(StorageError, err, "load unreleased product")
		}
		if found && matches(v, desc) {
			b.UnreleasedProductPoints = e.cfg.UnreleasedProductPoints
		}
	}

	for _, name := range e.cfg.Participants {
		if strings.EqualFold(name, user.Username) {
			continue
		}
		v, ok := answers[PIIQuestion(name)]
		if !ok {
			continue
		}
		other, err := e.users.GetByUsername(ctx, name)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return b, Wrap(StorageError, err, "load participant secret")
		}
		if other.ID == user.ID {
			continue
		}
		if matches(v, other.Secret()) {
			b.PIIPoints += e.cfg.PIIPoints
		}
	}
	return b, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(queue.Event) {}
