package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/hackathon-range/shop-backend/internal/config"
	"github.com/hackathon-range/shop-backend/internal/model"
	"github.com/hackathon-range/shop-backend/internal/queue"
	"github.com/hackathon-range/shop-backend/internal/repository"
	"github.com/hackathon-range/shop-backend/internal/utils"
)

type stubUsers struct{ byName map[string]model.User }

func newStubUsers(users ...model.User) *stubUsers {
	s := &stubUsers{byName: map[string]model.User{}}
	for _, u := range users {
		s.byName[u.Username] = u
	}
	return s
}

func (s *stubUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	for _, u := range s.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *stubUsers) GetByUsername(_ context.Context, name string) (model.User, error) {
	if u, ok := s.byName[name]; ok {
		return u, nil
	}
	return model.User{}, repository.ErrNotFound
}

type stubLedger struct {
	lines []model.LedgerLine
	err   error
}

// ScoringLines mirrors the repository filter.
func (s *stubLedger) ScoringLines(_ context.Context, userID uint64) ([]model.LedgerLine, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []model.LedgerLine
	for _, l := range s.lines {
		owned := l.BuyerID != nil && *l.BuyerID == userID && l.OrderTotal == 0
		sold := l.BuyerID != nil && *l.BuyerID != userID && l.PayableTo == userID
		if owned || sold {
			out = append(out, l)
		}
	}
	return out, nil
}

type stubCatalog struct {
	desc  string
	found bool
}

func (s stubCatalog) UnreleasedDescription(context.Context) (string, bool, error) {
	return s.desc, s.found, nil
}

// stubAnswers emulates the guarded upsert of the MySQL store.
type stubAnswers struct {
	mu          sync.Mutex
	seq         uint64
	submissions []map[string]string
	aggs        map[uint64]model.ScoreAggregate
	err         error
}

func newStubAnswers() *stubAnswers { return &stubAnswers{aggs: map[uint64]model.ScoreAggregate{}} }

func (s *stubAnswers) SaveGraded(_ context.Context, userID uint64, answers map[string]string, b model.ScoreBreakdown) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.seq++
	s.submissions = append(s.submissions, answers)
	if cur, ok := s.aggs[userID]; !ok || s.seq > cur.SubmissionID {
		s.aggs[userID] = model.ScoreAggregate{UserID: userID, SubmissionID: s.seq, Breakdown: b, TotalPoints: b.Total()}
	}
	return s.seq, nil
}

func (s *stubAnswers) GetScore(_ context.Context, userID uint64) (model.ScoreAggregate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	agg, ok := s.aggs[userID]
	return agg, ok, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
}

func (p *recordingPublisher) Publish(ev queue.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) ofType(t string) []queue.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []queue.Event
	for _, ev := range p.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func strptr(s string) *string { return &s }
func u64(v uint64) *uint64    { return &v }

var errBoom = errors.New("boom")

// fixture is four participants plus an admin, each participant with a
// seeded secret.
type fixture struct {
	users   *stubUsers
	ledger  *stubLedger
	answers *stubAnswers
	events  *recordingPublisher
	engine  *Engine
}

func newFixture() *fixture {
	users := newStubUsers(
		model.User{ID: 1, Username: "admin", Role: model.RoleAdmin},
		model.User{ID: 2, Username: "Hackors1", Role: model.RoleCustomer, PII: strptr("Blue Heron 42")},
		model.User{ID: 3, Username: "Hackors2", Role: model.RoleCustomer, PII: strptr("  Marmalade  ")},
		model.User{ID: 4, Username: "Hackors3", Role: model.RoleCustomer, PII: strptr("copper kettle")},
		model.User{ID: 5, Username: "Hackors4", Role: model.RoleCustomer},
	)
	f := &fixture{users: users, ledger: &stubLedger{}, answers: newStubAnswers(), events: &recordingPublisher{}}
	cfg := config.ScoringConfig{
		Participants:            []string{"Hackors1", "Hackors2", "Hackors3", "Hackors4"},
		CTFFlag:                 config.DefaultCTFFlag,
		CTFFlagPoints:           5000000,
		PIIPoints:               1000000,
		UnreleasedProductPoints: 2500000,
	}
	f.engine = NewEngine(cfg, users, f.ledger, stubCatalog{desc: "Foldable quadcopter", found: true}, f.answers, f.events)
	return f
}

func (f *fixture) who(name string) utils.Identity {
	u := f.users.byName[name]
	return utils.Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func hasKeyFold(m map[string]string, key string) bool {
	for k := range m {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}
