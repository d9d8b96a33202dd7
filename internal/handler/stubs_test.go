package handler

import (
	"context"
	"errors"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hackathon-range/shop-backend/internal/middleware"
	"github.com/hackathon-range/shop-backend/internal/model"
	"github.com/hackathon-range/shop-backend/internal/repository"
	"github.com/hackathon-range/shop-backend/internal/service"
	"github.com/hackathon-range/shop-backend/internal/utils"
)

type memUsers struct {
	mu     sync.Mutex
	byID   map[uint64]model.User
	nextID uint64
}

func newMemUsers(users ...model.User) *memUsers {
	m := &memUsers{byID: map[uint64]model.User{}, nextID: 1}
	for _, u := range users {
		m.byID[u.ID] = u
		if u.ID >= m.nextID {
			m.nextID = u.ID + 1
		}
	}
	return m
}

func (m *memUsers) Create(_ context.Context, nu repository.NewUser, cost int) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Username == nu.Username {
			return 0, repository.ErrUsernameExists
		}
	}
	hash, err := utils.HashPassword(nu.Password, cost)
	if err != nil {
		return 0, err
	}
	id := m.nextID
	m.nextID++
	m.byID[id] = model.User{ID: id, Username: nu.Username, PasswordHash: hash, Role: nu.Role, Name: nu.Name, PII: nu.PII}
	return id, nil
}

func (m *memUsers) GetByUsername(_ context.Context, name string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Username == name {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) List(context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUsers) Update(ctx context.Context, name string, upd repository.UserUpdate) (model.User, error) {
	u, err := m.GetByUsername(ctx, name)
	if err != nil {
		return u, err
	}
	if upd.Name != nil {
		u.Name = upd.Name
	}
	if upd.PII != nil {
		u.PII = upd.PII
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	m.mu.Lock()
	m.byID[u.ID] = u
	m.mu.Unlock()
	return u, nil
}

func (m *memUsers) Delete(ctx context.Context, name string) error {
	u, err := m.GetByUsername(ctx, name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.byID, u.ID)
	m.mu.Unlock()
	return nil
}

type memProducts struct {
	mu     sync.Mutex
	items  map[uint64]model.Product
	nextID uint64
	err    error
}

func newMemProducts(ps ...model.Product) *memProducts {
	m := &memProducts{items: map[uint64]model.Product{}, nextID: 1}
	for _, p := range ps {
		m.items[p.ID] = p
		if p.ID >= m.nextID {
			m.nextID = p.ID + 1
		}
	}
	return m
}

func (m *memProducts) Create(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextID
	m.nextID++
	m.items[p.ID] = *p
	return nil
}

func (m *memProducts) GetByID(_ context.Context, id uint64) (model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.Product{}, m.err
	}
	p, ok := m.items[id]
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	return p, nil
}

func (m *memProducts) List(_ context.Context, f model.ProductFilter) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Product
	for _, p := range m.items {
		if f.Allows(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memProducts) Update(ctx context.Context, id uint64, upd repository.ProductUpdate) (model.Product, error) {
	p, err := m.GetByID(ctx, id)
	if err != nil {
		return p, err
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	m.mu.Lock()
	m.items[id] = p
	m.mu.Unlock()
	return p, nil
}

func (m *memProducts) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type memOrders struct {
	mu     sync.Mutex
	items  map[uint64]model.Order
	nextID uint64
}

func newMemOrders() *memOrders { return &memOrders{items: map[uint64]model.Order{}, nextID: 1} }

func (m *memOrders) Create(_ context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.nextID
	m.nextID++
	o.Status = model.OrderPending
	m.items[o.ID] = *o
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id uint64) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) List(context.Context) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Order{}
	for _, o := range m.items {
		out = append(out, o)
	}
	return out, nil
}

func (m *memOrders) UpdateStatus(ctx context.Context, id uint64, status string) (model.Order, error) {
	o, err := m.GetByID(ctx, id)
	if err != nil {
		return o, err
	}
	o.Status = status
	m.mu.Lock()
	m.items[id] = o
	m.mu.Unlock()
	return o, nil
}

type memForum struct {
	mu     sync.Mutex
	items  map[uint64]model.ForumMessage
	nextID uint64
}

func newMemForum() *memForum { return &memForum{items: map[uint64]model.ForumMessage{}, nextID: 1} }

func (m *memForum) Create(_ context.Context, title, body string, authorID uint64) (model.ForumMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := model.ForumMessage{ID: m.nextID, Title: title, Body: body, AuthorID: authorID, CreatedAt: time.Now()}
	m.nextID++
	m.items[msg.ID] = msg
	return msg, nil
}

func (m *memForum) GetByID(_ context.Context, id uint64) (model.ForumMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.items[id]
	if !ok {
		return msg, repository.ErrNotFound
	}
	return msg, nil
}

func (m *memForum) List(context.Context) ([]model.ForumMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.ForumMessage{}
	for _, msg := range m.items {
		out = append(out, msg)
	}
	return out, nil
}

func (m *memForum) Update(ctx context.Context, id uint64, title, body string) (model.ForumMessage, error) {
	msg, err := m.GetByID(ctx, id)
	if err != nil {
		return msg, err
	}
	if title != "" {
		msg.Title = title
	}
	if body != "" {
		msg.Body = body
	}
	m.mu.Lock()
	m.items[id] = msg
	m.mu.Unlock()
	return msg, nil
}

func (m *memForum) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

// stubTokens issues "access:<username>" style tokens.
type stubTokens struct{}

func (stubTokens) Issue(id utils.Identity) (utils.TokenPair, error) {
	return utils.TokenPair{
		Access:  utils.SignedToken{Token: "access:" + id.Username},
		Refresh: utils.SignedToken{Token: "refresh:" + id.Username},
	}, nil
}

func (stubTokens) Refresh(raw string) (utils.SignedToken, error) {
	if !strings.HasPrefix(raw, "refresh:") {
		return utils.SignedToken{}, utils.ErrTokenInvalid
	}
	return utils.SignedToken{Token: "access:" + strings.TrimPrefix(raw, "refresh:")}, nil
}

func (stubTokens) AccessTTL() time.Duration  { return 15 * time.Minute }
func (stubTokens) RefreshTTL() time.Duration { return 12 * time.Hour }

type stubScorer struct {
	graded    service.Graded
	err       error
	board     []service.Standing
	submitted service.Answers
	who       utils.Identity
}

func (s *stubScorer) Submit(_ context.Context, who utils.Identity, answers service.Answers) (service.Graded, error) {
	s.who, s.submitted = who, answers
	return s.graded, s.err
}

func (s *stubScorer) Scoreboard(context.Context) ([]service.Standing, error) { return s.board, s.err }

var errBoom = errors.New("boom")

// newCtx builds an echo context for a JSON request, attaching who when it
// is not the zero identity.
func newCtx(method, target, body string, who utils.Identity) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if who != (utils.Identity{}) {
		middleware.SetIdentity(c, who)
	}
	return c, rec
}

func withParams(c echo.Context, kv ...string) echo.Context {
	var names, values []string
	for i := 0; i+1 < len(kv); i += 2 {
		names = append(names, kv[i])
		values = append(values, kv[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c
}

var (
	adminID  = utils.Identity{UserID: 1, Username: "admin", Role: model.RoleAdmin}
	hackors1 = utils.Identity{UserID: 2, Username: "Hackors1", Role: model.RoleCustomer}
	hackors2 = utils.Identity{UserID: 3, Username: "Hackors2", Role: model.RoleCustomer}
)

func ptr[T any](v T) *T { return &v }
