package handler

import (
	"context"
	"time"

	"github.com/hackathon-range/shop-backend/internal/model"
	"github.com/hackathon-range/shop-backend/internal/repository"
	"github.com/hackathon-range/shop-backend/internal/service"
	"github.com/hackathon-range/shop-backend/internal/utils"
)

// The interfaces below are the slices of the repositories and services
// each handler uses.  The concrete types in repository, service and utils
// satisfy them.

type UserStore interface {
	Create(ctx context.Context, nu repository.NewUser, cost int) (uint64, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, username string, upd repository.UserUpdate) (model.User, error)
	Delete(ctx context.Context, username string) error
}

type ProductStore interface {
	Create(ctx context.Context, p *model.Product) error
	GetByID(ctx context.Context, id uint64) (model.Product, error)
	List(ctx context.Context, f model.ProductFilter) ([]model.Product, error)
	Update(ctx context.Context, id uint64, upd repository.ProductUpdate) (model.Product, error)
	Delete(ctx context.Context, id uint64) error
}

type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, id uint64) (model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id uint64, status string) (model.Order, error)
}

type ForumStore interface {
	Create(ctx context.Context, title, body string, authorID uint64) (model.ForumMessage, error)
	GetByID(ctx context.Context, id uint64) (model.ForumMessage, error)
	List(ctx context.Context) ([]model.ForumMessage, error)
	Update(ctx context.Context, id uint64, title, body string) (model.ForumMessage, error)
	Delete(ctx context.Context, id uint64) error
}

type TokenIssuer interface {
	Issue(id utils.Identity) (utils.TokenPair, error)
	Refresh(refreshRaw string) (utils.SignedToken, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

type Scorer interface {
	Submit(ctx context.Context, who utils.Identity, answers service.Answers) (service.Graded, error)
	Scoreboard(ctx context.Context) ([]service.Standing, error)
}
