package service

import (
	"context"
	"errors"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/hackathon-range/shop-backend/internal/model"
	"github.com/hackathon-range/shop-backend/internal/repository"
	"github.com/hackathon-range/shop-backend/internal/utils"
)

// Standing is one scoreboard row.
type Standing struct {
	TeamID             uint64               `json:"teamId"`
	TeamName           string               `json:"teamName"`
	DynamicScore       float64              `json:"dynamicScore"`
	FixedQuestionScore int                  `json:"fixedQuestionScore"`
	Breakdown          model.ScoreBreakdown `json:"breakdown"`
	TotalScore         float64              `json:"totalScore"`
}

// DynamicScore applies the ledger rules for userID to lines:
//
//   - a line of a zero-total order the user bought earns price×quantity,
//     or loses it when the product is a honeypot;
//   - a line payable to the user earns price×quantity when another
//     registered user placed the order.  Anonymous orders never credit
//     the payee, otherwise a logged-out checkout would be a self sale.
//
// Lines matching neither rule are ignored.  The result is rounded to two
// decimals.
func DynamicScore(userID uint64, lines []model.LedgerLine) float64 {
	var sum float64
	for _, l := range lines {
		boughtByUser := l.BuyerID != nil && *l.BuyerID == userID
		boughtByOther := l.BuyerID != nil && *l.BuyerID != userID
		switch {
		case boughtByUser && l.OrderTotal == 0:
			if l.Honeypot {
				sum -= l.Amount()
			} else {
				sum += l.Amount()
			}
		case boughtByOther && l.PayableTo == userID:
			sum += l.Amount()
		}
	}
	return utils.Round2(sum)
}

// Scoreboard computes every configured participant's standing from the
// current ledger and stored aggregates.  Participants are scored
// concurrently, each with its own reads, and returned in roster order.
// A participant without a user record is skipped.
func (e *Engine) Scoreboard(ctx context.Context) ([]Standing, error) {
	rows := make([]*Standing, len(e.cfg.Participants))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range e.cfg.Participants {
		g.Go(func() error {
			s, err := e.standing(gctx, name)
			if err != nil {
				return err
			}
			rows[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Wrap(StorageError, err, "compute scoreboard")
	}

	out := make([]Standing, 0, len(rows))
	for _, s := range rows {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (e *Engine) standing(ctx context.Context, name string) (*Standing, error) {
	user, err := e.users.GetByUsername(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		log.Printf("scoreboard: participant %q has no user record, skipping", name)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	lines, err := e.ledger.ScoringLines(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	agg, _, err := e.answers.GetScore(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	dynamic := DynamicScore(user.ID, lines)
	return &Standing{
		TeamID:             user.ID,
		TeamName:           user.Username,
		DynamicScore:       dynamic,
		FixedQuestionScore: agg.TotalPoints,
		Breakdown:          agg.Breakdown,
		TotalScore:         utils.Round2(dynamic + float64(agg.TotalPoints)),
	}, nil
}
