package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hackathon-range/shop-backend/internal/model"
	"github.com/hackathon-range/shop-backend/internal/service"
)

// SubmissionLister reads the append-only answer audit trail.
type SubmissionLister interface {
	ListSubmissions(ctx context.Context, userID uint64) ([]model.AnswerSubmission, error)
}

// ScoreHandler exposes answer submission, the public scoreboard and the
// admin view of a team's submission history.
type ScoreHandler struct {
	Engine Scorer
	Users  UserStore
	Audit  SubmissionLister
}

func NewScoreHandler(e Scorer, u UserStore, a SubmissionLister) *ScoreHandler {
	return &ScoreHandler{Engine: e, Users: u, Audit: a}
}

type submitReq struct {
	Answers json.RawMessage `json:"answers"`
}

type scoresView struct {
	CTFFlagPoints           int `json:"ctfFlagPoints"`
	PIIPoints               int `json:"piiPoints"`
	UnreleasedProductPoints int `json:"unreleasedProductPoints"`
	TotalPoints             int `json:"totalPoints"`
}

// SubmitAnswers grades {answers: {questionId: text}} for the caller and
// returns the new fixed-question breakdown.
func (h *ScoreHandler) SubmitAnswers(c echo.Context) error {
	who, _ := caller(c)
	var req submitReq
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return respondError(c, invalid("answers (object) is required"))
	}
	answers, err := service.ParseAnswers(req.Answers)
	if err != nil {
		return respondError(c, err)
	}
	graded, err := h.Engine.Submit(c.Request().Context(), who, answers)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Answers submitted successfully",
		"scores": scoresView{
			CTFFlagPoints:           graded.Scores.CTFFlagPoints,
			PIIPoints:               graded.Scores.PIIPoints,
			UnreleasedProductPoints: graded.Scores.UnreleasedProductPoints,
			TotalPoints:             graded.TotalPoints,
		},
	})
}

// Scores returns the scoreboard, recomputed on every call.
func (h *ScoreHandler) Scores(c echo.Context) error {
	board, err := h.Engine.Scoreboard(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, board)
}

type submissionView struct {
	ID        uint64            `json:"id"`
	Answers   map[string]string `json:"answers"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Submissions lists every answer set :username ever submitted, oldest
// first, including keys that were never graded (admin only).
func (h *ScoreHandler) Submissions(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	u, err := h.Users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		return respondError(c, classify(err, "User not found"))
	}
	subs, err := h.Audit.ListSubmissions(ctx, u.ID)
	if err != nil {
		return respondError(c, classify(err, ""))
	}
	out := make([]submissionView, 0, len(subs))
	for _, s := range subs {
		out = append(out, submissionView{ID: s.ID, Answers: s.Answers, CreatedAt: s.CreatedAt})
	}
	return c.JSON(http.StatusOK, echo.Map{"username": u.Username, "submissions": out})
}
