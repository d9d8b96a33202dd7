package router

import (
	"github.com/labstack/echo/v4"

	"github.com/hackathon-range/shop-backend/internal/handler"
	"github.com/hackathon-range/shop-backend/internal/middleware"
	"github.com/hackathon-range/shop-backend/internal/model"
)

// RegisterScoring registers answer submission (two paths, same handler),
// the public scoreboard and the admin audit trail.  The scoreboard is
// never cached.
func RegisterScoring(e *echo.Echo, s *handler.ScoreHandler, v middleware.Verifier) {
	auth := middleware.Authenticate(v)
	e.POST("/api/hackathon/answers", s.SubmitAnswers, auth)
	e.POST("/api/answers", s.SubmitAnswers, auth)
	e.GET("/api/hackathon/submissions/:username", s.Submissions, auth, middleware.RequireRole(model.RoleAdmin))
	e.GET("/api/scores", s.Scores)
}

// RegisterCommunity registers the forum and the bot-activity feed.
func RegisterCommunity(e *echo.Echo, f *handler.ForumHandler, b *handler.BotActivityHandler, v middleware.Verifier) {
	forum := e.Group("/api/forum")
	forum.GET("", f.List)
	forum.GET("/:id", f.Get)
	auth := middleware.Authenticate(v)
	forum.POST("", f.Create, auth)
	forum.PUT("/:id", f.Update, auth)
	forum.DELETE("/:id", f.Delete, auth)

	e.POST("/api/bot-activity", b.Update)
	e.GET("/api/bot-activity/stream", b.Stream)
}
