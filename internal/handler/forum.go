package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ForumHandler serves the public message board the bots read.  Message
// bodies are stored and returned verbatim.
type ForumHandler struct {
	Forum ForumStore
}

func NewForumHandler(f ForumStore) *ForumHandler { return &ForumHandler{Forum: f} }

type forumReq struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (h *ForumHandler) List(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	msgs, err := h.Forum.List(ctx)
	if err != nil {
		return respondError(c, classify(err, ""))
	}
	return c.JSON(http.StatusOK, msgs)
}

func (h *ForumHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	m, err := h.Forum.GetByID(ctx, id)
	if err != nil {
		return respondError(c, classify(err, "Forum message not found"))
	}
	return c.JSON(http.StatusOK, m)
}

// Create posts a message authored by the caller.
func (h *ForumHandler) Create(c echo.Context) error {
	who, _ := caller(c)
	var req forumReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, invalid("invalid body"))
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Body) == "" {
		return respondError(c, invalid("Title and body are required"))
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	m, err := h.Forum.Create(ctx, req.Title, req.Body, who.UserID)
	if err != nil {
		return respondError(c, classify(err, ""))
	}
	return c.JSON(http.StatusCreated, m)
}

// Update edits a message; only its author or an admin may.
func (h *ForumHandler) Update(c echo.Context) error {
	who, _ := caller(c)
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req forumReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, invalid("invalid body"))
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	m, err := h.Forum.GetByID(ctx, id)
	if err != nil {
		return respondError(c, classify(err, "Forum message not found"))
	}
	if m.AuthorID != who.UserID && !isAdmin(who) {
		return respondError(c, forbidden("Not authorized to edit this message"))
	}
	m, err = h.Forum.Update(ctx, id, req.Title, req.Body)
	if err != nil {
		return respondError(c, classify(err, "Forum message not found"))
	}
	return c.JSON(http.StatusOK, m)
}

// Delete removes a message; only its author or an admin may.
func (h *ForumHandler) Delete(c echo.Context) error {
	who, _ := caller(c)
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	m, err := h.Forum.GetByID(ctx, id)
	if err != nil {
		return respondError(c, classify(err, "Forum message not found"))
	}
	if m.AuthorID != who.UserID && !isAdmin(who) {
		return respondError(c, forbidden("Not authorized to delete this message"))
	}
	if err := h.Forum.Delete(ctx, id); err != nil {
		return respondError(c, classify(err, "Forum message not found"))
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Forum message deleted successfully"})
}
