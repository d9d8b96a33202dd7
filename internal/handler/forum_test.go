package handler

import (
	"net/http"
	"testing"

	"github.com/hackathon-range/shop-backend/internal/utils"
)

func TestForumCreateAndAuthorRules(t *testing.T) {
	forum := newMemForum()
	h := NewForumHandler(forum)

	c, rec := newCtx(http.MethodPost, "/api/forum", `{"title":"hi","body":"<b>hello</b>"}`, hackors1)
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	if m := forum.items[1]; m.AuthorID != 2 || m.Body != "<b>hello</b>" {
		t.Fatalf("stored = %+v", m)
	}

	c, rec = newCtx(http.MethodPut, "/api/forum/1", `{"body":"edited"}`, hackors2)
	_ = h.Update(withParams(c, "id", "1"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("stranger edit status = %d", rec.Code)
	}

	c, rec = newCtx(http.MethodPut, "/api/forum/1", `{"body":"edited"}`, hackors1)
	_ = h.Update(withParams(c, "id", "1"))
	if rec.Code != http.StatusOK || forum.items[1].Body != "edited" || forum.items[1].Title != "hi" {
		t.Fatalf("author edit status = %d stored = %+v", rec.Code, forum.items[1])
	}

	c, rec = newCtx(http.MethodDelete, "/api/forum/1", "", hackors2)
	_ = h.Delete(withParams(c, "id", "1"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("stranger delete status = %d", rec.Code)
	}

	c, rec = newCtx(http.MethodDelete, "/api/forum/1", "", adminID)
	_ = h.Delete(withParams(c, "id", "1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin delete status = %d", rec.Code)
	}

	c, rec = newCtx(http.MethodGet, "/api/forum/1", "", utils.Identity{})
	_ = h.Get(withParams(c, "id", "1"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("deleted get status = %d", rec.Code)
	}
}

func TestForumCreateRequiresTitleAndBody(t *testing.T) {
	h := NewForumHandler(newMemForum())
	c, rec := newCtx(http.MethodPost, "/api/forum", `{"title":" "}`, hackors1)
	_ = h.Create(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
