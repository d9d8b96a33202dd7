package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hackathon-range/shop-backend/internal/broadcast"
	"github.com/hackathon-range/shop-backend/internal/utils"
)

func startHub(t *testing.T) *broadcast.Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := broadcast.NewHub()
	go hub.Run(ctx)
	return hub
}

func TestBotActivityUpdate(t *testing.T) {
	hub := startHub(t)
	h := NewBotActivityHandler(hub)
	c, rec := newCtx(http.MethodPost, "/api/bot-activity", `{"isActive":true,"startedAt":"2026-10-14T09:00:00Z"}`, utils.Identity{})
	if err := h.Update(c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := rec.Body.String(); got != "{\"activeClients\":0,\"success\":true}\n" {
		t.Fatalf("body = %q", got)
	}
	s := hub.Snapshot()
	if !s.IsActive || s.StartedAt == nil || *s.StartedAt != "2026-10-14T09:00:00Z" || s.LastUpdated == nil {
		t.Fatalf("state = %+v", s)
	}
}

// readEvent returns the next non-empty line of the stream.
func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		if line = strings.TrimRight(line, "\n"); line != "" {
			return line
		}
	}
}

func decodeState(t *testing.T, line string) broadcast.State {
	t.Helper()
	if !strings.HasPrefix(line, "data: ") {
		t.Fatalf("line %q is not a data event", line)
	}
	var s broadcast.State
	if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &s); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	return s
}

func TestBotActivityStream(t *testing.T) {
	hub := startHub(t)
	e := echo.New()
	e.GET("/api/bot-activity/stream", NewBotActivityHandler(hub).Stream)
	srv := httptest.NewServer(e)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/bot-activity/stream")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	r := bufio.NewReader(resp.Body)

	if s := decodeState(t, readEvent(t, r)); s.IsActive {
		t.Fatalf("initial state = %+v", s)
	}

	if n := hub.Publish(broadcast.Update{IsActive: true}); n != 1 {
		t.Fatalf("subscribers = %d", n)
	}
	if s := decodeState(t, readEvent(t, r)); !s.IsActive {
		t.Fatalf("updated state = %+v", s)
	}
}

func TestBotActivityHeartbeat(t *testing.T) {
	prev := heartbeatEvery
	heartbeatEvery = 10 * time.Millisecond
	defer func() { heartbeatEvery = prev }()

	hub := startHub(t)
	e := echo.New()
	e.GET("/stream", NewBotActivityHandler(hub).Stream)
	srv := httptest.NewServer(e)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stream")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	r := bufio.NewReader(resp.Body)
	_ = readEvent(t, r)
	if line := readEvent(t, r); line != ": heartbeat" {
		t.Fatalf("line = %q", line)
	}
}

func TestHealth(t *testing.T) {
	c, rec := newCtx(http.MethodGet, "/api/health", "", utils.Identity{})
	_ = APIHealth(c)
	if got := rec.Body.String(); got != "{\"message\":\"Server is running\",\"status\":\"OK\"}\n" {
		t.Fatalf("body = %q", got)
	}
	c, rec = newCtx(http.MethodGet, "/healthz", "", utils.Identity{})
	_ = Health(c)
	if rec.Body.String() != "ok" {
		t.Fatalf("healthz = %q", rec.Body.String())
	}
}
