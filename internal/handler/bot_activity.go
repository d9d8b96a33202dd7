package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hackathon-range/shop-backend/internal/broadcast"
)

// heartbeatEvery is how often an idle stream gets a comment line.
var heartbeatEvery = 30 * time.Second

// BotActivityHandler lets bot runners report whether they are active and
// streams that state to dashboards over server-sent events.
type BotActivityHandler struct {
	Hub *broadcast.Hub
}

func NewBotActivityHandler(h *broadcast.Hub) *BotActivityHandler {
	return &BotActivityHandler{Hub: h}
}

type botActivityReq struct {
	IsActive  bool    `json:"isActive"`
	StartedAt *string `json:"startedAt"`
}

// Update replaces the bot-activity state and broadcasts it.
func (h *BotActivityHandler) Update(c echo.Context) error {
	var req botActivityReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, invalid("invalid body"))
	}
	if req.StartedAt != nil && *req.StartedAt == "" {
		req.StartedAt = nil
	}
	n := h.Hub.Publish(broadcast.Update{IsActive: req.IsActive, StartedAt: req.StartedAt})
	c.Logger().Infof("bot activity updated: active=%v subscribers=%d", req.IsActive, n)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "activeClients": n})
}

// Stream sends the current state immediately, then every update, until
// the client goes away.
func (h *BotActivityHandler) Stream(c echo.Context) error {
	current, updates, unsubscribe, ok := h.Hub.Subscribe()
	if !ok {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "bot activity stream unavailable"})
	}
	defer unsubscribe()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	if err := writeEvent(res, current); err != nil {
		return nil
	}

	heartbeat := time.NewTicker(heartbeatEvery)
	defer heartbeat.Stop()
	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case s, open := <-updates:
			if !open {
				return nil
			}
			if err := writeEvent(res, s); err != nil {
				return nil
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": heartbeat\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func writeEvent(res *echo.Response, s broadcast.State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "data: %s\n\n", data); err != nil {
		return err
	}
	res.Flush()
	return nil
}
