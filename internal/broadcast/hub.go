// Package broadcast keeps the live bot-activity state and fans updates out
// to stream subscribers.  A single goroutine owns the state and the
// subscriber set; every other goroutine talks to it over channels.
package broadcast

import (
	"context"
	"time"
)

// State is the bot-activity flag as seen by dashboards.  StartedAt is
// whatever the bot runner reported.
type State struct {
	IsActive    bool       `json:"isActive"`
	StartedAt   *string    `json:"startedAt"`
	LastUpdated *time.Time `json:"lastUpdated"`
}

// Update is a state change reported by a bot runner.
type Update struct {
	IsActive  bool
	StartedAt *string
}

type subscription struct {
	ch    chan State
	reply chan State // receives the state at registration time
}

// Hub is the process-wide bot-activity broadcaster.  Create it with
// NewHub and start Run before use.
type Hub struct {
	publish     chan publishReq
	subscribe   chan subscription
	unsubscribe chan chan State
	snapshot    chan chan State
	done        chan struct{}
	now         func() time.Time
}

type publishReq struct {
	u     Update
	reply chan int
}

// NewHub returns an idle Hub.
func NewHub() *Hub {
	return &Hub{
		publish:     make(chan publishReq),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan chan State),
		snapshot:    make(chan chan State),
		done:        make(chan struct{}),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run owns the state until ctx is cancelled.  Subscriber channels are
// closed on exit.
func (h *Hub) Run(ctx context.Context) {
	var state State
	subs := map[chan State]struct{}{}
	defer func() {
		close(h.done)
		for ch := range subs {
			close(ch)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-h.subscribe:
			subs[s.ch] = struct{}{}
			s.reply <- state
		case ch := <-h.unsubscribe:
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
		case reply := <-h.snapshot:
			reply <- state
		case req := <-h.publish:
			now := h.now()
			state = State{IsActive: req.u.IsActive, StartedAt: req.u.StartedAt, LastUpdated: &now}
			for ch := range subs {
				offer(ch, state)
			}
			req.reply <- len(subs)
		}
	}
}

// offer delivers s without blocking.  A subscriber that has not drained
// its previous state gets that state replaced, so it always sees the latest.
func offer(ch chan State, s State) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Subscribe registers a new subscriber.  It returns the current state,
// a channel of later states and a function that must be called to
// unregister.  The channel is closed after unsubscribe or when the hub
// stops.  ok is false when the hub is no longer running.
func (h *Hub) Subscribe() (current State, updates <-chan State, unsubscribe func(), ok bool) {
	ch := make(chan State, 1)
	reply := make(chan State, 1)
	select {
	case h.subscribe <- subscription{ch: ch, reply: reply}:
	case <-h.done:
		return State{}, nil, func() {}, false
	}
	current = <-reply
	unsubscribe = func() {
		select {
		case h.unsubscribe <- ch:
		case <-h.done:
		}
	}
	return current, ch, unsubscribe, true
}

// Publish replaces the state and broadcasts it.  It returns the number of
// subscribers at the time of the update.
func (h *Hub) Publish(u Update) int {
	reply := make(chan int, 1)
	select {
	case h.publish <- publishReq{u: u, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}

// Snapshot returns the current state.
func (h *Hub) Snapshot() State {
	reply := make(chan State, 1)
	select {
	case h.snapshot <- reply:
		return <-reply
	case <-h.done:
		return State{}
	}
}
