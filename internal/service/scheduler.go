package service

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/hackathon-range/shop-backend/internal/queue"
)

// StartSnapshotScheduler computes the scoreboard every interval, logs
// it and publishes a scoreboard.snapshot event.  A run that is still
// going when the next one is due causes that next run to be skipped.  The
// caller owns the returned scheduler and must Shutdown it.
func (e *Engine) StartSnapshotScheduler(every time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), every)
			defer cancel()
			if err := e.Snapshot(ctx); err != nil {
				log.Printf("[Scheduler] scoreboard snapshot failed: %v", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}
	sched.Start()
	return sched, nil
}

// Snapshot computes the scoreboard once and publishes it.
func (e *Engine) Snapshot(ctx context.Context) error {
	board, err := e.Scoreboard(ctx)
	if err != nil {
		return err
	}
	rows := make([]queue.Standing, 0, len(board))
	for _, s := range board {
		rows = append(rows, queue.Standing{TeamName: s.TeamName, TotalScore: s.TotalScore})
		log.Printf("[Scheduler] %s dynamic=%.2f fixed=%d total=%.2f", s.TeamName, s.DynamicScore, s.FixedQuestionScore, s.TotalScore)
	}
	e.events.Publish(queue.Event{
		Type:       queue.TypeScoreboardSnapshot,
		Standings:  rows,
		OccurredAt: e.now().Format(time.RFC3339),
	})
	return nil
}
