// Package queue contains the background consumer that listens to the
// scoring.events queue and writes single-line records to logs/scoring.log.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartScoringConsumer connects to RabbitMQ, declares the scoring.events
// queue (durable), and starts consuming messages. Each message is appended
// to <logDir>/scoring.log in a single-line, human-friendly format. The
// function runs a reconnect loop with exponential backoff and returns only
// when ctx is cancelled; processing errors are logged and the offending
// message is rejected so the server continues operating.
func StartScoringConsumer(ctx context.Context, url, logDir string) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("scoring-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, logDir)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("scoring-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logDir string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("scoring-consumer: set QoS failed: %v", err)
	}

	_, err = ch.QueueDeclare(ScoringQueue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, ScoringQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(logDir, d.Body); err != nil {
			log.Printf("scoring-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(logDir string, body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line, err := formatEvent(ev)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join(logDir, "scoring.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatEvent(ev Event) (string, error) {
	switch ev.Type {
	case TypeAnswersGraded:
		var s Scores
		if ev.Scores != nil {
			s = *ev.Scores
		}
		return fmt.Sprintf("[%s] Answers graded | submission_id=%d | user_id=%d | user=%q | ctf=%d | pii=%d | unreleased=%d | total=%d\n",
			ev.OccurredAt, ev.SubmissionID, ev.UserID, ev.Username,
			s.CTFFlagPoints, s.PIIPoints, s.UnreleasedProductPoints, s.TotalPoints), nil
	case TypeSelfAttempt:
		return fmt.Sprintf("[%s] Self-scoring attempt discarded | user_id=%d | user=%q | key=%q\n",
			ev.OccurredAt, ev.UserID, ev.Username, ev.Key), nil
	case TypeScoreboardSnapshot:
		rows := make([]string, 0, len(ev.Standings))
		for _, s := range ev.Standings {
			rows = append(rows, fmt.Sprintf("%s=%.2f", s.TeamName, s.TotalScore))
		}
		return fmt.Sprintf("[%s] Scoreboard snapshot | %s\n", ev.OccurredAt, strings.Join(rows, " ")), nil
	}
	return "", fmt.Errorf("unknown event type %q", ev.Type)
}
