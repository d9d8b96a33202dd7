package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hackathon-range/shop-backend/internal/queue"
)

// Publisher sends scoring events to the scoring.events queue from a
// single background goroutine.  Publish only enqueues; when the buffer
// is full or the broker is unreachable the event is dropped and logged
// so the request path never waits on RabbitMQ.
type Publisher struct {
	url    string
	events chan queue.Event

	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a Publisher with room for buffer pending events.
// Call Run to start delivering.
func NewPublisher(url string, buffer int) *Publisher {
	if buffer < 1 {
		buffer = 1
	}
	return &Publisher{url: url, events: make(chan queue.Event, buffer)}
}

// Publish enqueues ev without blocking.
func (p *Publisher) Publish(ev queue.Event) {
	select {
	case p.events <- ev:
	default:
		log.Printf("rabbitmq: publish buffer full, dropping %s event", ev.Type)
	}
}

// Run delivers queued events until ctx is cancelled.  The broker
// connection is opened lazily and re-opened after any failure.
func (p *Publisher) Run(ctx context.Context) {
	defer p.reset()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.events:
			if err := p.send(ctx, ev); err != nil {
				log.Printf("rabbitmq: publish %s failed: %v", ev.Type, err)
				p.reset()
			}
		}
	}
}

func (p *Publisher) send(ctx context.Context, ev queue.Event) error {
	if err := p.connect(); err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.ch.PublishWithContext(ctx,
		"",                 // default exchange
		queue.ScoringQueue, // routing key = queue name
		false,              // mandatory
		false,              // immediate
		pub,
	)
}

func (p *Publisher) connect() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.reset()
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}
	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue.ScoringQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
