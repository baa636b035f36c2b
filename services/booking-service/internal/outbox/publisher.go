package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Observer receives one call per event handed to Kafka.
type Observer interface {
	ObserveEvent(eventType, status string)
}

// Relay moves stored events to Kafka in id order.
type Relay struct {
	conn      db.Conn
	repo      *Repository
	writer    MessageWriter
	observer  Observer
	logger    *slog.Logger
	pollEvery time.Duration
	batchSize int
}

type RelayConfig struct {
	PollEvery time.Duration
	BatchSize int
}

func NewRelay(conn db.Conn, repo *Repository, writer MessageWriter, observer Observer, logger *slog.Logger, cfg RelayConfig) *Relay {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Relay{
		conn:      conn,
		repo:      repo,
		writer:    writer,
		observer:  observer,
		logger:    logger,
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
}

func (p *Relay) Run(ctx context.Context) {
	if p.writer == nil {
		p.logger.WarnContext(ctx, "outbox relay disabled (no kafka brokers configured)")
		return
	}

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.PublishBatch(ctx); err != nil {
				p.logger.ErrorContext(ctx, "outbox publish failed", "err", err)
			}
		}
	}
}

// PublishBatch relays up to one batch and returns how many events were sent.
func (p *Relay) PublishBatch(ctx context.Context) (int, error) {
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	records, err := p.repo.FetchUnpublished(ctx, tx, p.batchSize)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, tx.Commit(ctx)
	}

	msgs := make([]kafka.Message, 0, len(records))
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		msgCtx := r.Trace.Attach(ctx)
		msgs = append(msgs, kafkax.NewEventMessage(msgCtx, r.EventID, r.EventType, r.AggregateID, r.Payload))
		ids = append(ids, r.ID)
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		for _, r := range records {
			p.observe(r.EventType, "failed")
		}
		return 0, err
	}
	if err := p.repo.MarkPublished(ctx, tx, ids); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	for _, r := range records {
		p.observe(r.EventType, "published")
	}
	return len(records), nil
}

func (p *Relay) observe(eventType, status string) {
	if p.observer != nil {
		p.observer.ObserveEvent(eventType, status)
	}
}

// DirectPublisher writes events straight to Kafka. It backs the in-memory
// storage mode, where there is no outbox table.
type DirectPublisher struct {
	writer MessageWriter
}

func NewDirectPublisher(writer MessageWriter) *DirectPublisher {
	return &DirectPublisher{writer: writer}
}

func (d *DirectPublisher) Publish(ctx context.Context, evt Event) error {
	return d.writer.WriteMessages(ctx, kafkax.NewEventMessage(ctx, uuid.NewString(), evt.EventType, evt.AggregateID, evt.Payload))
}
