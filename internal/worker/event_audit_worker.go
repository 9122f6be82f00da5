package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"research-assistant/internal/model"
)

type EventStore interface {
	Create(ctx context.Context, rec *model.EventRecord) error
}

// EventAuditWorker consumes document lifecycle events from the queue and
// stores each one as an audit row.
type EventAuditWorker struct {
	conn      *amqp.Connection
	store     EventStore
	queueName string
	log       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEventAuditWorker(conn *amqp.Connection, store EventStore, queueName string, log *slog.Logger) *EventAuditWorker {
	return &EventAuditWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		log:       log,
	}
}

func (w *EventAuditWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					w.log.Warn("audit document event failed", "message_id", d.MessageId, "error", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *EventAuditWorker) handle(ctx context.Context, body []byte) error {
	var event model.DocumentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if event.Type == "" || event.SessionID == "" {
		return fmt.Errorf("event without type or session")
	}
	rec := model.NewEventRecord(event)
	return w.store.Create(ctx, &rec)
}

func (w *EventAuditWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
