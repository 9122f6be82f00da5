package rabbitmq

import (
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

type flakyDeclarer struct {
	failures int
	calls    int
}

func (d *flakyDeclarer) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	d.calls++
	if !durable {
		return amqp.Queue{}, errors.New("queue must be durable")
	}
	if d.calls <= d.failures {
		return amqp.Queue{}, errors.New("channel closed")
	}
	return amqp.Queue{Name: name}, nil
}

func TestEnsureQueue_RetriesAfterFailure(t *testing.T) {
	p := NewEventPublisher(nil, "document-events")
	ch := &flakyDeclarer{failures: 1}

	if err := p.ensureQueue(ch); err == nil {
		t.Fatalf("expected first declaration to fail")
	}
	if err := p.ensureQueue(ch); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if err := p.ensureQueue(ch); err != nil {
		t.Fatalf("declared queue: %v", err)
	}
	if ch.calls != 2 {
		t.Fatalf("expected 2 declarations, got %d", ch.calls)
	}
}
