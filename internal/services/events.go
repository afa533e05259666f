// Package services holds the call sites of the aggregation engine: the
// dashboard, budget and goal views plus the write paths that keep them fresh.
package services

import (
	"context"
	"sync"

	"budget/internal/amqp"
	"budget/internal/log"
)

// EventPublisher announces ledger changes to other processes.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev amqp.LedgerEvent) error
}

// ChangeListener is called in-process after every successful write.
type ChangeListener func(ctx context.Context, ev amqp.LedgerEvent)

// Notifier fans a ledger change out to in-process listeners and, when
// configured, to the message broker. Publish failures are logged and never
// fail the write that caused them: the store is the source of truth.
type Notifier struct {
	publisher EventPublisher
	logger    *log.Logger

	mu        sync.RWMutex
	listeners []ChangeListener
}

// NewNotifier accepts a nil publisher when no broker is configured.
func NewNotifier(publisher EventPublisher, logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Notifier{publisher: publisher, logger: logger.WithComponent(log.ComponentAMQP)}
}

// Subscribe registers l for every future change.
func (n *Notifier) Subscribe(l ChangeListener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, l)
}

func (n *Notifier) notify(ctx context.Context, ev amqp.LedgerEvent) {
	if n == nil {
		return
	}
	n.mu.RLock()
	listeners := append([]ChangeListener(nil), n.listeners...)
	n.mu.RUnlock()
	for _, l := range listeners {
		l(ctx, ev)
	}

	if n.publisher == nil {
		n.logger.DebugContext(ctx, "AMQP client not available, skipping ledger event", "type", ev.Type)
		return
	}
	if err := n.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		log.NewStructuredLogger(n.logger).LogError(ctx, "Failed to publish ledger event", err, log.OpPublish,
			log.NewFields().WithEntity(ev.Type.Entity(), ev.EntityID).WithMonth(ev.Month))
	}
}
