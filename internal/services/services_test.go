package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/store"

	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, ev amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

func seedTransactions(t *testing.T, s store.TransactionStore, txs ...core.Transaction) {
	t.Helper()
	for _, tx := range txs {
		if _, err := s.CreateTransaction(context.Background(), tx); err != nil {
			t.Fatalf("seed transaction: %v", err)
		}
	}
}

func tx(amount string, c core.Category, d core.Date, desc string) core.Transaction {
	return core.Transaction{Amount: dec(amount), Category: c, Date: d, Description: desc}
}
