package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"budget/internal/log"

	"github.com/rabbitmq/amqp091-go"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second}, // capped at 30s
		{15, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"amqp closed", fmt.Errorf("publish message: %w", amqp091.ErrClosed), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"other error", errors.New("some other error"), false},
		{"handler error", errors.New("budget not found"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	t.Run("initial state is closed", func(t *testing.T) {
		if client.isCircuitOpen() {
			t.Error("Circuit breaker should be closed initially")
		}
	})

	t.Run("record success resets state", func(t *testing.T) {
		atomic.StoreInt64(&client.failureCount, 3)
		atomic.StoreInt32(&client.state, StateOpen)
		client.recordSuccess()
		if atomic.LoadInt64(&client.failureCount) != 0 || atomic.LoadInt32(&client.state) != StateClosed {
			t.Error("success should close the circuit and reset failures")
		}
	})

	t.Run("multiple failures open circuit", func(t *testing.T) {
		for i := 0; i < maxFailures; i++ {
			client.recordFailure()
		}
		if !client.isCircuitOpen() {
			t.Error("Circuit breaker should be open after max failures")
		}
	})

	t.Run("circuit transitions to half-open after timeout", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now().Add(-openTimeout - time.Second)
		if client.isCircuitOpen() {
			t.Error("Circuit should transition to half-open after timeout")
		}
		if atomic.LoadInt32(&client.state) != StateHalfOpen {
			t.Error("State should be StateHalfOpen after timeout")
		}
	})

	t.Run("failure while half-open reopens", func(t *testing.T) {
		atomic.StoreInt64(&client.failureCount, 0)
		atomic.StoreInt32(&client.state, StateHalfOpen)
		client.recordFailure()
		if atomic.LoadInt32(&client.state) != StateOpen {
			t.Error("half-open failure should reopen the circuit")
		}
	})
}

func TestClient_PublishLedgerEvent_Guards(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}
	ev := NewLedgerEvent(TransactionCreated, "tx-1", "2025-01", "food_dining")

	t.Run("publish fails when circuit is open", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now()
		err := client.PublishLedgerEvent(context.Background(), ev)
		if err == nil || !strings.Contains(err.Error(), "circuit breaker is open") {
			t.Fatalf("expected circuit breaker error, got %v", err)
		}
	})

	t.Run("publish respects context cancellation", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateClosed)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := client.PublishLedgerEvent(ctx, ev); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(bool) error { f.acked = true; return nil }
func (f *fakeAck) Nack(_, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func TestSettle(t *testing.T) {
	logger := log.New(log.Config{Component: log.ComponentAMQP, Output: &strings.Builder{}})
	good, _ := NewLedgerEvent(BudgetUpdated, "b-1", "2025-02", "").ToJSON()

	tests := []struct {
		name        string
		body        []byte
		redelivered bool
		handlerErr  error
		wantAck     bool
		wantRequeue bool
	}{
		{"success acks", good, false, nil, true, false},
		{"malformed is dropped", []byte(`{"type":""}`), false, nil, false, false},
		{"handler error requeues first time", good, false, errors.New("store down"), false, true},
		{"handler error after redelivery drops", good, true, errors.New("store down"), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAck{}
			called := false
			settle(context.Background(), logger, tt.body, tt.redelivered, ack, func(_ context.Context, ev *LedgerEvent) error {
				called = true
				if ev.Type != BudgetUpdated || ev.EntityID != "b-1" {
					t.Errorf("unexpected event %+v", ev)
				}
				return tt.handlerErr
			})
			if ack.acked != tt.wantAck {
				t.Errorf("acked = %v, want %v", ack.acked, tt.wantAck)
			}
			if !tt.wantAck && (!ack.nacked || ack.requeued != tt.wantRequeue) {
				t.Errorf("nacked=%v requeued=%v, want requeue %v", ack.nacked, ack.requeued, tt.wantRequeue)
			}
			if called == (string(tt.body) == `{"type":""}`) {
				t.Errorf("handler call mismatch")
			}
		})
	}
}

func TestLedgerEvent_JSON(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := LedgerEvent{Type: GoalContributed, EntityID: "g-9", Timestamp: ts}
	b, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	parsed, err := LedgerEventFromJSON(b)
	if err != nil {
		t.Fatalf("LedgerEventFromJSON() error = %v", err)
	}
	if parsed.Type != msg.Type || parsed.EntityID != msg.EntityID || !parsed.Timestamp.Equal(ts) {
		t.Errorf("round trip mismatch: %+v", parsed)
	}
	if GoalContributed.Entity() != "goal" || TransactionDeleted.Entity() != "transaction" {
		t.Errorf("unexpected entity mapping")
	}
	if GoalContributed.Action() != "contributed" || EventType("odd").Action() != "" {
		t.Errorf("unexpected action mapping")
	}
}

func TestEventTypeParts(t *testing.T) {
	tests := []struct {
		typ    EventType
		entity string
		action string
	}{
		{BudgetUpdated, "budget", "updated"},
		{"odd", "odd", ""},
		{"", "", ""},
		{".created", "", "created"},
		{"goal.", "goal", ""},
		{"a.b.c", "a", "b.c"},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			if got := tt.typ.Entity(); got != tt.entity {
				t.Errorf("Entity() = %q, want %q", got, tt.entity)
			}
			if got := tt.typ.Action(); got != tt.action {
				t.Errorf("Action() = %q, want %q", got, tt.action)
			}
		})
	}
}

func TestLedgerEvent_InvalidJSON(t *testing.T) {
	for _, body := range []string{`{"type": 1}`, `{"type":"goal.updated"}`, `not json`} {
		if _, err := LedgerEventFromJSON([]byte(body)); err == nil {
			t.Errorf("expected error for %s", body)
		}
	}
}
