package services

import (
	"context"
	"fmt"
	"strings"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/store"
)

// Transaction type filters.
const (
	TypeAll     = "all"
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// TransactionQuery is the transactions page filter bar.
type TransactionQuery struct {
	Term     string
	Type     string
	Category core.Category
	From     core.Date
	To       core.Date
	Limit    int
}

// FilterTransactions applies the text and type filters of q to txs. The term
// matches description, category value or category label, ignoring case.
func FilterTransactions(txs []core.Transaction, q TransactionQuery) []core.Transaction {
	term := strings.ToLower(strings.TrimSpace(q.Term))
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		switch q.Type {
		case TypeIncome:
			if !t.IsIncome() {
				continue
			}
		case TypeExpense:
			if !t.IsExpense() {
				continue
			}
		}
		if q.Category != "" && t.Category != q.Category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(t.Description), term) &&
			!strings.Contains(strings.ToLower(string(t.Category)), term) &&
			!strings.Contains(strings.ToLower(t.Category.Label()), term) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// TransactionService reads and writes ledger entries.
type TransactionService struct {
	txs      store.TransactionStore
	notifier *Notifier
	logger   *log.Logger
}

func NewTransactionService(txs store.TransactionStore, notifier *Notifier, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &TransactionService{txs: txs, notifier: notifier, logger: logger.WithComponent(log.ComponentTransaction)}
}

// List returns the transactions matching q, newest first.
func (s *TransactionService) List(ctx context.Context, q TransactionQuery) ([]core.Transaction, error) {
	switch q.Type {
	case "", TypeAll, TypeIncome, TypeExpense:
	default:
		return nil, fmt.Errorf("unknown transaction type %q: %w", q.Type, core.ErrInvalidArgument)
	}
	if q.Limit < 0 {
		return nil, fmt.Errorf("limit must not be negative: %w", core.ErrInvalidArgument)
	}

	f := store.TransactionFilter{From: q.From, To: q.To, Category: q.Category}
	// The store limit can only be pushed down when no in-memory filter follows.
	if q.Term == "" && (q.Type == "" || q.Type == TypeAll) {
		f.Limit = q.Limit
	}
	txs, err := s.txs.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	out := FilterTransactions(txs, q)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.txs.GetTransaction(ctx, id)
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Amount = t.Amount.Round(2)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	created, err := s.txs.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}
	s.logger.InfoContext(ctx, "Transaction created",
		log.FieldEntityID, created.ID,
		log.FieldAmount, created.Amount.StringFixed(2),
		log.FieldCategory, created.Category,
		log.FieldMonth, created.Date.MonthKey())
	s.notifier.notify(ctx, transactionEvent(amqp.TransactionCreated, created))
	return created, nil
}

func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Amount = t.Amount.Round(2)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	updated, err := s.txs.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}
	s.notifier.notify(ctx, transactionEvent(amqp.TransactionUpdated, updated))
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	t, err := s.txs.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if err := s.txs.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.notifier.notify(ctx, transactionEvent(amqp.TransactionDeleted, t))
	return nil
}

func transactionEvent(typ amqp.EventType, t core.Transaction) amqp.LedgerEvent {
	return amqp.NewLedgerEvent(typ, t.ID, t.Date.MonthKey(), string(t.Category))
}
