package memory

import (
	"context"
	"sync"
	"testing"

	"budget/internal/core"
	"budget/internal/store"
	"budget/internal/store/storetest"

	"github.com/shopspring/decimal"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestConcurrentCreates(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.CreateTransaction(context.Background(), core.Transaction{
				Amount:      decimal.NewFromInt(int64(-i - 1)),
				Category:    core.Other,
				Date:        core.NewDate(2025, 1, 1+i%28),
				Description: "x",
			})
			if err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()
	all, _ := s.ListTransactions(context.Background(), store.TransactionFilter{})
	if len(all) != 50 {
		t.Fatalf("expected 50 transactions, got %d", len(all))
	}
}
