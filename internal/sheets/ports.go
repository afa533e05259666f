package sheets

import (
	"context"

	"budget/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionExporter mirrors ledger entries into a spreadsheet.
	TransactionExporter interface {
		// AppendTransaction writes one row and returns its reference.
		AppendTransaction(ctx context.Context, t core.Transaction) (rowRef string, err error)
		// HasTransaction reports whether a row for t.ID already exists.
		HasTransaction(ctx context.Context, t core.Transaction) (bool, error)
	}
)

// Row is the spreadsheet layout shared by every exporter: id, date,
// description, amount, category, category label, recurring flag.
func Row(t core.Transaction) []any {
	return []any{
		t.ID,
		t.Date.String(),
		t.Description,
		t.Amount.StringFixed(2),
		string(t.Category),
		t.Category.Label(),
		t.IsRecurring,
	}
}
