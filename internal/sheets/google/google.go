// Package google exports transactions to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"budget/internal/core"
	"budget/internal/log"
	ports "budget/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const lastColumn = "G"

// Config selects the spreadsheet and the credentials used to reach it.
type Config struct {
	SpreadsheetID string
	// SheetName is the base tab name; rows go to "<year> <SheetName>".
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	logger        *log.Logger
}

// Ensure interface conformance
var _ ports.TransactionExporter = (*Client)(nil)

// New creates a Sheets client. Extra options are appended after the
// credentials, which lets tests point the client at a fake endpoint.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSheets)

	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = "Transactions"
	}

	svc, err := newSheetsService(ctx, cfg, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: base, logger: logger}, nil
}

// newSheetsService initializes a Sheets Service using service account
// credentials from inline JSON, a file, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*gsheet.Service, error) {
	credentialsJSON := strings.TrimSpace(cfg.CredentialsJSON)
	credentialsFile := strings.TrimSpace(cfg.CredentialsFile)
	if credentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var clientOpts []goption.ClientOption
	switch {
	case credentialsJSON != "":
		logger.InfoContext(ctx, "Using inline JSON credentials")
		clientOpts = append(clientOpts, goption.WithCredentialsJSON([]byte(credentialsJSON)))
	case credentialsFile != "":
		logger.InfoContext(ctx, "Reading credentials from file", "path", credentialsFile)
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		clientOpts = append(clientOpts, goption.WithCredentialsJSON(data))
	case len(opts) == 0:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON, GOOGLE_CREDENTIALS_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	clientOpts = append(clientOpts, goption.WithScopes(gsheet.SpreadsheetsScope))
	clientOpts = append(clientOpts, opts...)

	service, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// AppendTransaction adds one row to the sheet of the transaction's year.
func (c *Client) AppendTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet := c.sheetFor(t)
	rng := fmt.Sprintf("%s!A:%s", sheet, lastColumn)
	vr := &gsheet.ValueRange{Values: [][]any{ports.Row(t)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.DebugContext(ctx, "Transaction appended", log.FieldEntityID, t.ID, log.FieldSheetsRef, ref)
	return ref, nil
}

// HasTransaction scans the id column of the transaction's year sheet.
func (c *Client) HasTransaction(ctx context.Context, t core.Transaction) (bool, error) {
	if c.svc == nil {
		return false, errors.New("sheets service not initialized")
	}
	ids, err := c.readCol(ctx, c.sheetFor(t), "A:A")
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == t.ID {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) sheetFor(t core.Transaction) string {
	return yearPrefixedName(c.sheetBase, t.Date.Year())
}

func (c *Client) readCol(ctx context.Context, sheetName, col string) ([]string, error) {
	rng := fmt.Sprintf("%s!%s", sheetName, col)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return columnValues(resp.Values), nil
}

// columnValues returns the first cell of every non-empty row. Blank cells
// and "#" comment rows are skipped.
func columnValues(rows [][]any) []string {
	var out []string
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		v := strings.TrimSpace(fmt.Sprint(row[0]))
		if v == "" || strings.HasPrefix(v, "#") {
			continue
		}
		out = append(out, v)
	}
	return out
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
