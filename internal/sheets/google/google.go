// Package google exports ledger reports to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ports "fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	DefaultTransactionsSheet = "Transactions"
	DefaultSummarySheet      = "Summary"
)

// Config selects the spreadsheet and tabs a Client writes to.
type Config struct {
	SpreadsheetID     string
	TransactionsSheet string
	SummarySheet      string
	// CredentialsJSON is a service account key. Ignored when options passed to
	// New already configure authentication.
	CredentialsJSON []byte
}

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	summarySheet      string
}

var _ ports.ReportWriter = (*Client)(nil)

// New creates a Sheets client. Extra options are appended after the credential
// options, which lets tests point the client at a fake endpoint.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	var all []goption.ClientOption
	if len(cfg.CredentialsJSON) > 0 {
		all = append(all,
			goption.WithCredentialsJSON(cfg.CredentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	}
	all = append(all, opts...)
	if len(all) == 0 {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	svc, err := gsheet.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:               svc,
		spreadsheetID:     id,
		transactionsSheet: orDefault(cfg.TransactionsSheet, DefaultTransactionsSheet),
		summarySheet:      orDefault(cfg.SummarySheet, DefaultSummarySheet),
	}, nil
}

// LoadCredentials returns the inline JSON key when set, otherwise the content
// of the key file.
func LoadCredentials(inlineJSON, file string) ([]byte, error) {
	if s := strings.TrimSpace(inlineJSON); s != "" {
		return []byte(s), nil
	}
	file = strings.TrimSpace(file)
	if file == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

// WriteReport clears both tabs and rewrites them from r.
func (c *Client) WriteReport(ctx context.Context, r ports.Report) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.replace(ctx, c.transactionsSheet, ports.TransactionRows(r)); err != nil {
		return err
	}
	if err := c.replace(ctx, c.summarySheet, ports.SummaryRows(r)); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Exported ledger report",
		"spreadsheet", c.spreadsheetID,
		"transactions", len(r.Transactions),
		"revision", r.Revision)
	return nil
}

func (c *Client) replace(ctx context.Context, sheet string, rows [][]any) error {
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, quoteSheet(sheet), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheet, err)
	}

	rng := quoteSheet(sheet) + "!A1"
	vr := &gsheet.ValueRange{Range: rng, MajorDimension: "ROWS", Values: rows}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %s: %w", sheet, err)
	}
	return nil
}

// quoteSheet quotes a tab name for A1 notation; embedded quotes are doubled.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
