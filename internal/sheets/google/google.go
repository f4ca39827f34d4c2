package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dineadmin/internal/core"
	"dineadmin/internal/log"
	"dineadmin/internal/report"
	ports "dineadmin/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	salesColumns   = "A:G"
	summaryColumns = "A:E"
)

var ErrMissingCredentials = errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE)")

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base names without year (e.g. "Sales"); the year of the row is prefixed.
	salesBase   string
	summaryBase string
	logger      *log.Logger
}

// Ensure interface conformance
var _ ports.Writer = (*Client)(nil)

type Options struct {
	SpreadsheetID   string
	SalesSheet      string
	SummarySheet    string
	CredentialsFile string
	CredentialsJSON string
	Logger          *log.Logger
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, opts), nil
}

// NewWithService wraps an already configured service.
func NewWithService(svc *gsheet.Service, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	sales := strings.TrimSpace(opts.SalesSheet)
	if sales == "" {
		sales = "Sales"
	}
	summary := strings.TrimSpace(opts.SummarySheet)
	if summary == "" {
		summary = "Daily Summary"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		salesBase:     sales,
		summaryBase:   summary,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		credentialsJSON = []byte(opts.CredentialsJSON)
	case strings.TrimSpace(opts.CredentialsFile) != "":
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, ErrMissingCredentials
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// AppendSale appends the order to "<year> <sales sheet>".
func (c *Client) AppendSale(ctx context.Context, o core.Order) (string, error) {
	row, err := ports.SaleRow(o)
	if err != nil {
		return "", err
	}
	sheet := yearPrefixedName(c.salesBase, o.CreatedAt.Year())
	ref, err := c.append(ctx, sheet, salesColumns, row)
	if err != nil {
		return "", err
	}
	c.logger.InfoContext(ctx, "Appended sale",
		log.FieldOrderID, o.ID,
		log.FieldSheetsRef, ref)
	return ref, nil
}

func (c *Client) AppendDailySummary(ctx context.Context, r report.DailyReport) (string, error) {
	sheet := yearPrefixedName(c.summaryBase, r.Date.Year())
	ref, err := c.append(ctx, sheet, summaryColumns, ports.SummaryRow(r))
	if err != nil {
		return "", err
	}
	c.logger.InfoContext(ctx, "Appended daily summary",
		"date", r.Date.Format(time.DateOnly),
		log.FieldSheetsRef, ref)
	return ref, nil
}

func (c *Client) append(ctx context.Context, sheet, cols string, row []any) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	rng := a1Range(sheet, cols)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", rng, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// a1Range quotes the sheet name, which may contain spaces.
func a1Range(sheet, cols string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheet, "'", "''"), cols)
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
