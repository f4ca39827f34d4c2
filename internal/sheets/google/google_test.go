package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dineadmin/internal/core"
	"dineadmin/internal/log"
	"dineadmin/internal/report"
	ports "dineadmin/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type appendCall struct {
	path   string
	query  string
	values [][]any
}

func newTestClient(t *testing.T, updatedRange string) (*Client, *[]appendCall) {
	t.Helper()
	var calls []appendCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			t.Errorf("decode body: %v", err)
		}
		calls = append(calls, appendCall{path: r.URL.Path, query: r.URL.RawQuery, values: vr.Values})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"spreadsheetId": "sheet-1",
			"updates":       map[string]any{"updatedRange": updatedRange, "updatedRows": 1},
		})
	}))
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	c := NewWithService(svc, Options{SpreadsheetID: "sheet-1", Logger: log.Discard()})
	return c, &calls
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "x"})
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "x", CredentialsFile: t.TempDir() + "/missing.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_AppendSale(t *testing.T) {
	c, calls := newTestClient(t, "'2024 Sales'!A5:G5")
	ref, err := c.AppendSale(context.Background(), core.Order{
		ID:          "o1",
		Status:      core.StatusPaid,
		BillNumber:  "B-9",
		CreatedAt:   time.Date(2024, 7, 4, 20, 0, 0, 0, time.UTC),
		GrandTotal:  core.NewNullMoney(52500),
		Tax:         core.NewNullMoney(2500),
		PaymentMode: "cash",
		WaiterName:  "Ravi",
	})
	if err != nil {
		t.Fatalf("AppendSale: %v", err)
	}
	if ref != "'2024 Sales'!A5:G5" {
		t.Errorf("ref = %q", ref)
	}
	if len(*calls) != 1 {
		t.Fatalf("expected one call, got %d", len(*calls))
	}
	call := (*calls)[0]
	if !strings.HasSuffix(call.path, ":append") || !strings.Contains(call.path, "2024 Sales") {
		t.Errorf("unexpected path %q", call.path)
	}
	if !strings.Contains(call.query, "valueInputOption=USER_ENTERED") {
		t.Errorf("unexpected query %q", call.query)
	}
	want := []any{"B-9", "04/07/2024", "July", "cash", 525.0, 25.0, "Ravi"}
	if len(call.values) != 1 || len(call.values[0]) != len(want) {
		t.Fatalf("unexpected values %v", call.values)
	}
	for i := range want {
		if call.values[0][i] != want[i] {
			t.Errorf("cell %d = %v, want %v", i, call.values[0][i], want[i])
		}
	}
}

func TestClient_AppendSaleRejectsUnpaid(t *testing.T) {
	c, calls := newTestClient(t, "")
	_, err := c.AppendSale(context.Background(), core.Order{Status: core.StatusOpen})
	if !errors.Is(err, ports.ErrNotPaid) {
		t.Fatalf("expected ErrNotPaid, got %v", err)
	}
	if len(*calls) != 0 {
		t.Errorf("no request expected for unpaid order")
	}
}

func TestClient_AppendDailySummary(t *testing.T) {
	c, calls := newTestClient(t, "")
	ref, err := c.AppendDailySummary(context.Background(), report.DailyReport{
		Date:  time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Bills: 4,
	})
	if err != nil {
		t.Fatalf("AppendDailySummary: %v", err)
	}
	if ref != "'2025 Daily Summary'!A:E" {
		t.Errorf("fallback ref = %q", ref)
	}
	if got := (*calls)[0].values[0][0]; got != "02/01/2025" {
		t.Errorf("date cell = %v", got)
	}
}

func TestClient_NilService(t *testing.T) {
	c := &Client{logger: log.Discard(), salesBase: "Sales"}
	_, err := c.AppendSale(context.Background(), core.Order{Status: core.StatusPaid})
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Sales", 2024, "2024 Sales"},
		{" Sales ", 2024, "2024 Sales"},
		{"2023 Sales", 2024, "2023 Sales"},
		{"", 2024, ""},
		{"12345", 2024, "2024 12345"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestA1Range(t *testing.T) {
	if got := a1Range("2024 Sales", "A:G"); got != "'2024 Sales'!A:G" {
		t.Errorf("got %q", got)
	}
	if got := a1Range("Bob's", "A:E"); got != "'Bob''s'!A:E" {
		t.Errorf("got %q", got)
	}
}
