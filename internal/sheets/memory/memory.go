package memory

import (
	"context"
	"fmt"
	"sync"

	"dineadmin/internal/core"
	"dineadmin/internal/report"
	"dineadmin/internal/sheets"
)

var _ sheets.Writer = (*Store)(nil)

// Store keeps appended rows in memory. Used when no spreadsheet is configured.
type Store struct {
	mu      sync.Mutex
	sales   [][]any
	summary [][]any
}

func New() *Store {
	return &Store{}
}

// AppendSale stores the sale row and returns a synthetic row reference.
func (s *Store) AppendSale(_ context.Context, o core.Order) (string, error) {
	row, err := sheets.SaleRow(o)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = append(s.sales, row)
	return fmt.Sprintf("mem:sales:%d", len(s.sales)), nil
}

func (s *Store) AppendDailySummary(_ context.Context, r report.DailyReport) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = append(s.summary, sheets.SummaryRow(r))
	return fmt.Sprintf("mem:summary:%d", len(s.summary)), nil
}

// Sales returns a copy of the appended sale rows.
func (s *Store) Sales() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.sales...)
}

func (s *Store) Summaries() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.summary...)
}
