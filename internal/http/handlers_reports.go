package http

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"dineadmin/internal/core"
	"dineadmin/internal/export"
	"dineadmin/internal/log"
	"dineadmin/internal/report"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.reports.Dashboard(r.Context(), s.now())
	if err != nil {
		writeError(w, r, "dashboard", err)
		return
	}
	writeJSON(w, dashboardOf(d))
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	d, err := s.reports.Daily(r.Context(), s.now())
	if err != nil {
		writeError(w, r, "daily", err)
		return
	}
	writeJSON(w, dailyOf(d))
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	f, err := parseOrderFilter(r, s.reports.Location())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	orders, err := s.reports.Orders(r.Context(), f)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, map[string]any{
		"orders": ordersOf(orders),
		"count":  len(orders),
	})
}

func (s *Server) handleOrderDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		NotFoundError("not found").Write(w)
		return
	}
	bill, err := s.reports.OrderDetail(r.Context(), id)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, billOf(bill))
}

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	f, err := parseOrderFilter(r, s.reports.Location())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	contacts, err := s.reports.Customers(r.Context(), f)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, map[string]any{
		"customers": contactsOf(contacts),
		"count":     len(contacts),
	})
}

func (s *Server) handleWaiters(w http.ResponseWriter, r *http.Request) {
	ws, err := s.reports.WaiterStatus(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, map[string]any{"waiters": waitersOf(ws)})
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseMonthParam(r, s.now().In(s.reports.Location()))
	if err != nil {
		writeError(w, r, "monthly", err)
		return
	}
	rep, err := s.monthlyReport(r.Context(), year, month)
	if err != nil {
		writeError(w, r, "monthly", err)
		return
	}
	writeJSON(w, periodOf(rep))
}

func (s *Server) handleYearly(w http.ResponseWriter, r *http.Request) {
	year, err := parseYearParam(r, s.now().In(s.reports.Location()))
	if err != nil {
		writeError(w, r, "yearly", err)
		return
	}
	rep, err := s.yearlyReport(r.Context(), year)
	if err != nil {
		writeError(w, r, "yearly", err)
		return
	}
	writeJSON(w, periodOf(rep))
}

func (s *Server) handleMonthlyExport(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseMonthParam(r, s.now().In(s.reports.Location()))
	if err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}
	rep, err := s.monthlyReport(r.Context(), year, month)
	if err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}
	s.writeWorkbook(w, r, export.MonthlyFilename(year, month), rep, export.ExportMonthly)
}

func (s *Server) handleYearlyExport(w http.ResponseWriter, r *http.Request) {
	year, err := parseYearParam(r, s.now().In(s.reports.Location()))
	if err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}
	rep, err := s.yearlyReport(r.Context(), year)
	if err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}
	s.writeWorkbook(w, r, export.YearlyFilename(year), rep, export.ExportYearly)
}

// writeWorkbook renders into a buffer first so a failed export still gets a
// JSON error instead of a truncated attachment.
func (s *Server) writeWorkbook(w http.ResponseWriter, r *http.Request, filename string, rep report.PeriodReport, render func(io.Writer, []core.Order, bool) error) {
	var buf bytes.Buffer
	withCustomer := wantsCustomer(r)
	if err := render(&buf, rep.Orders, withCustomer); err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}
	atomic.AddInt64(&s.metrics.exports, 1)
	fields := log.NewFields().WithPeriod(rep.Year, rep.Month).WithOperation(log.OpExport)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Report exported",
		append(fields.ToSlice(),
			log.FieldOrderCount, len(rep.Orders),
			"filename", filename,
			"with_customer", withCustomer)...)

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
