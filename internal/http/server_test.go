package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dineadmin/internal/auth"
	"dineadmin/internal/core"
	"dineadmin/internal/log"
	"dineadmin/internal/middleware/ratelimit"
	"dineadmin/internal/realtime"
	"dineadmin/internal/report"
	"dineadmin/internal/services"
	"dineadmin/internal/store/memory"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type fixture struct {
	srv      *Server
	st       *memory.Store
	hub      *realtime.Hub
	now      time.Time
	waiterID string
}

func newFixture(t *testing.T, limit ratelimit.Config) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New(ist)
	hub := realtime.NewHub(log.Discard())

	hash := func(pw string) string {
		h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
		require.NoError(t, err)
		return string(h)
	}
	_, err := st.CreateProfile(ctx, core.Profile{Name: "Owner", Email: "owner@example.com", Role: core.RoleAdmin, PasswordHash: hash("admin-pass")})
	require.NoError(t, err)
	waiterID, err := st.CreateProfile(ctx, core.Profile{Name: "Ravi", Email: "ravi@example.com", Role: core.RoleWaiter, Status: core.StaffOnline, PasswordHash: hash("waiter-pass")})
	require.NoError(t, err)

	now := time.Date(2024, 3, 15, 21, 0, 0, 0, ist)
	reports := report.NewService(report.Sources{Orders: st, Details: st, Staff: st, Tables: st, Settings: st}, ist, log.Discard())
	srv := NewServer(":0", Deps{
		Reports:   reports,
		Admin:     services.NewAdminService(st, st, hub, log.Discard()),
		Auth:      auth.NewService(st, time.Hour, log.Discard()),
		Hub:       hub,
		Logger:    log.Discard(),
		RateLimit: limit,
		Now:       func() time.Time { return now },
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return &fixture{srv: srv, st: st, hub: hub, now: now, waiterID: waiterID}
}

func (f *fixture) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	f.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) login(t *testing.T) *http.Cookie {
	t.Helper()
	rr := f.do(t, http.MethodPost, "/login", `{"email":"owner@example.com","password":"admin-pass"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func (f *fixture) insert(t *testing.T, o core.Order) string {
	t.Helper()
	id, err := f.st.InsertOrder(context.Background(), o)
	require.NoError(t, err)
	return id
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func paidOrder(at time.Time, totalCents, taxCents int64) core.Order {
	return core.Order{
		CreatedAt:   at,
		Status:      core.StatusPaid,
		GrandTotal:  core.NewNullMoney(totalCents),
		Tax:         core.NewNullMoney(taxCents),
		Subtotal:    core.NewNullMoney(totalCents - taxCents),
		PaymentMode: "cash",
	}
}

func TestHealthAndReady(t *testing.T) {
	f := newFixture(t, ratelimit.Config{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := f.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	}
}

func TestAPIRequiresSession(t *testing.T) {
	f := newFixture(t, ratelimit.Config{})
	for _, path := range []string{"/api/dashboard", "/api/reports/monthly", "/api/menu", "/live"} {
		rr := f.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
	rr := f.do(t, http.MethodGet, "/api/me", "", &http.Cookie{Name: auth.CookieName, Value: "stale"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogin(t *testing.T) {
	f := newFixture(t, ratelimit.Config{})

	rr := f.do(t, http.MethodPost, "/login", `{"email":"owner@example.com","password":"nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = f.do(t, http.MethodPost, "/login", `{"email":"ravi@example.com","password":"waiter-pass"}`, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "Access denied. Admin only.", decode(t, rr)["error"])

	rr = f.do(t, http.MethodPost, "/login", `{"email":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	cookie := f.login(t)
	assert.True(t, cookie.HttpOnly)

	rr = f.do(t, http.MethodGet, "/api/me", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Owner", decode(t, rr)["name"])

	rr = f.do(t, http.MethodPost, "/logout", "", cookie)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = f.do(t, http.MethodGet, "/api/me", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDashboardAndDaily(t *testing.T) {
	f := newFixture(t, ratelimit.Config{})
	cookie := f.login(t)
	f.insert(t, paidOrder(time.Date(2024, 3, 15, 13, 10, 0, 0, ist), 100000, 5000))
	f.insert(t, core.Order{CreatedAt: time.Date(2024, 3, 15, 14, 0, 0, 0, ist), GrandTotal: core.NewNullMoney(50000)})
	f.insert(t, paidOrder(time.Date(2024, 3, 14, 13, 0, 0, 0, ist), 70000, 0))

	rr := f.do(t, http.MethodGet, "/api/dashboard", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	dash := decode(t, rr)
	assert.Equal(t, "2024-03-15", dash["date"])
	assert.EqualValues(t, 2, dash["bills"], "open orders count as bills on the dashboard")
	assert.Equal(t, "₹1,000.00", dash["sales"].(map[string]any)["formatted"])
	assert.Equal(t, "₹500.00", dash["average_bill"].(map[string]any)["formatted"])
	assert.Len(t, dash["hourly"], 24)
	assert.EqualValues(t, 1, dash["online_waiters"])

	rr = f.do(t, http.MethodGet, "/api/daily", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	daily := decode(t, rr)
	assert.EqualValues(t, 2, daily["bills"])
	assert.EqualValues(t, 5000, daily["tax"].(map[string]any)["paise"])
}

func TestMonthlyReportCacheInvalidation(t *testing.T) {
	f := newFixture(t, ratelimit.Config{})
	cookie := f.login(t)
	f.insert(t, paidOrder(time.Date(2024, 3, 2, 12, 0, 0, 0, ist), 120000, 6000))
	f.insert(t, core.Order{CreatedAt: time.Date(2024, 3, 2, 13, 0, 0, 0, ist), GrandTotal: core.NewNullMoney(999)})

	bills := func() float64 {
		rr := f.do(t, http.MethodGet, "/api/reports/monthly?month=2024-03", "", cookie)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		return decode(t, rr)["bills"].(float64)
	}
	assert.EqualValues(t, 1, bills(), "period reports count paid bills only")

	id := f.insert(t, paidOrder(time.Date(2024, 3, 9, 20, 0, 0, 0, ist), 80000, 4000))
	assert.EqualValues(t, 1, bills(), "served from cache until an orders event")

	f.hub.Publish(realtime.Event{Table: realtime.TableOrders, Op: realtime.OpInsert, ID: id})
	require.Eventually(t, func() bool { return bills() == 2 }, time.Second, 10*time.Millisecond)

	rr := f.do(t, http.MethodGet, "/api/reports/monthly?month=2024-03", "", cookie)
	rep := decode(t, rr)
	assert.Equal(t, "day_of_month", rep["granularity"])
	assert.Len(t, rep["series"], 31)
	assert.Equal(t, "₹2,000.00", rep["sales"].(map[string]any)["formatted"])
}

func TestYearlyReport(t *testing.T) {
	f := newFixture(t, ratelimit.Config{})
	cookie := f.login(t)
	f.insert(t, paidOrder(time.Date(2024, 1, 31, 23, 30, 0, 0, ist), 10000000, 0))
	f.insert(t, paidOrder(time.Date(2024, 11, 1, 0, 30, 0, 0, ist), 2345, 0))

	rr := f.do(t, http.MethodGet, "/api/reports/yearly?year=2024", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rep := decode(t, rr)
	series := rep["series"].([]any)
	require.Len(t, series, 12)
	jan := series[0].(map[string]any)
	assert.Equal(t, "Jan", jan["label"])
	assert.Equal(t, "₹1,00,000.00", jan["value"].(map[string]any)["formatted"])
	assert.EqualValues(t, 2345, series[10].(map[string]any)["value"].(map[string]any)["paise"])
}

func TestReportParamValidation(t *testing.T) {
	f := newFixture(t, ratelimit.Config{})
	cookie := f.login(t)
	tests := []struct {
		path string
		want int
	}{
		{"/api/reports/monthly?month=2024-13", http.StatusBadRequest},
		{"/api/reports/monthly?month=march", http.StatusBadRequest},
		{"/api/reports/yearly?year=24", http.StatusBadRequest},
		{"/api/reports/yearly?year=abcd", http.StatusBadRequest},
		{"/api/orders?date=15-03-2024", http.StatusBadRequest},
		{"/api/orders?status=refunded", http.StatusBadRequest},
		{"/api/reports/monthly", http.StatusOK},
		{"/api/reports/yearly", http.StatusOK},
	}
	for _, tt := range tests {
		rr := f.do(t, http.MethodGet, tt.path, "", cookie)
		assert.Equal(t, tt.want, rr.Code, tt.path)
	}
}

func TestOrdersAndDetail(t *testing.T) {
	f := newFixture(t, ratelimit.Config{})
	cookie := f.login(t)
	ctx := context.Background()
	require.NoError(t, f.st.SaveSettings(ctx, core.Settings{Name: "Spice Route", TaxRate: 5}))

	cash := paidOrder(time.Date(2024, 3, 15, 12, 0, 0, 0, ist), 105000, 5001)
	cash.WaiterID = f.waiterID
	cash.BillNumber = "B-101"
	cash.Items = []core.OrderItem{{Name: "Thali", Quantity: 2, PriceAtTime: core.NewNullMoney(50000)}}
	cashID := f.insert(t, cash)
	upi := paidOrder(time.Date(2024, 3, 15, 13, 0, 0, 0, ist), 30000, 0)
	upi.PaymentMode = "upi"
	f.insert(t, upi)
	f.insert(t, paidOrder(time.Date(2024, 3, 16, 9, 0, 0, 0, ist), 10000, 0))

	rr := f.do(t, http.MethodGet, "/api/orders?date=2024-03-15&payment=cash", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode(t, rr)
	assert.EqualValues(t, 1, list["count"])
	first := list["orders"].([]any)[0].(map[string]any)
	assert.Equal(t, "B-101", first["bill_number"])
	assert.Equal(t, "Ravi", first["waiter_name"])
	assert.Equal(t, "Guest", first["customer"].(map[string]any)["name"])

	rr = f.do(t, http.MethodGet, "/api/orders", "", cookie)
	assert.EqualValues(t, 3, decode(t, rr)["count"])

	rr = f.do(t, http.MethodGet, "/api/orders/"+cashID, "", cookie)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	bill := decode(t, rr)
	assert.EqualValues(t, 2501, bill["sgst"].(map[string]any)["paise"])
	assert.EqualValues(t, 2500, bill["cgst"].(map[string]any)["paise"])
	assert.EqualValues(t, 2.5, bill["half_rate"])
	assert.Equal(t, "Spice Route", bill["restaurant"].(map[string]any)["name"])
	assert.Len(t, bill["lines"], 1)

	rr = f.do(t, http.MethodGet, "/api/orders/does-not-exist", "", cookie)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCustomersAndWaiters(t *testing.T) {
	f := newFixture(t, ratelimit.Config{})
	cookie := f.login(t)
	o := paidOrder(time.Date(2024, 3, 15, 12, 0, 0, 0, ist), 5000, 0)
	o.CustomerName = "Asha"
	o.CustomerMobile = "9800000000"
	f.insert(t, o)
	f.insert(t, core.Order{CreatedAt: time.Date(2024, 3, 15, 19, 0, 0, 0, ist), WaiterID: f.waiterID})

	rr := f.do(t, http.MethodGet, "/api/customers?date=2024-03-15&status=paid", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	customers := decode(t, rr)["customers"].([]any)
	require.Len(t, customers, 1)
	c := customers[0].(map[string]any)
	assert.Equal(t, "Asha", c["name"])
	assert.Equal(t, "NA", c["email"])

	rr = f.do(t, http.MethodGet, "/api/waiters", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	waiters := decode(t, rr)["waiters"].([]any)
	require.Len(t, waiters, 1)
	assert.EqualValues(t, 1, waiters[0].(map[string]any)["open_orders"])
	assert.Equal(t, "online", waiters[0].(map[string]any)["status"])
}

func TestMonthlyExport(t *testing.T) {
	f := newFixture(t, ratelimit.Config{})
	cookie := f.login(t)
	o := paidOrder(time.Date(2024, 3, 15, 12, 0, 0, 0, ist), 105000, 5000)
	o.CustomerName = "Asha"
	f.insert(t, o)
	f.insert(t, core.Order{CreatedAt: time.Date(2024, 3, 15, 19, 0, 0, 0, ist)})

	rr := f.do(t, http.MethodGet, "/api/reports/monthly/export?month=2024-03&customer=with", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "Monthly_Report_2024-03.xlsx")

	wb, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows("Sales Report")
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus the paid order")
	assert.Equal(t, "Customer Name", rows[0][len(rows[0])-3])
	assert.Equal(t, "Asha", rows[1][len(rows[1])-3])

	rr = f.do(t, http.MethodGet, "/api/reports/yearly/export?year=2024", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "Yearly_Report_2024.xlsx")

	rr = f.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Contains(t, rr.Body.String(), "report_exports_total 2")
}

func TestMenuAndSettings(t *testing.T) {
	f := newFixture(t, ratelimit.Config{})
	cookie := f.login(t)
	events, cancel := f.hub.Subscribe()
	defer cancel()

	rr := f.do(t, http.MethodPost, "/api/menu", `{"name":"Paneer Tikka","category":"Starters","price":"240.50","tax_rate":5}`, cookie)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode(t, rr)
	id := created["id"].(string)
	assert.NotEmpty(t, id)
	assert.Equal(t, true, created["is_active"])
	assert.Equal(t, "₹240.50", created["price"].(map[string]any)["formatted"])

	select {
	case ev := <-events:
		assert.Equal(t, realtime.TableMenuItems, ev.Table)
		assert.Equal(t, realtime.OpInsert, ev.Op)
	case <-time.After(time.Second):
		t.Fatal("no menu event published")
	}

	rr = f.do(t, http.MethodPost, "/api/menu", `{"id":"`+id+`","name":"Paneer Tikka","category":"Starters","price":"260","is_active":false}`, cookie)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = f.do(t, http.MethodGet, "/api/menu", "", cookie)
	items := decode(t, rr)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, false, items[0].(map[string]any)["is_active"])

	invalid := []string{
		`{"name":"Tea","category":"Drinks","price":"abc"}`,
		`{"name":"","category":"Drinks","price":"10"}`,
		`{"name":"Tea","category":"Drinks","price":"10","tax_rate":150}`,
	}
	for _, body := range invalid {
		rr = f.do(t, http.MethodPost, "/api/menu", body, cookie)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, body)
	}
	rr = f.do(t, http.MethodPost, "/api/menu", `{"id":"missing","name":"Tea","category":"Drinks","price":"10"}`, cookie)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = f.do(t, http.MethodPost, "/api/menu", `{"name":`, cookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodGet, "/api/settings", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Book My Dine", decode(t, rr)["name"])

	rr = f.do(t, http.MethodPost, "/api/settings", `{"gstin":"short"}`, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = f.do(t, http.MethodPost, "/api/settings", `{"name":"Spice Route","gstin":"27aapfu0939f1zv","tax_rate":12}`, cookie)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	saved := decode(t, rr)
	assert.Equal(t, "27AAPFU0939F1ZV", saved["gstin"])
	assert.EqualValues(t, 12, saved["tax_rate"])
}

func TestLoginRateLimited(t *testing.T) {
	f := newFixture(t, ratelimit.Config{RequestsPerMinute: 2, Methods: []string{http.MethodPost}})
	body := `{"email":"owner@example.com","password":"wrong"}`
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/login", body, nil).Code)
	}
	rr := f.do(t, http.MethodPost, "/login", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	// reads are not limited
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "", nil).Code)
}

func TestLiveStreamsEvents(t *testing.T) {
	f := newFixture(t, ratelimit.Config{})
	cookie := f.login(t)
	ts := httptest.NewServer(f.srv.Handler)
	defer ts.Close()

	baseline := f.hub.Subscribers()
	header := http.Header{}
	header.Set("Cookie", auth.CookieName+"="+cookie.Value)
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/live", header)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool { return f.hub.Subscribers() == baseline+1 }, time.Second, 5*time.Millisecond)

	f.hub.Publish(realtime.Event{Table: realtime.TableOrders, Op: realtime.OpUpdate, ID: "o-1"})
	f.hub.Publish(realtime.Event{Table: realtime.TableAny, Op: realtime.OpResync})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got liveEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, liveEvent{Type: "change", Table: "orders", Op: "UPDATE", ID: "o-1"}, got)
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "resync", got.Type)
}
