package balances

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaq/novaq-dashboard/internal/customers"
	"github.com/novaq/novaq-dashboard/internal/shared"
	"github.com/novaq/novaq-dashboard/internal/view"
)

type stubLister struct {
	accountant string
}

func (s *stubLister) ListForAccountant(_ context.Context, _ string, accountantOid string) ([]customers.Customer, error) {
	s.accountant = accountantOid
	return []customers.Customer{{Oid: "c-1", CustomerID: "1234567", CustomerName: "Алтан ХХК"}}, nil
}

func newTestRouter(t *testing.T, b *stubBackend, lister *stubLister) http.Handler {
	t.Helper()
	engine, err := view.NewEngine()
	require.NoError(t, err)
	h := NewHandler(nil, NewService(b, nil), lister, engine, shared.NewCSRFManager("test-secret", false))
	h.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess := &shared.SessionData{Token: "tok", User: &shared.User{Oid: "u-1", AccountantOid: "acc-1"}}
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	r.Route("/internal", h.MountAPI)
	r.Route("/dashboard/finance-and-report", h.MountRoutes)
	return r
}

func do(router http.Handler, method, target, body, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAPIListsFallBackToEmpty(t *testing.T) {
	router := newTestRouter(t, newStubBackend(), &stubLister{})
	for _, path := range []string{
		"/internal/v1/account",
		"/internal/v1/account-period-balance?year=2024",
		"/internal/v1/account-period-balance-item?accountPeriodBalanceOid=bal-1",
		"/internal/v1/account-period-balance-item",
	} {
		rec := do(router, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `[]`, rec.Body.String(), path)
	}
}

func TestAPICreateReportsResult(t *testing.T) {
	b := newStubBackend()
	b.failAccounts["a2"] = true
	router := newTestRouter(t, b, &stubLister{})

	body := `{"YearType":2024,"CustomerOid":"c-1","items":[{"AccountOid":"a1","ActiveAmount":5},{"AccountOid":"a2"}]}`
	rec := do(router, http.MethodPost, "/internal/v1/account-period-balance", body, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	var res Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Success)
	assert.Equal(t, []int{2}, res.FailedRows)
	assert.Equal(t, "bal-1", res.AccountPeriodBalanceOid)

	rec = do(router, http.MethodPost, "/internal/v1/account-period-balance", `{"YearType":2024}`, "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Validation failed")
}

func TestAPIUpdateRequiresParent(t *testing.T) {
	router := newTestRouter(t, newStubBackend(), &stubLister{})
	rec := do(router, http.MethodPut, "/internal/v1/account-period-balance-item", `{"items":[{"AccountOid":"a1"}]}`, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"`+MsgParentRequired+`"}`, rec.Body.String())
}

func TestListPageShowsTotalsAndFilters(t *testing.T) {
	b := newStubBackend()
	b.gets[BalancePath+"?year=2024"] = `[{"Oid":"bal-1","YearType":2024,"CustomerName":"Алтан ХХК","ActiveAmount":1000,"PassiveAmount":250.5},{"Oid":"bal-2","YearType":2024,"CustomerName":"Бор ХХК","ActiveAmount":500}]`
	lister := &stubLister{}
	router := newTestRouter(t, b, lister)

	rec := do(router, http.MethodGet, "/dashboard/finance-and-report?year=2024", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "Алтан ХХК")
	assert.Contains(t, page, "Нийт")
	assert.Contains(t, page, view.FormatAmount(amount(1500)))
	assert.Contains(t, page, EditPath("bal-1"))
	assert.Equal(t, "acc-1", lister.accountant)

	rec = do(router, http.MethodGet, "/dashboard/finance-and-report/export.csv?year=2024&q=алтан", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(rec.Body.String(), "\ufeff")), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Он,Регистр,Харилцагч,Актив,Пассив", lines[0])
	assert.Equal(t, "2024,,Алтан ХХК,1000.00,250.50", lines[1])
	assert.Equal(t, ",,Нийт,1000.00,250.50", lines[2])
}

func TestListPageWarnsWhenBackendFails(t *testing.T) {
	router := newTestRouter(t, newStubBackend(), &stubLister{})
	rec := do(router, http.MethodGet, "/dashboard/finance-and-report", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), MsgListFailed)
}

func TestNewFormSubmit(t *testing.T) {
	b := newStubBackend()
	router := newTestRouter(t, b, &stubLister{})
	form := "application/x-www-form-urlencoded"

	rec := do(router, http.MethodGet, "/dashboard/finance-and-report/new", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Алтан ХХК")
	assert.Equal(t, blankRows, strings.Count(rec.Body.String(), `name="AccountOid"`))

	values := url.Values{"intent": {IntentAddRow}, "YearType": {"2024"}, "CustomerOid": {"c-1"}, "AccountOid": {"a1", ""}, "ActiveAmount": {"10", ""}}
	rec = do(router, http.MethodPost, "/dashboard/finance-and-report/new", values.Encode(), form)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, strings.Count(rec.Body.String(), `name="AccountOid"`))
	assert.Empty(t, b.calls)

	values.Set("intent", IntentSubmit)
	rec = do(router, http.MethodPost, "/dashboard/finance-and-report/new", values.Encode(), form)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, listPath, rec.Header().Get("Location"))
	assert.Len(t, b.callsTo(ItemPath), 1)
}

func TestNewFormPartialFailureRedirectsToEdit(t *testing.T) {
	b := newStubBackend()
	b.failAccounts["a2"] = true
	router := newTestRouter(t, b, &stubLister{})

	values := url.Values{"YearType": {"2024"}, "CustomerOid": {"c-1"}, "AccountOid": {"a1", "a2"}}
	rec := do(router, http.MethodPost, "/dashboard/finance-and-report/new", values.Encode(), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, EditPath("bal-1"), rec.Header().Get("Location"))
}

func TestNewFormValidationRerenders(t *testing.T) {
	b := newStubBackend()
	router := newTestRouter(t, b, &stubLister{})

	values := url.Values{"YearType": {"2024"}, "AccountOid": {"a1"}}
	rec := do(router, http.MethodPost, "/dashboard/finance-and-report/new", values.Encode(), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Харилцагч сонгоно уу")
	assert.Empty(t, b.calls)
}

func TestEditPage(t *testing.T) {
	b := newStubBackend()
	b.gets[BalancePath] = `[{"Oid":"bal-1","YearType":2024,"CustomerOid":"c-1"}]`
	b.gets[ItemPath+"?accountPeriodBalanceOid=bal-1"] = `[{"Oid":"item-1","AccountOid":"a1","ActiveAmount":10}]`
	router := newTestRouter(t, b, &stubLister{})

	rec := do(router, http.MethodGet, EditPath("bal-1"), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="ItemOid" value="item-1"`)

	rec = do(router, http.MethodGet, EditPath("missing"), "", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, listPath, rec.Header().Get("Location"))

	values := url.Values{"YearType": {"2024"}, "CustomerOid": {"c-1"}, "ItemOid": {"item-1", ""}, "AccountOid": {"a1", "a2"}}
	rec = do(router, http.MethodPost, EditPath("bal-1"), values.Encode(), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, EditPath("bal-1"), rec.Header().Get("Location"))
	assert.Len(t, b.callsTo(ItemPath), 2)
}
