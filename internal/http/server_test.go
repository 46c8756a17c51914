package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/persistence"
	"fintrack/internal/services"
	"fintrack/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts Options) (*Server, *persistence.Adapter) {
	t.Helper()
	adapter := persistence.NewAdapter(storage.NewMemorySlot(), persistence.DefaultKey, nil)
	store := ledger.NewStore(adapter.Load(context.Background()), adapter)
	svc := services.NewLedgerService(store, nil, services.NewViewCache(), nil)
	srv := NewServer("127.0.0.1:0", svc, nil, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, adapter
}

func do(t *testing.T, srv *Server, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

type listBody struct {
	Revision     uint64 `json:"revision"`
	Count        int    `json:"count"`
	Transactions []struct {
		ID       string  `json:"id"`
		Type     string  `json:"type"`
		Amount   float64 `json:"amount"`
		Category string  `json:"category"`
		Date     string  `json:"date"`
	} `json:"transactions"`
}

type mutationBody struct {
	Created     bool   `json:"created"`
	Revision    uint64 `json:"revision"`
	Transaction struct {
		ID     string  `json:"id"`
		Amount float64 `json:"amount"`
	} `json:"transaction"`
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}

	notReady, _ := newTestServer(t, Options{Ready: func(context.Context) error { return errors.New("slot down") }})
	rr := do(t, notReady, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestListReturnsSeedInStoreOrder(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rr := do(t, srv, http.MethodGet, "/api/transactions", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	body := decode[listBody](t, rr)
	require.Equal(t, 3, body.Count)
	assert.Equal(t, "1", body.Transactions[0].ID)
	assert.Equal(t, 35.5, body.Transactions[0].Amount)
}

func TestCreateJSONAndForm(t *testing.T) {
	srv, adapter := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/api/transactions", "application/json",
		`{"type":"expense","amount":12.5,"category":"Food","date":"2024-03-02","description":"Lunch"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Header().Get("HX-Trigger"), `"ledger:changed"`)

	created := decode[mutationBody](t, rr)
	assert.True(t, created.Created)
	assert.Equal(t, uint64(1), created.Revision)
	assert.NotEmpty(t, created.Transaction.ID)
	assert.Equal(t, 12.5, created.Transaction.Amount)

	form := url.Values{
		"type": {"income"}, "amount": {"99,90"}, "category": {"Freelance"}, "date": {"2024-03-05"},
	}
	rr = do(t, srv, http.MethodPost, "/api/transactions", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	stored := adapter.Load(context.Background())
	require.Len(t, stored, 5)
	assert.Equal(t, "99.9", stored[0].Amount.String())
	assert.Equal(t, created.Transaction.ID, stored[1].ID)
}

func TestCreateValidation(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	tests := map[string]struct {
		body string
		code int
		msg  string
	}{
		"bad type":       {`{"type":"transfer","amount":1,"category":"A","date":"2024-01-01"}`, 422, "type"},
		"zero amount":    {`{"type":"income","amount":0,"category":"A","date":"2024-01-01"}`, 422, "amount"},
		"negative":       {`{"type":"income","amount":"-3","category":"A","date":"2024-01-01"}`, 422, "amount"},
		"no category":    {`{"type":"income","amount":1,"category":" ","date":"2024-01-01"}`, 422, "category"},
		"bad date":       {`{"type":"income","amount":1,"category":"A","date":"01/02/2024"}`, 422, "date"},
		"malformed json": {`{"type":`, 400, "invalid"},
		"json array":     {`[1,2]`, 400, "invalid"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/transactions", "application/json", tt.body)
			assert.Equal(t, tt.code, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.msg)
			assert.Empty(t, rr.Header().Get("HX-Trigger"))
		})
	}
	assert.Len(t, decode[listBody](t, do(t, srv, http.MethodGet, "/api/transactions", "", "")).Transactions, 3)
}

func TestUpdateReplacesInPlaceAndInsertsUnknown(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPut, "/api/transactions/2", "application/json",
		`{"id":"ignored","type":"income","amount":"1500","category":"Salary","date":"2024-01-15"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decode[listBody](t, do(t, srv, http.MethodGet, "/api/transactions", "", ""))
	require.Equal(t, 3, body.Count)
	assert.Equal(t, "2", body.Transactions[1].ID)
	assert.Equal(t, 1500.0, body.Transactions[1].Amount)

	rr = do(t, srv, http.MethodPut, "/api/transactions/new-one", "application/json",
		`{"type":"expense","amount":"5","category":"Other","date":"2024-01-20"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	body = decode[listBody](t, do(t, srv, http.MethodGet, "/api/transactions", "", ""))
	assert.Equal(t, "new-one", body.Transactions[0].ID)
}

func TestGetAndDelete(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/transactions/3", "", "").Code)

	rr := do(t, srv, http.MethodDelete, "/api/transactions/3", "", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), `"op":"delete"`)

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/transactions/3", "", "").Code)

	rr = do(t, srv, http.MethodDelete, "/api/transactions/3", "", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Header().Get("HX-Trigger"))
}

func TestSearch(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	body := decode[listBody](t, do(t, srv, http.MethodGet, "/api/transactions/search?category=All", "", ""))
	require.Equal(t, 3, body.Count)
	assert.Equal(t, []string{"3", "2", "1"}, []string{body.Transactions[0].ID, body.Transactions[1].ID, body.Transactions[2].ID})

	body = decode[listBody](t, do(t, srv, http.MethodGet, "/api/transactions/search?q=SALARY", "", ""))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "2", body.Transactions[0].ID)

	body = decode[listBody](t, do(t, srv, http.MethodGet, "/api/transactions/search?from=2024-01-12&to=2024-01-31", "", ""))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "2", body.Transactions[0].ID)

	body = decode[listBody](t, do(t, srv, http.MethodGet, "/api/transactions/search?category=Housing", "", ""))
	assert.Equal(t, 0, body.Count)
	assert.NotNil(t, body.Transactions)
}

func TestSummary(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/api/summary", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"totals":{"income":1200,"expenses":95.5,"balance":1104.5}`)
	assert.Contains(t, rr.Body.String(), `"by_category":[{"category":"Transport","amount":60},{"category":"Salary","amount":0},{"category":"Food","amount":35.5}]`)
	assert.Contains(t, rr.Body.String(), `"by_month":[{"month":"2024-01","income":1200,"expense":35.5},{"month":"2024-02","income":0,"expense":60}]`)

	rr = do(t, srv, http.MethodGet, "/api/summary?category=Housing", "", "")
	assert.Contains(t, rr.Body.String(), `"totals":{"income":0,"expenses":0,"balance":0}`)
	assert.Contains(t, rr.Body.String(), `"by_category":[]`)
}

func TestCategories(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	var body struct {
		Categories []string `json:"categories"`
	}
	rr := do(t, srv, http.MethodGet, "/api/categories", "", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, core.DefaultCategories, body.Categories)
}

func TestMutationsAreRateLimited(t *testing.T) {
	srv, _ := newTestServer(t, Options{RateLimit: ratelimit.Config{RequestsPerMinute: 1}})

	payload := `{"type":"expense","amount":"1","category":"Food","date":"2024-01-01"}`
	assert.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/transactions", "application/json", payload).Code)

	rr := do(t, srv, http.MethodPost, "/api/transactions", "application/json", payload)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/transactions", "", "").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rr := do(t, srv, http.MethodPatch, "/api/transactions", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestMetricsReportsMiddlewareCounters(t *testing.T) {
	srv, _ := newTestServer(t, Options{RateLimit: ratelimit.Config{RequestsPerMinute: 1}})

	payload := `{"type":"expense","amount":"1","category":"Food","date":"2024-01-01"}`
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/transactions", "application/json", payload).Code)
	require.Equal(t, http.StatusTooManyRequests, do(t, srv, http.MethodPost, "/api/transactions", "application/json", payload).Code)
	require.Equal(t, http.StatusMethodNotAllowed, do(t, srv, "TRACE", "/", "", "").Code)

	rr := do(t, srv, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode[struct {
		TotalRequests   int64  `json:"total_requests"`
		BlockedRequests int64  `json:"blocked_requests"`
		RateLimited     int64  `json:"rate_limited"`
		Revision        uint64 `json:"revision"`
	}](t, rr)
	assert.GreaterOrEqual(t, body.TotalRequests, int64(3))
	assert.Equal(t, int64(1), body.BlockedRequests)
	assert.Equal(t, int64(1), body.RateLimited)
	assert.Equal(t, uint64(1), body.Revision)
}

type failingPersister struct{}

func (failingPersister) Save(context.Context, []core.Transaction) error {
	return errors.New("disk full")
}

func TestSaveFailureIsLoggedAndReturns500(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf, Format: "json"})
	svc := services.NewLedgerService(ledger.NewStore(nil, failingPersister{}), nil, services.NewViewCache(), nil)
	srv := NewServer("127.0.0.1:0", svc, logger, Options{})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	rr := do(t, srv, http.MethodPost, "/api/transactions", "application/json",
		`{"type":"expense","amount":"1","category":"Food","date":"2024-01-01"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "disk full")

	var found bool
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec))
		if rec["msg"] != "Upsert failed" {
			continue
		}
		found = true
		assert.Equal(t, "ERROR", rec["level"])
		assert.Equal(t, log.ComponentHTTP, rec[log.FieldComponent])
		assert.Equal(t, log.OpCreate, rec[log.FieldOperation])
		assert.Contains(t, rec[log.FieldError], "disk full")
		assert.NotEmpty(t, rec[log.FieldRequestID])
	}
	assert.True(t, found, buf.String())
}
