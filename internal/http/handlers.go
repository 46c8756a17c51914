package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/query"
	"fintrack/internal/summary"

	"github.com/shopspring/decimal"
)

type listResponse struct {
	Revision     uint64             `json:"revision"`
	Count        int                `json:"count"`
	Transactions []core.Transaction `json:"transactions"`
}

type totalsResponse struct {
	Income   json.Number `json:"income"`
	Expenses json.Number `json:"expenses"`
	Balance  json.Number `json:"balance"`
}

type categoryResponse struct {
	Category string      `json:"category"`
	Amount   json.Number `json:"amount"`
}

type monthResponse struct {
	Month   string      `json:"month"`
	Income  json.Number `json:"income"`
	Expense json.Number `json:"expense"`
}

type summaryResponse struct {
	Revision   uint64             `json:"revision"`
	Count      int                `json:"count"`
	Totals     totalsResponse     `json:"totals"`
	ByCategory []categoryResponse `json:"by_category"`
	ByMonth    []monthResponse    `json:"by_month"`
}

type mutationResponse struct {
	Created     bool             `json:"created"`
	Revision    uint64           `json:"revision"`
	Transaction core.Transaction `json:"transaction"`
}

func num(d decimal.Decimal) json.Number { return json.Number(d.String()) }

func newSummaryResponse(rev uint64, count int, s summary.Summary) summaryResponse {
	out := summaryResponse{
		Revision: rev,
		Count:    count,
		Totals: totalsResponse{
			Income:   num(s.Totals.Income),
			Expenses: num(s.Totals.Expenses),
			Balance:  num(s.Totals.Balance),
		},
		ByCategory: make([]categoryResponse, 0, len(s.ByCategory)),
		ByMonth:    make([]monthResponse, 0, len(s.ByMonth)),
	}
	for _, c := range s.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryResponse{Category: c.Category, Amount: num(c.Amount)})
	}
	for _, m := range s.ByMonth {
		out.ByMonth = append(out.ByMonth, monthResponse{Month: m.Month, Income: num(m.Income), Expense: num(m.Expense)})
	}
	return out
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(ctx, "Readiness check failed", log.FieldError, err.Error())
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleList returns the unfiltered collection in store order.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	all := s.svc.GetAll()
	NewResponse().JSON(listResponse{
		Revision:     s.svc.Revision(),
		Count:        len(all),
		Transactions: all,
	}).Write(w)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	tx, ok := s.svc.Get(r.PathValue("id"))
	if !ok {
		NotFoundError("transaction not found").Write(w)
		return
	}
	NewResponse().JSON(tx).Write(w)
}

// handleSearch returns the filtered, date-descending view.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.View(r.Context(), query.ParseFilter(r.URL.Query()))
	if err != nil {
		s.internalError(w, r, "Search failed", log.OpQuery, err)
		return
	}
	NewResponse().JSON(listResponse{
		Revision:     v.Revision,
		Count:        len(v.Transactions),
		Transactions: v.Transactions,
	}).Write(w)
}

// handleSummary aggregates the view selected by the same parameters as search.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.View(r.Context(), query.ParseFilter(r.URL.Query()))
	if err != nil {
		s.internalError(w, r, "Summary failed", log.OpSummarize, err)
		return
	}
	NewResponse().JSON(newSummaryResponse(v.Revision, len(v.Transactions), v.Summary)).Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string][]string{"categories": s.svc.Categories()}).Write(w)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	s.upsert(w, r, "")
}

// handleUpdate replaces the transaction named in the path. An unknown id is inserted.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	s.upsert(w, r, r.PathValue("id"))
}

func (s *Server) upsert(w http.ResponseWriter, r *http.Request, pathID string) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	entry := p.Entry()
	if pathID != "" {
		entry.ID = pathID
	}

	tx, err := entry.Validate()
	if err != nil {
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}

	created, rev, err := s.svc.Upsert(r.Context(), tx)
	if err != nil {
		op := log.OpUpdate
		if created {
			op = log.OpCreate
		}
		s.internalError(w, r, "Upsert failed", op, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	NewResponse().
		Status(status).
		TriggerLedgerChanged(string(amqp.OpUpsert), tx.ID, rev).
		JSON(mutationResponse{Created: created, Revision: rev, Transaction: tx}).
		Write(w)
}

// handleDelete removes a transaction. Deleting an unknown id succeeds without a change event.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed, rev, err := s.svc.Remove(r.Context(), id)
	if err != nil {
		s.internalError(w, r, "Delete failed", log.OpDelete, err)
		return
	}
	b := NewResponse().Status(http.StatusNoContent)
	if removed {
		b.TriggerLedgerChanged(string(amqp.OpDelete), id, rev)
	}
	b.Write(w)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg, operation string, err error) {
	log.LogError(r.Context(), msg, err, log.ComponentHTTP, operation, log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery))
	InternalServerError("internal error").Write(w)
}

type metricsResponse struct {
	TotalRequests       int64  `json:"total_requests"`
	AverageResponseTime int64  `json:"average_response_time_us"`
	SuspiciousRequests  int64  `json:"suspicious_requests"`
	BlockedRequests     int64  `json:"blocked_requests"`
	RateLimited         int64  `json:"rate_limited"`
	Revision            uint64 `json:"revision"`
}

// handleMetrics reports the middleware counters of this process.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traced, detected, limited := s.Metrics()
	NewResponse().JSON(metricsResponse{
		TotalRequests:       traced.TotalRequests,
		AverageResponseTime: traced.AverageResponseTime,
		SuspiciousRequests:  detected.SuspiciousRequests,
		BlockedRequests:     detected.BlockedRequests,
		RateLimited:         limited,
		Revision:            s.svc.Revision(),
	}).Write(w)
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidType):
		return "type must be income or expense"
	case errors.Is(err, core.ErrInvalidAmount):
		return "amount must be a positive number"
	case errors.Is(err, core.ErrEmptyCategory):
		return "category is required"
	case errors.Is(err, core.ErrInvalidDate):
		return "date must use the YYYY-MM-DD format"
	default:
		return err.Error()
	}
}
