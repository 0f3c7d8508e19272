package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"wealthwise/internal/core"
	"wealthwise/internal/ledger"
	applog "wealthwise/internal/log"
)

// identity resolves the request's identity from its bearer token. Any
// resolution failure falls back to anonymous: an expired or bogus token
// gets the local-only guest ledger, never a 401.
func (s *Server) identity(r *http.Request) core.Identity {
	token := bearerToken(r)
	if token == "" || s.sessions == nil {
		return core.Anonymous()
	}

	identity, err := s.sessions.Resolve(r.Context(), token)
	if err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Session resolution failed, treating as anonymous", "error", err)
		return core.Anonymous()
	}
	return identity
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap, err := s.ledger.Load(r.Context(), s.identity(r))
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to load ledger", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load ledger")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	transactions, err := s.ledger.Transactions(r.Context(), s.identity(r), limit)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
}

type createTransactionRequest struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.ledger.AddTransaction(r.Context(), s.identity(r), ledger.NewTransaction{
		Type:        core.TransactionType(sanitizeInput(req.Type)),
		Amount:      sanitizeInput(req.Amount),
		Category:    sanitizeInput(req.Category),
		Date:        sanitizeInput(req.Date),
		Description: sanitizeInput(req.Description),
	})
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to create transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type deleteTransactionRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req deleteTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := s.ledger.DeleteTransaction(r.Context(), s.identity(r), req.ID); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to delete transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateBudgetRequest struct {
	Category         string `json:"category"`
	AmountLimitCents int64  `json:"amount_limit_cents"`
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req updateBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category := sanitizeInput(req.Category)
	if err := s.ledger.UpdateBudgetLimit(r.Context(), s.identity(r), category, req.AmountLimitCents); err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to update budget", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update budget")
		return
	}
	writeJSON(w, http.StatusOK, core.Budget{
		Category:    category,
		AmountLimit: core.Money{Cents: req.AmountLimitCents},
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.serveAggregate(w, r, func(agg ledger.Aggregates) any {
		return agg.Summary
	})
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	s.serveAggregate(w, r, func(agg ledger.Aggregates) any {
		return map[string]any{"breakdown": agg.Breakdown}
	})
}

func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	s.serveAggregate(w, r, func(agg ledger.Aggregates) any {
		return map[string]any{"budget_progress": agg.Progress}
	})
}

func (s *Server) serveAggregate(w http.ResponseWriter, r *http.Request, view func(ledger.Aggregates) any) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	agg, err := s.ledger.Aggregate(r.Context(), s.identity(r))
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to compute aggregates", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute aggregates")
		return
	}
	writeJSON(w, http.StatusOK, view(agg))
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	lang := strings.TrimSpace(r.URL.Query().Get("lang"))
	if lang != "th" {
		lang = "en"
	}

	agg, err := s.ledger.Aggregate(r.Context(), s.identity(r))
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to compute aggregates", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute aggregates")
		return
	}

	insights := s.insights.Generate(r.Context(), agg, lang)
	if insights == nil {
		insights = []core.AIInsight{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"insights": insights})
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidLimit,
		core.ErrInvalidType,
		core.ErrEmptyCategory,
		core.ErrUnknownCategory,
		core.ErrInvalidDate,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
