package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"wealthwise/internal/core"
	"wealthwise/internal/insight"
	"wealthwise/internal/ledger"
	"wealthwise/internal/remote/memory"
	"wealthwise/internal/storage"
)

func newTestServer(t *testing.T, remoteStore *memory.Store) *Server {
	t.Helper()

	local, err := storage.NewStore(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	var svc *ledger.Service
	if remoteStore != nil {
		svc = ledger.NewService(local, remoteStore, ledger.NewDirectMirror(remoteStore))
	} else {
		svc = ledger.NewService(local, nil, nil)
	}
	t.Cleanup(func() { svc.Close() })

	gateway, err := insight.New(context.Background(), "", "")
	if err != nil {
		t.Fatalf("create gateway: %v", err)
	}

	var srv *Server
	if remoteStore != nil {
		srv = NewServer(":0", svc, gateway, remoteStore, nil)
	} else {
		srv = NewServer(":0", svc, gateway, nil, nil)
	}
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv
}

func doRequest(s *Server, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doRequest(s, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCreateAndListTransactions(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodPost, "/api/transactions",
		`{"type":"expense","amount":"12.34","category":"Food"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created core.Transaction
	decodeBody(t, rec, &created)
	if created.ID == "" || created.Amount.Cents != 1234 {
		t.Fatalf("unexpected transaction: %+v", created)
	}
	if created.Description != "Food" {
		t.Fatalf("blank description must default to category, got %q", created.Description)
	}

	doRequest(s, http.MethodPost, "/api/transactions",
		`{"type":"income","amount":"100","category":"Salary"}`, nil)

	rec = doRequest(s, http.MethodGet, "/api/transactions?limit=1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var listed struct {
		Transactions []core.Transaction `json:"transactions"`
	}
	decodeBody(t, rec, &listed)
	if len(listed.Transactions) != 1 || listed.Transactions[0].Category != "Salary" {
		t.Fatalf("expected newest transaction only, got %+v", listed.Transactions)
	}
}

func TestCreateTransactionRejections(t *testing.T) {
	s := newTestServer(t, nil)

	// Malformed bodies are 400; well-formed bodies that fail domain
	// validation are 422.
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "not json", body: "amount=5", want: http.StatusBadRequest},
		{name: "unknown field", body: `{"type":"expense","amount":"5","category":"Food","extra":true}`, want: http.StatusBadRequest},
		{name: "bad amount", body: `{"type":"expense","amount":"abc","category":"Food"}`, want: http.StatusUnprocessableEntity},
		{name: "bad type", body: `{"type":"transfer","amount":"5","category":"Food"}`, want: http.StatusUnprocessableEntity},
		{name: "category of wrong type", body: `{"type":"expense","amount":"5","category":"Salary"}`, want: http.StatusUnprocessableEntity},
		{name: "bad date", body: `{"type":"expense","amount":"5","category":"Food","date":"tomorrow"}`, want: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/api/transactions", tt.body, nil)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestDeleteTransaction(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodPost, "/api/transactions",
		`{"type":"expense","amount":"5","category":"Food"}`, nil)
	var created core.Transaction
	decodeBody(t, rec, &created)

	rec = doRequest(s, http.MethodPost, "/api/transactions/delete",
		`{"id":"`+created.ID+`"}`, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	// Unknown ids are idempotent deletes.
	rec = doRequest(s, http.MethodPost, "/api/transactions/delete", `{"id":"nope"}`, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for unknown id, got %d", rec.Code)
	}

	rec = doRequest(s, http.MethodPost, "/api/transactions/delete", `{"id":""}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank id, got %d", rec.Code)
	}
}

func TestUpdateBudget(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodPost, "/api/budgets",
		`{"category":"Food","amount_limit_cents":75000}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(s, http.MethodPost, "/api/budgets",
		`{"category":"Food","amount_limit_cents":0}`, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for zero limit, got %d", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/api/budget-progress", "", nil)
	var progress struct {
		BudgetProgress []core.BudgetProgress `json:"budget_progress"`
	}
	decodeBody(t, rec, &progress)
	for _, p := range progress.BudgetProgress {
		if p.Category == "Food" && p.Limit.Cents != 75000 {
			t.Fatalf("budget update not reflected: %+v", p)
		}
	}
}

func TestSummary(t *testing.T) {
	s := newTestServer(t, nil)

	doRequest(s, http.MethodPost, "/api/transactions",
		`{"type":"income","amount":"1000","category":"Salary"}`, nil)
	doRequest(s, http.MethodPost, "/api/transactions",
		`{"type":"expense","amount":"400","category":"Food"}`, nil)

	rec := doRequest(s, http.MethodGet, "/api/summary", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var summary core.Summary
	decodeBody(t, rec, &summary)
	if summary.Balance.Cents != 60000 || summary.SavingsRate != 60 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestInsightsStandby(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodPost, "/api/insights?lang=en", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		Insights []core.AIInsight `json:"insights"`
	}
	decodeBody(t, rec, &payload)
	if len(payload.Insights) != 1 || payload.Insights[0].Priority != core.PriorityLow {
		t.Fatalf("expected one standby insight, got %+v", payload.Insights)
	}
}

func TestBearerTokenResolution(t *testing.T) {
	remoteStore := memory.New()
	remoteStore.AddSession("good-token", "user-9")
	if err := remoteStore.InsertTransaction(context.Background(), core.Authenticated("user-9"), core.Transaction{
		ID: "remote-1", Type: core.Expense, Amount: core.Money{Cents: 500}, Category: "Food", Date: "2025-06-01",
	}); err != nil {
		t.Fatalf("seed remote: %v", err)
	}

	s := newTestServer(t, remoteStore)

	auth := http.Header{"Authorization": []string{"Bearer good-token"}}
	rec := doRequest(s, http.MethodGet, "/api/ledger", "", auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap ledger.Snapshot
	decodeBody(t, rec, &snap)
	if snap.SyncState != ledger.StateSynced {
		t.Fatalf("authenticated session must sync, got %s", snap.SyncState)
	}
	if len(snap.Transactions) != 1 || snap.Transactions[0].ID != "remote-1" {
		t.Fatalf("expected remote transactions, got %+v", snap.Transactions)
	}

	// An unknown token degrades to the anonymous ledger, never a 401.
	bad := http.Header{"Authorization": []string{"Bearer bogus"}}
	rec = doRequest(s, http.MethodGet, "/api/ledger", "", bad)
	if rec.Code != http.StatusOK {
		t.Fatalf("bad token must not be rejected, got %d", rec.Code)
	}
	decodeBody(t, rec, &snap)
	if snap.SyncState != ledger.StateLocalOnly {
		t.Fatalf("anonymous fallback must be local-only, got %s", snap.SyncState)
	}
	if len(snap.Transactions) != 0 {
		t.Fatalf("anonymous ledger must not see user data: %+v", snap.Transactions)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodDelete, "/api/ledger"},
		{http.MethodPut, "/api/transactions"},
		{http.MethodGet, "/api/insights"},
		{http.MethodGet, "/api/transactions/delete"},
	} {
		rec := doRequest(s, tc.method, tc.path, "", nil)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: expected 405, got %d", tc.method, tc.path, rec.Code)
		}
	}
}
