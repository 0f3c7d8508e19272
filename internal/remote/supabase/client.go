// Package supabase talks to a hosted Supabase project: PostgREST for the
// transaction and budget tables, GoTrue for session resolution. Every
// response goes through a validating decode so malformed remote data never
// propagates inward.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wealthwise/internal/core"
)

// ErrBadPayload reports a remote response that failed the validating decode.
var ErrBadPayload = errors.New("malformed remote payload")

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
}

func New(baseURL, anonKey string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" || anonKey == "" {
		return nil, fmt.Errorf("supabase URL and anon key are required")
	}
	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("supabase URL must use https: %s", baseURL)
	}

	return &Client{
		baseURL: baseURL,
		anonKey: anonKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}, nil
}

type transactionRow struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Type        string `json:"type"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

type budgetRow struct {
	UserID     string `json:"user_id"`
	Category   string `json:"category"`
	LimitCents int64  `json:"amount_limit_cents"`
}

// ListTransactions implements remote.TransactionLister.
func (c *Client) ListTransactions(ctx context.Context, identity core.Identity) ([]core.Transaction, error) {
	query := url.Values{}
	query.Set("user_id", "eq."+identity.UserID())
	query.Set("select", "*")
	query.Set("order", "date.desc")

	body, err := c.do(ctx, http.MethodGet, "/rest/v1/transactions?"+query.Encode(), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	var rows []transactionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("list transactions: %w: %v", ErrBadPayload, err)
	}

	transactions := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t := core.Transaction{
			ID:          row.ID,
			Type:        core.TransactionType(row.Type),
			Amount:      core.Money{Cents: row.AmountCents},
			Category:    row.Category,
			Date:        row.Date,
			Description: row.Description,
		}
		if row.ID == "" || !t.Type.Valid() || t.Amount.Cents < 0 {
			return nil, fmt.Errorf("list transactions: %w: row %+v", ErrBadPayload, row)
		}
		transactions = append(transactions, t)
	}
	return transactions, nil
}

// InsertTransaction implements remote.TransactionWriter.
func (c *Client) InsertTransaction(ctx context.Context, identity core.Identity, t core.Transaction) error {
	row := transactionRow{
		ID:          t.ID,
		UserID:      identity.UserID(),
		Type:        string(t.Type),
		AmountCents: t.Amount.Cents,
		Category:    t.Category,
		Date:        t.Date,
		Description: t.Description,
	}
	_, err := c.do(ctx, http.MethodPost, "/rest/v1/transactions", row, map[string]string{
		"Prefer": "return=minimal",
	})
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// DeleteTransaction implements remote.TransactionDeleter.
func (c *Client) DeleteTransaction(ctx context.Context, identity core.Identity, id string) error {
	query := url.Values{}
	query.Set("id", "eq."+id)
	query.Set("user_id", "eq."+identity.UserID())

	_, err := c.do(ctx, http.MethodDelete, "/rest/v1/transactions?"+query.Encode(), nil, nil)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// ListBudgets implements remote.BudgetLister.
func (c *Client) ListBudgets(ctx context.Context, identity core.Identity) ([]core.Budget, error) {
	query := url.Values{}
	query.Set("user_id", "eq."+identity.UserID())
	query.Set("select", "*")

	body, err := c.do(ctx, http.MethodGet, "/rest/v1/budgets?"+query.Encode(), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	var rows []budgetRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("list budgets: %w: %v", ErrBadPayload, err)
	}

	budgets := make([]core.Budget, 0, len(rows))
	for _, row := range rows {
		if row.Category == "" || row.LimitCents <= 0 {
			return nil, fmt.Errorf("list budgets: %w: row %+v", ErrBadPayload, row)
		}
		budgets = append(budgets, core.Budget{
			Category:    row.Category,
			AmountLimit: core.Money{Cents: row.LimitCents},
		})
	}
	return budgets, nil
}

// UpsertBudget implements remote.BudgetUpserter. The budgets table has a
// unique index on (user_id, category), so merge-duplicates gives
// last-write-wins per category.
func (c *Client) UpsertBudget(ctx context.Context, identity core.Identity, b core.Budget) error {
	row := budgetRow{
		UserID:     identity.UserID(),
		Category:   b.Category,
		LimitCents: b.AmountLimit.Cents,
	}
	_, err := c.do(ctx, http.MethodPost, "/rest/v1/budgets?on_conflict=user_id,category", row, map[string]string{
		"Prefer": "resolution=merge-duplicates,return=minimal",
	})
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, headers map[string]string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.anonKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
