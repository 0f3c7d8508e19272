// Package storage persists ledger snapshots locally. Each identity owns two
// rows in a key-value table: a JSON-serialized transaction list and a
// JSON-serialized budget list. The payload carries a schema version so
// future field changes can be detected instead of silently misread.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"wealthwise/internal/core"

	_ "modernc.org/sqlite"
)

// SchemaVersion is the current snapshot payload version.
const SchemaVersion = 1

const keyPrefix = "wealthwise"

// ErrCorruptSnapshot reports a persisted payload that failed the validating
// decode (malformed JSON or an unknown schema version). Callers treat the
// data as absent rather than propagating the malformed payload inward.
var ErrCorruptSnapshot = errors.New("corrupt ledger snapshot")

type snapshotEnvelope struct {
	SchemaVersion int             `json:"schema_version"`
	Data          json.RawMessage `json:"data"`
}

// Store is the local Record Store persistence layer.
type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LoadTransactions reads the persisted transaction list for an identity.
// Absence of data yields an empty list, not an error.
func (s *Store) LoadTransactions(ctx context.Context, identity core.Identity) ([]core.Transaction, error) {
	raw, found, err := s.read(ctx, transactionsKey(identity))
	if err != nil || !found {
		return nil, err
	}

	var transactions []core.Transaction
	if err := decodeSnapshot(raw, &transactions); err != nil {
		return nil, fmt.Errorf("transactions for %q: %w", identity.StorageKey(), err)
	}
	return transactions, nil
}

// LoadBudgets reads the persisted budget list for an identity. Absence of
// data yields an empty list, not an error.
func (s *Store) LoadBudgets(ctx context.Context, identity core.Identity) ([]core.Budget, error) {
	raw, found, err := s.read(ctx, budgetsKey(identity))
	if err != nil || !found {
		return nil, err
	}

	var budgets []core.Budget
	if err := decodeSnapshot(raw, &budgets); err != nil {
		return nil, fmt.Errorf("budgets for %q: %w", identity.StorageKey(), err)
	}
	return budgets, nil
}

// SaveTransactions replaces the persisted transaction list for an identity.
func (s *Store) SaveTransactions(ctx context.Context, identity core.Identity, transactions []core.Transaction) error {
	if err := s.write(ctx, transactionsKey(identity), transactions); err != nil {
		return fmt.Errorf("save transactions: %w", err)
	}

	slog.DebugContext(ctx, "Transactions snapshot persisted",
		"identity", identity.StorageKey(),
		"count", len(transactions))
	return nil
}

// SaveBudgets replaces the persisted budget list for an identity.
func (s *Store) SaveBudgets(ctx context.Context, identity core.Identity, budgets []core.Budget) error {
	if err := s.write(ctx, budgetsKey(identity), budgets); err != nil {
		return fmt.Errorf("save budgets: %w", err)
	}

	slog.DebugContext(ctx, "Budgets snapshot persisted",
		"identity", identity.StorageKey(),
		"count", len(budgets))
	return nil
}

func (s *Store) read(ctx context.Context, key string) (string, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM ledger_snapshots WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read snapshot %q: %w", key, err)
	}
	return payload, true, nil
}

func (s *Store) write(ctx context.Context, key string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	payload, err := json.Marshal(snapshotEnvelope{
		SchemaVersion: SchemaVersion,
		Data:          raw,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ledger_snapshots (key, payload, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`,
		key, string(payload))
	if err != nil {
		return fmt.Errorf("write snapshot %q: %w", key, err)
	}
	return nil
}

func decodeSnapshot(raw string, out any) error {
	var envelope snapshotEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if envelope.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: unknown schema version %d", ErrCorruptSnapshot, envelope.SchemaVersion)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return nil
}

func transactionsKey(identity core.Identity) string {
	return keyPrefix + "_transactions_" + identity.StorageKey()
}

func budgetsKey(identity core.Identity) string {
	return keyPrefix + "_budgets_" + identity.StorageKey()
}
