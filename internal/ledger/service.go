// Package ledger is the Record Store service: it owns each identity's
// transactions and budgets, persists every mutation locally before
// returning, and reconciles with the optional remote store under a
// local-first policy.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"wealthwise/internal/cache"
	"wealthwise/internal/core"
	"wealthwise/internal/remote"
	"wealthwise/internal/storage"
)

type SyncState string

const (
	// StateLocalOnly: no remote configured, identity not sync-eligible,
	// or the remote failed earlier this session.
	StateLocalOnly SyncState = "local-only"
	// StateSynced: the remote read succeeded this session.
	StateSynced SyncState = "synced"
)

const (
	aggregateCacheSize = 64
	aggregateCacheTTL  = 10 * time.Minute
)

type (
	// NewTransaction is the user-entered form input for one ledger entry.
	NewTransaction struct {
		Type        core.TransactionType
		Amount      string // raw user input, parsed and normalized here
		Category    string
		Date        string // ISO date; empty defaults to today
		Description string // empty defaults to the category
	}

	// Snapshot is the full ledger view for one identity.
	Snapshot struct {
		Transactions []core.Transaction `json:"transactions"`
		Budgets      []core.Budget      `json:"budgets"`
		SyncState    SyncState          `json:"sync_state"`
	}

	// Aggregates bundles the derived views so one cache entry covers all
	// three (they share the same inputs and invalidation).
	Aggregates struct {
		Summary   core.Summary          `json:"summary"`
		Breakdown []core.CategoryAmount `json:"breakdown"`
		Progress  []core.BudgetProgress `json:"budget_progress"`
	}
)

// session is the in-memory state for one identity. revision increments on
// every mutation and keys the aggregate memoization. Each session carries
// its own lock so one identity's slow remote reconciliation never blocks
// requests for other identities.
type session struct {
	mu sync.Mutex

	identity      core.Identity
	transactions  []core.Transaction
	budgets       []core.Budget
	state         SyncState
	revision      uint64
	loaded        bool
	syncAttempted bool
}

type Service struct {
	local  *storage.Store
	remote remote.Store // nil when no remote configured
	mirror Mirror       // nil when no remote configured

	aggregates *cache.LRUCache[Aggregates]

	mu       sync.Mutex // guards the sessions map only
	sessions map[string]*session

	now func() time.Time
}

func NewService(local *storage.Store, remoteStore remote.Store, mirror Mirror) *Service {
	return &Service{
		local:      local,
		remote:     remoteStore,
		mirror:     mirror,
		aggregates: cache.NewLRUCache[Aggregates](aggregateCacheSize, aggregateCacheTTL),
		sessions:   make(map[string]*session),
		now:        time.Now,
	}
}

// AggregateCache exposes the memoization cache for cleanup registration.
func (s *Service) AggregateCache() *cache.LRUCache[Aggregates] {
	return s.aggregates
}

// Load returns the ledger for an identity, establishing the session on
// first use: local state is read (corrupt snapshots are treated as absent),
// default budgets are seeded and persisted when none exist, and for an
// authenticated identity with a remote configured a one-shot remote
// reconciliation runs. Load never fails on remote errors.
func (s *Service) Load(ctx context.Context, identity core.Identity) (Snapshot, error) {
	sess := s.sessionFor(identity)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.establish(ctx, sess); err != nil {
		return Snapshot{}, err
	}
	return snapshotOf(sess), nil
}

// Transactions returns the newest-first transaction list, truncated to
// limit when limit > 0.
func (s *Service) Transactions(ctx context.Context, identity core.Identity, limit int) ([]core.Transaction, error) {
	sess := s.sessionFor(identity)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.establish(ctx, sess); err != nil {
		return nil, err
	}

	transactions := append([]core.Transaction(nil), sess.transactions...)
	if limit > 0 && limit < len(transactions) {
		transactions = transactions[:limit]
	}
	return transactions, nil
}

// AddTransaction validates and stores a new ledger entry at the front of
// the transaction sequence, persists, then mirrors best-effort.
func (s *Service) AddTransaction(ctx context.Context, identity core.Identity, input NewTransaction) (core.Transaction, error) {
	cents, err := core.ParseAmountToCents(input.Amount)
	if err != nil {
		return core.Transaction{}, err
	}

	date := strings.TrimSpace(input.Date)
	if date == "" {
		date = s.now().Format("2006-01-02")
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = input.Category
	}

	t := core.Transaction{
		ID:          uuid.NewString(),
		Type:        input.Type,
		Amount:      core.Money{Cents: cents},
		Category:    input.Category,
		Date:        date,
		Description: description,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	sess := s.sessionFor(identity)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.establish(ctx, sess); err != nil {
		return core.Transaction{}, err
	}

	// Newest-first ordering is an invariant the aggregation and
	// recent-N views depend on.
	sess.transactions = append([]core.Transaction{t}, sess.transactions...)
	sess.revision++

	if err := s.local.SaveTransactions(ctx, identity, sess.transactions); err != nil {
		// In-memory state is kept even when the durable write fails.
		slog.WarnContext(ctx, "Failed to persist transactions",
			"identity", identity.StorageKey(), "error", err)
	}

	s.mirrorMutation(ctx, sess, "insert", func(ctx context.Context) error {
		return s.mirror.MirrorInsert(ctx, identity, t)
	})

	return t, nil
}

// DeleteTransaction hard-deletes by id. An unknown id is a no-op, not an
// error, and triggers neither persist nor mirror.
func (s *Service) DeleteTransaction(ctx context.Context, identity core.Identity, id string) error {
	sess := s.sessionFor(identity)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.establish(ctx, sess); err != nil {
		return err
	}

	kept := make([]core.Transaction, 0, len(sess.transactions))
	removed := false
	for _, t := range sess.transactions {
		if t.ID == id {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	if !removed {
		return nil
	}

	sess.transactions = kept
	sess.revision++

	if err := s.local.SaveTransactions(ctx, identity, sess.transactions); err != nil {
		slog.WarnContext(ctx, "Failed to persist transactions",
			"identity", identity.StorageKey(), "error", err)
	}

	s.mirrorMutation(ctx, sess, "delete", func(ctx context.Context) error {
		return s.mirror.MirrorDelete(ctx, identity, id)
	})

	return nil
}

// UpdateBudgetLimit sets the limit for a category, creating the entry when
// it does not exist yet (upsert: the remote contract upserts by
// identity+category, and matching it locally keeps both sides convergent).
func (s *Service) UpdateBudgetLimit(ctx context.Context, identity core.Identity, category string, limitCents int64) error {
	b := core.Budget{Category: strings.TrimSpace(category), AmountLimit: core.Money{Cents: limitCents}}
	if err := b.Validate(); err != nil {
		return err
	}

	sess := s.sessionFor(identity)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.establish(ctx, sess); err != nil {
		return err
	}

	replaced := false
	for i := range sess.budgets {
		if sess.budgets[i].Category == b.Category {
			sess.budgets[i] = b
			replaced = true
			break
		}
	}
	if !replaced {
		sess.budgets = append(sess.budgets, b)
	}
	sess.revision++

	if err := s.local.SaveBudgets(ctx, identity, sess.budgets); err != nil {
		slog.WarnContext(ctx, "Failed to persist budgets",
			"identity", identity.StorageKey(), "error", err)
	}

	s.mirrorMutation(ctx, sess, "upsert_budget", func(ctx context.Context) error {
		return s.mirror.MirrorUpsertBudget(ctx, identity, b)
	})

	return nil
}

// Aggregate returns the derived views for an identity, memoized per
// identity+revision so unchanged ledgers don't recompute.
func (s *Service) Aggregate(ctx context.Context, identity core.Identity) (Aggregates, error) {
	sess := s.sessionFor(identity)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.establish(ctx, sess); err != nil {
		return Aggregates{}, err
	}

	key := identity.StorageKey() + ":" + strconv.FormatUint(sess.revision, 10)
	if cached, ok := s.aggregates.Get(key); ok {
		return cached, nil
	}

	aggregates := Aggregates{
		Summary:   core.Summarize(sess.transactions),
		Breakdown: core.CategoryBreakdown(sess.transactions),
		Progress:  core.ComputeBudgetProgress(sess.transactions, sess.budgets),
	}
	s.aggregates.Set(key, aggregates)
	return aggregates, nil
}

// sessionFor returns the session for an identity, creating it on first use.
func (s *Service) sessionFor(identity core.Identity) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := identity.StorageKey()
	sess, ok := s.sessions[key]
	if !ok {
		sess = &session{identity: identity, state: StateLocalOnly}
		s.sessions[key] = sess
	}
	return sess
}

// establish brings a session up on first use: local state is read, then the
// one-shot remote reconciliation runs if eligible. Caller holds sess.mu, so
// a slow remote read stalls only this identity.
func (s *Service) establish(ctx context.Context, sess *session) error {
	if !sess.loaded {
		if err := s.loadLocal(ctx, sess); err != nil {
			return err
		}
		sess.loaded = true
	}

	if s.remote != nil && sess.identity.IsAuthenticated() && !sess.syncAttempted {
		sess.syncAttempted = true
		s.reconcile(ctx, sess)
	}

	return nil
}

func (s *Service) loadLocal(ctx context.Context, sess *session) error {
	transactions, err := s.local.LoadTransactions(ctx, sess.identity)
	if err != nil {
		// Corrupt data is treated as absent: the ledger must always
		// come up.
		slog.WarnContext(ctx, "Discarding unreadable transaction snapshot",
			"identity", sess.identity.StorageKey(), "error", err)
		transactions = nil
	}
	budgets, err := s.local.LoadBudgets(ctx, sess.identity)
	if err != nil {
		slog.WarnContext(ctx, "Discarding unreadable budget snapshot",
			"identity", sess.identity.StorageKey(), "error", err)
		budgets = nil
	}

	if len(budgets) == 0 {
		// Seed and persist immediately so subsequent loads are stable.
		budgets = core.DefaultBudgets()
		if err := s.local.SaveBudgets(ctx, sess.identity, budgets); err != nil {
			slog.WarnContext(ctx, "Failed to persist seeded budgets",
				"identity", sess.identity.StorageKey(), "error", err)
		}
	}

	sess.transactions = transactions
	sess.budgets = budgets
	sess.revision++
	return nil
}

// reconcile runs the one-shot remote read for a session. On success the
// remote overwrites local transactions unconditionally, and budgets only if
// the remote set is non-empty (an empty remote result must not clobber
// locally seeded defaults). Any error leaves the session local-only for the
// rest of its life; a new session is needed to retry.
func (s *Service) reconcile(ctx context.Context, sess *session) {
	var (
		remoteTransactions []core.Transaction
		remoteBudgets      []core.Budget
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		remoteTransactions, err = s.remote.ListTransactions(gctx, sess.identity)
		return err
	})
	g.Go(func() error {
		var err error
		remoteBudgets, err = s.remote.ListBudgets(gctx, sess.identity)
		return err
	})

	if err := g.Wait(); err != nil {
		slog.WarnContext(ctx, "Remote read failed, staying local-only",
			"identity", sess.identity.StorageKey(), "error", err)
		sess.state = StateLocalOnly
		return
	}

	sess.transactions = remoteTransactions
	if len(remoteBudgets) > 0 {
		sess.budgets = remoteBudgets
	}
	sess.revision++

	if err := s.local.SaveTransactions(ctx, sess.identity, sess.transactions); err != nil {
		slog.WarnContext(ctx, "Failed to persist reconciled transactions",
			"identity", sess.identity.StorageKey(), "error", err)
	}
	if err := s.local.SaveBudgets(ctx, sess.identity, sess.budgets); err != nil {
		slog.WarnContext(ctx, "Failed to persist reconciled budgets",
			"identity", sess.identity.StorageKey(), "error", err)
	}

	sess.state = StateSynced
	slog.InfoContext(ctx, "Ledger reconciled with remote store",
		"identity", sess.identity.StorageKey(),
		"transactions", len(sess.transactions),
		"budgets", len(sess.budgets))
}

// mirrorMutation fires the best-effort mirror call for a local mutation.
// Failures are logged and swallowed; the local change stands, but the
// session flips to local-only.
func (s *Service) mirrorMutation(ctx context.Context, sess *session, op string, fn func(context.Context) error) {
	if s.mirror == nil || !sess.identity.IsAuthenticated() {
		return
	}
	if err := fn(ctx); err != nil {
		slog.WarnContext(ctx, "Mirror operation failed, continuing local-only",
			"identity", sess.identity.StorageKey(),
			"operation", op,
			"error", err)
		sess.state = StateLocalOnly
	}
}

func snapshotOf(sess *session) Snapshot {
	return Snapshot{
		Transactions: append([]core.Transaction(nil), sess.transactions...),
		Budgets:      append([]core.Budget(nil), sess.budgets...),
		SyncState:    sess.state,
	}
}

// Close closes the underlying local store.
func (s *Service) Close() error {
	if s.local != nil {
		if err := s.local.Close(); err != nil {
			return fmt.Errorf("close local store: %w", err)
		}
	}
	return nil
}
