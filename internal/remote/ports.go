// Package remote defines the ports for the optional cloud mirror: a minimal
// row-store contract (select, insert, delete, upsert) and a session
// provider. Any networked document or row store satisfies these.
package remote

import (
	"context"

	"wealthwise/internal/core"
)

type (
	TransactionLister interface {
		// ListTransactions returns the remote transactions for an
		// identity, ordered by date descending.
		ListTransactions(ctx context.Context, identity core.Identity) ([]core.Transaction, error)
	}

	TransactionWriter interface {
		InsertTransaction(ctx context.Context, identity core.Identity, t core.Transaction) error
	}

	TransactionDeleter interface {
		DeleteTransaction(ctx context.Context, identity core.Identity, id string) error
	}

	BudgetLister interface {
		ListBudgets(ctx context.Context, identity core.Identity) ([]core.Budget, error)
	}

	// BudgetUpserter writes a budget row keyed by (identity, category);
	// an existing row for that key is replaced.
	BudgetUpserter interface {
		UpsertBudget(ctx context.Context, identity core.Identity, b core.Budget) error
	}

	// SessionProvider resolves a bearer token to an identity. The core
	// only needs "is there a current identity" and "what is its id".
	SessionProvider interface {
		Resolve(ctx context.Context, accessToken string) (core.Identity, error)
	}
)

// Store is the full capability set the sync reconciler mirrors against.
type Store interface {
	TransactionLister
	TransactionWriter
	TransactionDeleter
	BudgetLister
	BudgetUpserter
}
