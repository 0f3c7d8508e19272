// Package worker applies queued mirror messages to the remote store.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"wealthwise/internal/amqp"
	"wealthwise/internal/core"
	"wealthwise/internal/remote"
)

// MirrorWorker consumes mirror messages and replays them against the
// remote store. A returned error requeues the message, so transient remote
// failures retry until the remote recovers.
type MirrorWorker struct {
	remote remote.Store
}

func NewMirrorWorker(remoteStore remote.Store) *MirrorWorker {
	return &MirrorWorker{remote: remoteStore}
}

// HandleMirrorMessage applies one mutation to the remote store.
func (w *MirrorWorker) HandleMirrorMessage(ctx context.Context, msg *amqp.MirrorMessage) error {
	identity := core.Authenticated(msg.UserID)

	slog.InfoContext(ctx, "Processing mirror message",
		"operation", msg.Op,
		"identity", identity.StorageKey())

	switch msg.Op {
	case amqp.OpInsertTransaction:
		if err := w.remote.InsertTransaction(ctx, identity, *msg.Transaction); err != nil {
			return fmt.Errorf("insert transaction %s: %w", msg.Transaction.ID, err)
		}
	case amqp.OpDeleteTransaction:
		if err := w.remote.DeleteTransaction(ctx, identity, msg.TransactionID); err != nil {
			return fmt.Errorf("delete transaction %s: %w", msg.TransactionID, err)
		}
	case amqp.OpUpsertBudget:
		if err := w.remote.UpsertBudget(ctx, identity, *msg.Budget); err != nil {
			return fmt.Errorf("upsert budget %s: %w", msg.Budget.Category, err)
		}
	default:
		// Unknown operations are dropped rather than requeued forever.
		slog.WarnContext(ctx, "Dropping mirror message with unknown operation", "operation", msg.Op)
		return nil
	}

	return nil
}
