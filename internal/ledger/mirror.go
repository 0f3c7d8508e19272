package ledger

import (
	"context"

	"wealthwise/internal/amqp"
	"wealthwise/internal/core"
	"wealthwise/internal/remote"
)

// Mirror carries local mutations toward the remote store. Failures are the
// caller's to log and swallow: mirroring is best-effort and never rolls
// back a local change.
type Mirror interface {
	MirrorInsert(ctx context.Context, identity core.Identity, t core.Transaction) error
	MirrorDelete(ctx context.Context, identity core.Identity, transactionID string) error
	MirrorUpsertBudget(ctx context.Context, identity core.Identity, b core.Budget) error
}

// QueueMirror publishes mutations to the durable AMQP queue; the mirror
// worker applies them to the remote store. This survives remote outages
// that outlive the HTTP request.
type QueueMirror struct {
	client *amqp.Client
}

func NewQueueMirror(client *amqp.Client) *QueueMirror {
	return &QueueMirror{client: client}
}

func (m *QueueMirror) MirrorInsert(ctx context.Context, identity core.Identity, t core.Transaction) error {
	return m.client.PublishMirror(ctx, amqp.NewInsertMessage(identity, t))
}

func (m *QueueMirror) MirrorDelete(ctx context.Context, identity core.Identity, transactionID string) error {
	return m.client.PublishMirror(ctx, amqp.NewDeleteMessage(identity, transactionID))
}

func (m *QueueMirror) MirrorUpsertBudget(ctx context.Context, identity core.Identity, b core.Budget) error {
	return m.client.PublishMirror(ctx, amqp.NewUpsertBudgetMessage(identity, b))
}

// DirectMirror applies mutations to the remote store inline. Used when no
// queue is configured.
type DirectMirror struct {
	store remote.Store
}

func NewDirectMirror(store remote.Store) *DirectMirror {
	return &DirectMirror{store: store}
}

func (m *DirectMirror) MirrorInsert(ctx context.Context, identity core.Identity, t core.Transaction) error {
	return m.store.InsertTransaction(ctx, identity, t)
}

func (m *DirectMirror) MirrorDelete(ctx context.Context, identity core.Identity, transactionID string) error {
	return m.store.DeleteTransaction(ctx, identity, transactionID)
}

func (m *DirectMirror) MirrorUpsertBudget(ctx context.Context, identity core.Identity, b core.Budget) error {
	return m.store.UpsertBudget(ctx, identity, b)
}
