package worker

import (
	"context"
	"errors"
	"testing"

	"wealthwise/internal/amqp"
	"wealthwise/internal/core"
	"wealthwise/internal/remote/memory"
)

func TestHandleMirrorMessage(t *testing.T) {
	ctx := context.Background()
	identity := core.Authenticated("user-1")
	tx := core.Transaction{
		ID: "tx-1", Type: core.Expense, Amount: core.Money{Cents: 1500},
		Category: "Food", Date: "2025-04-01", Description: "lunch",
	}

	remoteStore := memory.New()
	w := NewMirrorWorker(remoteStore)

	if err := w.HandleMirrorMessage(ctx, amqp.NewInsertMessage(identity, tx)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	listed, _ := remoteStore.ListTransactions(ctx, identity)
	if len(listed) != 1 || listed[0].ID != "tx-1" {
		t.Fatalf("insert not applied: %+v", listed)
	}

	budget := core.Budget{Category: "Food", AmountLimit: core.Money{Cents: 60000}}
	if err := w.HandleMirrorMessage(ctx, amqp.NewUpsertBudgetMessage(identity, budget)); err != nil {
		t.Fatalf("upsert budget: %v", err)
	}
	budgets, _ := remoteStore.ListBudgets(ctx, identity)
	if len(budgets) != 1 || budgets[0].AmountLimit.Cents != 60000 {
		t.Fatalf("budget not applied: %+v", budgets)
	}

	if err := w.HandleMirrorMessage(ctx, amqp.NewDeleteMessage(identity, "tx-1")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	listed, _ = remoteStore.ListTransactions(ctx, identity)
	if len(listed) != 0 {
		t.Fatalf("delete not applied: %+v", listed)
	}
}

func TestHandleMirrorMessageRemoteFailure(t *testing.T) {
	remoteStore := memory.New()
	remoteStore.FailWith(errors.New("remote down"))
	w := NewMirrorWorker(remoteStore)

	msg := amqp.NewDeleteMessage(core.Authenticated("user-1"), "tx-1")
	if err := w.HandleMirrorMessage(context.Background(), msg); err == nil {
		t.Fatal("remote failure must propagate so the message requeues")
	}
}

func TestHandleMirrorMessageUnknownOp(t *testing.T) {
	w := NewMirrorWorker(memory.New())
	msg := &amqp.MirrorMessage{Op: "compact", UserID: "user-1"}
	if err := w.HandleMirrorMessage(context.Background(), msg); err != nil {
		t.Fatalf("unknown operation must be dropped without error, got %v", err)
	}
}
