package core

import (
	"errors"
	"testing"
)

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		ID:       "t1",
		Type:     Expense,
		Amount:   Money{Cents: 1500},
		Category: "Food",
		Date:     "2025-06-15",
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid expense", func(*Transaction) {}, nil},
		{"valid income", func(tx *Transaction) { tx.Type = Income; tx.Category = "Salary" }, nil},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"negative amount", func(tx *Transaction) { tx.Amount.Cents = -1 }, ErrInvalidAmount},
		{"blank category", func(tx *Transaction) { tx.Category = "  " }, ErrEmptyCategory},
		{"category from wrong type", func(tx *Transaction) { tx.Category = "Salary" }, ErrUnknownCategory},
		{"made-up category", func(tx *Transaction) { tx.Category = "Yachts" }, ErrUnknownCategory},
		{"bad date", func(tx *Transaction) { tx.Date = "15/06/2025" }, ErrInvalidDate},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tx := valid
			tc.mutate(&tx)
			err := tx.Validate()
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestBudgetValidate(t *testing.T) {
	if err := (Budget{Category: "Food", AmountLimit: Money{Cents: 100}}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Budget{Category: "Food"}).Validate(); !errors.Is(err, ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
	if err := (Budget{AmountLimit: Money{Cents: 100}}).Validate(); !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
}

func TestDefaultBudgets(t *testing.T) {
	budgets := DefaultBudgets()
	if len(budgets) != len(ExpenseCategories()) {
		t.Fatalf("expected one budget per expense category, got %d", len(budgets))
	}
	for i, b := range budgets {
		if b.Category != ExpenseCategories()[i] {
			t.Fatalf("budget %d out of order: %+v", i, b)
		}
		if b.AmountLimit.Cents != DefaultBudgetLimitCents {
			t.Fatalf("unexpected default limit: %+v", b)
		}
	}
}

func TestIdentity(t *testing.T) {
	anon := Anonymous()
	if anon.IsAuthenticated() {
		t.Fatal("anonymous identity must not be authenticated")
	}
	if anon.StorageKey() != "local-guest" {
		t.Fatalf("unexpected anonymous storage key %q", anon.StorageKey())
	}

	user := Authenticated("user-42")
	if !user.IsAuthenticated() || user.UserID() != "user-42" {
		t.Fatalf("unexpected identity: %+v", user)
	}
	if user.StorageKey() != "user-42" {
		t.Fatalf("unexpected storage key %q", user.StorageKey())
	}

	if Authenticated("").IsAuthenticated() {
		t.Fatal("empty user id must degrade to anonymous")
	}
}
