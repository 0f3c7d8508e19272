package core

import (
	"reflect"
	"testing"
)

func tx(typ TransactionType, cents int64, category string) Transaction {
	return Transaction{
		ID:       category + "-" + string(typ),
		Type:     typ,
		Amount:   Money{Cents: cents},
		Category: category,
		Date:     "2025-06-15",
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		txs  []Transaction
		want Summary
	}{
		{
			name: "empty ledger",
			txs:  nil,
			want: Summary{},
		},
		{
			name: "income and expense",
			txs: []Transaction{
				tx(Income, 100000, "Salary"),
				tx(Expense, 40000, "Food"),
			},
			want: Summary{
				Income:      Money{Cents: 100000},
				Expenses:    Money{Cents: 40000},
				Balance:     Money{Cents: 60000},
				SavingsRate: 60,
			},
		},
		{
			name: "expenses without income keep savings rate at zero",
			txs: []Transaction{
				tx(Expense, 5000, "Food"),
			},
			want: Summary{
				Expenses:    Money{Cents: 5000},
				Balance:     Money{Cents: -5000},
				SavingsRate: 0,
			},
		},
		{
			name: "overspending yields negative savings rate",
			txs: []Transaction{
				tx(Income, 10000, "Salary"),
				tx(Expense, 15000, "Shopping"),
			},
			want: Summary{
				Income:      Money{Cents: 10000},
				Expenses:    Money{Cents: 15000},
				Balance:     Money{Cents: -5000},
				SavingsRate: -50,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Summarize(tc.txs)
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
			if got.Balance.Cents != got.Income.Cents-got.Expenses.Cents {
				t.Fatalf("balance invariant violated: %+v", got)
			}
		})
	}
}

func TestCategoryBreakdown(t *testing.T) {
	txs := []Transaction{
		tx(Expense, 1000, "Food"),
		tx(Income, 99999, "Salary"), // income never contributes
		tx(Expense, 2500, "Transportation"),
		tx(Expense, 500, "Food"),
	}

	got := CategoryBreakdown(txs)
	want := []CategoryAmount{
		{Category: "Food", Value: Money{Cents: 1500}},
		{Category: "Transportation", Value: Money{Cents: 2500}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	// Pure function: same input, same output.
	again := CategoryBreakdown(txs)
	if !reflect.DeepEqual(got, again) {
		t.Fatalf("breakdown not deterministic: %+v vs %+v", got, again)
	}

	if len(CategoryBreakdown(nil)) != 0 {
		t.Fatal("expected empty breakdown for empty ledger")
	}
}

func TestComputeBudgetProgress(t *testing.T) {
	budgets := []Budget{
		{Category: "Food", AmountLimit: Money{Cents: 50000}},
		{Category: "Housing", AmountLimit: Money{Cents: 80000}},
		{Category: "Shopping", AmountLimit: Money{Cents: 20000}},
	}

	t.Run("scenario from the ledger contract", func(t *testing.T) {
		txs := []Transaction{
			tx(Income, 100000, "Salary"),
			tx(Expense, 40000, "Food"),
		}
		got := ComputeBudgetProgress(txs, budgets)
		if got[0].Category != "Food" || got[0].Spent.Cents != 40000 || got[0].Percentage != 80 {
			t.Fatalf("unexpected food progress: %+v", got[0])
		}
	})

	t.Run("over budget clamps at 100", func(t *testing.T) {
		txs := []Transaction{tx(Expense, 60000, "Food")}
		got := ComputeBudgetProgress(txs, budgets)
		if got[0].Percentage != 100 {
			t.Fatalf("expected clamp at 100, got %v", got[0].Percentage)
		}
		if got[0].Spent.Cents != 60000 {
			t.Fatalf("spent must keep the true value, got %d", got[0].Spent.Cents)
		}
	})

	t.Run("sorted by spent descending, stable on ties", func(t *testing.T) {
		txs := []Transaction{
			tx(Expense, 1000, "Housing"),
			tx(Expense, 9000, "Shopping"),
		}
		got := ComputeBudgetProgress(txs, budgets)
		if got[0].Category != "Shopping" || got[1].Category != "Housing" {
			t.Fatalf("unexpected order: %+v", got)
		}
		// Food spent 0 ties with nothing here; with no spending at all,
		// budget input order must be retained.
		idle := ComputeBudgetProgress(nil, budgets)
		for i, b := range budgets {
			if idle[i].Category != b.Category {
				t.Fatalf("tie-break order broken: %+v", idle)
			}
			if idle[i].Percentage != 0 || idle[i].Spent.Cents != 0 {
				t.Fatalf("expected zero progress, got %+v", idle[i])
			}
		}
	})

	t.Run("non-positive limit reports zero percent", func(t *testing.T) {
		broken := []Budget{{Category: "Food", AmountLimit: Money{Cents: 0}}}
		txs := []Transaction{tx(Expense, 1234, "Food")}
		got := ComputeBudgetProgress(txs, broken)
		if got[0].Percentage != 0 {
			t.Fatalf("expected 0%% for zero limit, got %v", got[0].Percentage)
		}
	})

	t.Run("percentage stays within bounds", func(t *testing.T) {
		txs := []Transaction{
			tx(Expense, 123456, "Food"),
			tx(Expense, 7, "Housing"),
		}
		for _, p := range ComputeBudgetProgress(txs, budgets) {
			if p.Percentage < 0 || p.Percentage > 100 {
				t.Fatalf("percentage out of bounds: %+v", p)
			}
		}
	})
}
