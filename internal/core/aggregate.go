package core

import "sort"

type (
	// Summary holds the headline totals for a transaction list.
	Summary struct {
		Income      Money   `json:"income"`
		Expenses    Money   `json:"expenses"`
		Balance     Money   `json:"balance"`
		SavingsRate float64 `json:"savings_rate"`
	}

	// CategoryAmount is one slice of the expense distribution.
	CategoryAmount struct {
		Category string `json:"category"`
		Value    Money  `json:"value"`
	}

	// BudgetProgress reports how much of one category's limit is spent.
	// Percentage is clamped to [0, 100]; callers needing the true overrun
	// ratio must compute Spent/Limit themselves.
	BudgetProgress struct {
		Category   string  `json:"category"`
		Spent      Money   `json:"spent"`
		Limit      Money   `json:"limit"`
		Percentage float64 `json:"percentage"`
	}
)

// Summarize computes income, expenses, balance and savings rate for a
// transaction list. The savings rate is 0 when there is no income; that is
// a policy choice to avoid division by zero, not an error.
func Summarize(transactions []Transaction) Summary {
	var income, expenses int64
	for _, t := range transactions {
		switch t.Type {
		case Income:
			income += t.Amount.Cents
		case Expense:
			expenses += t.Amount.Cents
		}
	}

	var savingsRate float64
	if income > 0 {
		savingsRate = float64(income-expenses) / float64(income) * 100
	}

	return Summary{
		Income:      Money{Cents: income},
		Expenses:    Money{Cents: expenses},
		Balance:     Money{Cents: income - expenses},
		SavingsRate: savingsRate,
	}
}

// CategoryBreakdown sums expense amounts grouped by category. Entries appear
// in first-occurrence order; categories without expense transactions are
// absent, not zero-valued.
func CategoryBreakdown(transactions []Transaction) []CategoryAmount {
	sums := make(map[string]int64)
	var order []string
	for _, t := range transactions {
		if t.Type != Expense {
			continue
		}
		if _, seen := sums[t.Category]; !seen {
			order = append(order, t.Category)
		}
		sums[t.Category] += t.Amount.Cents
	}

	breakdown := make([]CategoryAmount, 0, len(order))
	for _, c := range order {
		breakdown = append(breakdown, CategoryAmount{
			Category: c,
			Value:    Money{Cents: sums[c]},
		})
	}
	return breakdown
}

// ComputeBudgetProgress reports spending against every budget entry, sorted
// by spent descending (highest spender first). The sort is stable so budgets
// with equal spending keep their input order. A limit <= 0 reports 0%.
func ComputeBudgetProgress(transactions []Transaction, budgets []Budget) []BudgetProgress {
	spentByCategory := make(map[string]int64)
	for _, t := range transactions {
		if t.Type == Expense {
			spentByCategory[t.Category] += t.Amount.Cents
		}
	}

	progress := make([]BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		spent := spentByCategory[b.Category]

		var percentage float64
		if b.AmountLimit.Cents > 0 {
			percentage = float64(spent) / float64(b.AmountLimit.Cents) * 100
			if percentage > 100 {
				percentage = 100
			}
		}

		progress = append(progress, BudgetProgress{
			Category:   b.Category,
			Spent:      Money{Cents: spent},
			Limit:      b.AmountLimit,
			Percentage: percentage,
		})
	}

	sort.SliceStable(progress, func(i, j int) bool {
		return progress[i].Spent.Cents > progress[j].Spent.Cents
	})

	return progress
}
