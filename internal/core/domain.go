package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	PriorityLow    InsightPriority = "low"
	PriorityMedium InsightPriority = "medium"
	PriorityHigh   InsightPriority = "high"
)

// DefaultBudgetLimitCents is the limit seeded for every expense category
// when an identity has no budgets yet.
const DefaultBudgetLimitCents int64 = 50000

type (
	TransactionType string

	InsightPriority string

	// Transaction is a single ledger entry. Amount is always a magnitude;
	// the direction of cash flow is carried by Type alone.
	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Amount      Money           `json:"amount"`
		Category    string          `json:"category"`
		Date        string          `json:"date"` // ISO 8601 calendar date
		Description string          `json:"description"`
	}

	// Budget is a monthly spending ceiling for one expense category.
	// At most one entry per category.
	Budget struct {
		Category    string `json:"category"`
		AmountLimit Money  `json:"amount_limit"`
	}

	// AIInsight is one advisory record from the insight gateway. It is
	// session-scoped and never persisted.
	AIInsight struct {
		Title          string          `json:"title"`
		Recommendation string          `json:"recommendation"`
		Priority       InsightPriority `json:"priority"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidLimit    = errors.New("invalid budget limit")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrEmptyCategory   = errors.New("empty category")
	ErrUnknownCategory = errors.New("unknown category for transaction type")
	ErrInvalidDate     = errors.New("invalid date")
)

var expenseCategories = []string{
	"Housing", "Food", "Transportation", "Entertainment", "Shopping",
	"Health", "Education", "Investment", "Utilities", "Other",
}

var incomeCategories = []string{
	"Salary", "Freelance", "Gifts", "Investments", "Other",
}

// CategoriesFor returns the known category set for a transaction type.
// The returned slice must not be mutated.
func CategoriesFor(t TransactionType) []string {
	switch t {
	case Income:
		return incomeCategories
	case Expense:
		return expenseCategories
	default:
		return nil
	}
}

// ExpenseCategories returns the category set budgets are seeded from.
func ExpenseCategories() []string {
	return expenseCategories
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (p InsightPriority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	known := false
	for _, c := range CategoriesFor(t.Type) {
		if c == t.Category {
			known = true
			break
		}
	}
	if !known {
		return ErrUnknownCategory
	}
	if _, err := time.Parse("2006-01-02", t.Date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.AmountLimit.Cents <= 0 {
		return ErrInvalidLimit
	}
	return nil
}

// DefaultBudgets synthesizes one budget per known expense category at the
// default limit. Used when an identity has no persisted budgets.
func DefaultBudgets() []Budget {
	budgets := make([]Budget, 0, len(expenseCategories))
	for _, c := range expenseCategories {
		budgets = append(budgets, Budget{
			Category:    c,
			AmountLimit: Money{Cents: DefaultBudgetLimitCents},
		})
	}
	return budgets
}
