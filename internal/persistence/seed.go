package persistence

import (
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// Seed returns the example transactions shown on first run.
func Seed() []core.Transaction {
	return []core.Transaction{
		{
			ID:          "1",
			Type:        core.Expense,
			Amount:      decimal.RequireFromString("35.50"),
			Category:    "Food",
			Date:        core.NewDate(2024, time.January, 10),
			Description: "Grocery shopping",
		},
		{
			ID:          "2",
			Type:        core.Income,
			Amount:      decimal.NewFromInt(1200),
			Category:    "Salary",
			Date:        core.NewDate(2024, time.January, 15),
			Description: "Monthly salary",
		},
		{
			ID:          "3",
			Type:        core.Expense,
			Amount:      decimal.NewFromInt(60),
			Category:    "Transport",
			Date:        core.NewDate(2024, time.February, 1),
			Description: "Train pass",
		},
	}
}
