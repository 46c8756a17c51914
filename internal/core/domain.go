package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// AllCategories is the category filter value that matches every transaction.
const AllCategories = "All"

type (
	TransactionType string

	// Transaction is a single income or expense entry of the ledger.
	Transaction struct {
		ID          string
		Type        TransactionType
		Amount      decimal.Decimal
		Category    string
		Date        Date
		Description string
	}

	// Entry holds raw user input for a transaction before validation.
	Entry struct {
		ID          string // empty for a new transaction
		Type        string
		Amount      string
		Category    string
		Date        string
		Description string
	}
)

// DefaultCategories is the conventional category set offered to the user, followed by
// Salary, which the seed data uses. The ledger does not enforce it.
var DefaultCategories = []string{
	"General",
	"Food",
	"Transport",
	"Housing",
	"Shopping",
	"Health",
	"Entertainment",
	"Travel",
	"Income",
	"Salary",
}

var (
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyCategory = errors.New("empty category")
)

// NewID returns a fresh opaque transaction id.
func NewID() string { return uuid.NewString() }

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string { return string(t) }

// Equal reports whether two transactions hold the same values.
// Amounts are compared numerically so 35.5 equals 35.50.
func (tx Transaction) Equal(o Transaction) bool {
	return tx.ID == o.ID &&
		tx.Type == o.Type &&
		tx.Amount.Equal(o.Amount) &&
		tx.Category == o.Category &&
		tx.Date == o.Date &&
		tx.Description == o.Description
}

// transactionJSON is the persisted record layout; amount is a bare JSON number.
type transactionJSON struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      json.Number     `json:"amount"`
	Category    string          `json:"category"`
	Date        Date            `json:"date"`
	Description string          `json:"description"`
}

func (tx Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON{
		ID:          tx.ID,
		Type:        tx.Type,
		Amount:      json.Number(tx.Amount.String()),
		Category:    tx.Category,
		Date:        tx.Date,
		Description: tx.Description,
	})
}

func (tx *Transaction) UnmarshalJSON(b []byte) error {
	var raw transactionJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(raw.Amount.String())
	if err != nil {
		return fmt.Errorf("amount %q: %w", raw.Amount, err)
	}
	*tx = Transaction{
		ID:          raw.ID,
		Type:        raw.Type,
		Amount:      amount,
		Category:    raw.Category,
		Date:        raw.Date,
		Description: raw.Description,
	}
	return nil
}

// Validate checks the entry and converts it to a Transaction.
// A fresh id is assigned when the entry has none.
func (e Entry) Validate() (Transaction, error) {
	typ := TransactionType(strings.ToLower(strings.TrimSpace(e.Type)))
	if !typ.IsValid() {
		return Transaction{}, ErrInvalidType
	}
	amount, err := ParseAmount(e.Amount)
	if err != nil {
		return Transaction{}, err
	}
	category := strings.TrimSpace(e.Category)
	if category == "" {
		return Transaction{}, ErrEmptyCategory
	}
	if strings.TrimSpace(e.Date) == "" {
		return Transaction{}, ErrInvalidDate
	}
	date, err := ParseDate(e.Date)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	id := strings.TrimSpace(e.ID)
	if id == "" {
		id = NewID()
	}
	return Transaction{
		ID:          id,
		Type:        typ,
		Amount:      amount,
		Category:    category,
		Date:        date,
		Description: strings.TrimSpace(e.Description),
	}, nil
}
