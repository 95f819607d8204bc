package expense

import (
	"time"

	"github.com/fkhayef/splitledger/internal/balance"
	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/internal/money"
)

// Expense represents an expense in the system. GroupID 0 is the personal
// ledger.
type Expense struct {
	ID          int64       `json:"id"`
	GroupID     int64       `json:"group_id"`
	Trip        string      `json:"trip,omitempty"`
	PayerID     int64       `json:"payer_id"`
	CreatedBy   int64       `json:"created_by"`
	Description string      `json:"description"`
	Amount      money.Money `json:"-"`
	// SplitInput is the split instruction as typed, kept for display
	SplitInput string    `json:"split_input"`
	Deleted    bool      `json:"deleted"`
	CreatedAt  time.Time `json:"created_at"`

	// Populated via JOIN
	PayerUsername string `json:"payer_username,omitempty"`
}

// Split is one participant's obligation from an expense. The payer's own
// share is a split too, so an expense's splits always sum to its amount.
type Split struct {
	ID        int64       `json:"id"`
	ExpenseID int64       `json:"expense_id"`
	UserID    int64       `json:"user_id"`
	Owed      money.Money `json:"-"`
	Kind      split.Kind  `json:"kind"`

	// Populated via JOIN
	Username string `json:"username,omitempty"`
}

// ExpenseWithSplits combines an expense with its splits
type ExpenseWithSplits struct {
	Expense *Expense
	Splits  []*Split
}

// Snapshot converts the expense into the aggregator's input
func (e *ExpenseWithSplits) Snapshot() balance.ExpenseSnapshot {
	snap := balance.ExpenseSnapshot{
		ID:        e.Expense.ID,
		GroupID:   e.Expense.GroupID,
		Trip:      e.Expense.Trip,
		PayerID:   e.Expense.PayerID,
		Amount:    e.Expense.Amount,
		Deleted:   e.Expense.Deleted,
		CreatedAt: e.Expense.CreatedAt,
		Splits:    make([]balance.SplitSnapshot, len(e.Splits)),
	}
	for i, s := range e.Splits {
		snap.Splits[i] = balance.SplitSnapshot{UserID: s.UserID, Owed: s.Owed}
	}
	return snap
}

// ListFilter narrows an expense listing
type ListFilter struct {
	GroupID int64
	// Trip filters on the trip tag when set; nil lists every trip
	Trip           *string
	IncludeDeleted bool
	// ViewerID limits the personal ledger to expenses the viewer paid, logged
	// or shares in
	ViewerID int64
}
