package settlement

import (
	"time"

	"github.com/fkhayef/splitledger/internal/balance"
	"github.com/fkhayef/splitledger/internal/money"
)

// Settlement is a recorded payment from one user to another. Settlements are
// append-only: a mistake is corrected by recording one in the other direction.
type Settlement struct {
	ID         int64       `json:"id"`
	GroupID    int64       `json:"group_id"`
	Trip       string      `json:"trip,omitempty"`
	FromUserID int64       `json:"from_user_id"` // Who paid
	ToUserID   int64       `json:"to_user_id"`   // Who received
	Amount     money.Money `json:"-"`
	Note       string      `json:"note,omitempty"`
	CreatedBy  int64       `json:"created_by"`
	CreatedAt  time.Time   `json:"created_at"`

	// Populated via JOIN
	FromUsername string `json:"from_username,omitempty"`
	ToUsername   string `json:"to_username,omitempty"`
}

// Snapshot converts the settlement into the aggregator's input
func (s *Settlement) Snapshot() balance.SettlementSnapshot {
	return balance.SettlementSnapshot{
		ID:         s.ID,
		GroupID:    s.GroupID,
		Trip:       s.Trip,
		FromUserID: s.FromUserID,
		ToUserID:   s.ToUserID,
		Amount:     s.Amount,
		CreatedAt:  s.CreatedAt,
	}
}

// ListFilter narrows a settlement listing
type ListFilter struct {
	GroupID int64
	Trip    *string
	// ViewerID limits the personal ledger to settlements the viewer took part in
	ViewerID int64
}

// SnapshotFilter selects the rows folded into one balance computation
type SnapshotFilter struct {
	Scope    balance.Scope
	Currency money.Currency
	// ViewerID limits the personal ledger to rows that involve the viewer
	ViewerID int64
}

// Snapshot is a consistent read of everything in a scope
type Snapshot struct {
	Expenses    []balance.ExpenseSnapshot
	Settlements []balance.SettlementSnapshot
}

// SettleAll asks Create to settle whatever is owed at the moment the scope is
// locked. Amount receives the rows selected by Filter, read under that lock,
// and returns the amount to record.
type SettleAll struct {
	Filter SnapshotFilter
	Amount func(snap *Snapshot) (money.Money, error)
}
