package balance

import (
	"time"

	"github.com/fkhayef/splitledger/internal/money"
)

// PersonalGroupID is the scope sentinel for a single user's personal ledger.
const PersonalGroupID int64 = 0

// Scope bounds a balance computation: a group, optionally narrowed to one trip.
type Scope struct {
	GroupID int64
	Trip    string
}

// Personal reports whether the scope is a personal ledger.
func (s Scope) Personal() bool {
	return s.GroupID == PersonalGroupID
}

// contains reports whether a row tagged with groupID and trip belongs to the
// scope. A group-wide scope includes every trip.
func (s Scope) contains(groupID int64, trip string) bool {
	if groupID != s.GroupID {
		return false
	}
	return s.Trip == "" || s.Trip == trip
}

// SplitSnapshot is one persisted split row.
type SplitSnapshot struct {
	UserID int64
	Owed   money.Money
}

// ExpenseSnapshot is an immutable view of a persisted expense and its splits.
type ExpenseSnapshot struct {
	ID        int64
	GroupID   int64
	Trip      string
	PayerID   int64
	Amount    money.Money
	Splits    []SplitSnapshot
	Deleted   bool
	CreatedAt time.Time
}

// SettlementSnapshot is an immutable view of a recorded payment.
type SettlementSnapshot struct {
	ID         int64
	GroupID    int64
	Trip       string
	FromUserID int64
	ToUserID   int64
	Amount     money.Money
	CreatedAt  time.Time
}

// Pair is an unordered pair of users in canonical order, lower id first.
type Pair struct {
	Low  int64
	High int64
}

// NewPair orders a and b canonically.
func NewPair(a, b int64) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{Low: a, High: b}
}

// Has reports whether userID is one side of the pair.
func (p Pair) Has(userID int64) bool {
	return p.Low == userID || p.High == userID
}

// Other returns the side of the pair that is not userID.
func (p Pair) Other(userID int64) int64 {
	if p.Low == userID {
		return p.High
	}
	return p.Low
}
