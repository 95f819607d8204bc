// Package balance folds a scope's expenses and settlements into pairwise net
// balances. It is the only place debts are netted; every view (balances,
// settle-up plan, trip summary) reads its output.
package balance

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fkhayef/splitledger/internal/money"
)

var (
	ErrCurrencyMismatch    = errors.New("currency mismatch")
	ErrMalformedExpense    = errors.New("malformed expense")
	ErrMalformedSettlement = errors.New("malformed settlement")
	ErrConservation        = errors.New("net balances do not sum to zero")
)

// Balances holds one signed amount per unordered pair of users. A positive
// amount means the pair's High user owes its Low user.
type Balances struct {
	scope    Scope
	currency money.Currency
	pairs    map[Pair]money.Money
}

// PairBalance is one entry of the balance view.
type PairBalance struct {
	Pair    Pair
	Amount  money.Money
	Settled bool
}

// Debtor returns who owes within the pair, and Creditor who is owed. Both are
// zero for a settled pair.
func (pb PairBalance) Debtor() int64 {
	switch {
	case pb.Amount.IsPositive():
		return pb.Pair.High
	case pb.Amount.IsNegative():
		return pb.Pair.Low
	}
	return 0
}

func (pb PairBalance) Creditor() int64 {
	switch {
	case pb.Amount.IsPositive():
		return pb.Pair.Low
	case pb.Amount.IsNegative():
		return pb.Pair.High
	}
	return 0
}

// Compute folds every non-deleted expense and every settlement within scope.
// Rows outside the scope are ignored. It never mutates its inputs, so calling
// it twice on the same snapshot gives the same result.
func Compute(scope Scope, expenses []ExpenseSnapshot, settlements []SettlementSnapshot) (*Balances, error) {
	b := &Balances{
		scope: scope,
		pairs: make(map[Pair]money.Money),
	}

	for _, e := range expenses {
		if e.Deleted || !scope.contains(e.GroupID, e.Trip) {
			continue
		}
		if err := b.checkExpense(e); err != nil {
			return nil, err
		}
		for _, s := range e.Splits {
			b.addDebt(s.UserID, e.PayerID, s.Owed)
		}
	}

	for _, s := range settlements {
		if !scope.contains(s.GroupID, s.Trip) {
			continue
		}
		if err := b.checkSettlement(s); err != nil {
			return nil, err
		}
		b.addDebt(s.FromUserID, s.ToUserID, s.Amount.Negate())
	}

	if err := b.CheckConservation(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Balances) useCurrency(c money.Currency) error {
	if b.currency == "" {
		b.currency = c
		return nil
	}
	if b.currency != c {
		return fmt.Errorf("%w: %s and %s in one scope", ErrCurrencyMismatch, b.currency, c)
	}
	return nil
}

func (b *Balances) checkExpense(e ExpenseSnapshot) error {
	if err := b.useCurrency(e.Amount.Currency()); err != nil {
		return fmt.Errorf("expense %d: %w", e.ID, err)
	}
	if e.Amount.IsNegative() {
		return fmt.Errorf("%w: expense %d has negative amount", ErrMalformedExpense, e.ID)
	}
	sum := money.Zero(e.Amount.Currency())
	for _, s := range e.Splits {
		if !s.Owed.SameCurrency(e.Amount) {
			return fmt.Errorf("expense %d: %w: split in %s", e.ID, ErrCurrencyMismatch, s.Owed.Currency())
		}
		if s.Owed.IsNegative() {
			return fmt.Errorf("%w: expense %d has a negative split", ErrMalformedExpense, e.ID)
		}
		sum = sum.Add(s.Owed)
	}
	if !sum.Equal(e.Amount) {
		return fmt.Errorf("%w: expense %d splits sum to %s, total is %s", ErrMalformedExpense, e.ID, sum, e.Amount)
	}
	return nil
}

func (b *Balances) checkSettlement(s SettlementSnapshot) error {
	if err := b.useCurrency(s.Amount.Currency()); err != nil {
		return fmt.Errorf("settlement %d: %w", s.ID, err)
	}
	if !s.Amount.IsPositive() {
		return fmt.Errorf("%w: settlement %d amount must be positive", ErrMalformedSettlement, s.ID)
	}
	if s.FromUserID == s.ToUserID {
		return fmt.Errorf("%w: settlement %d pays oneself", ErrMalformedSettlement, s.ID)
	}
	return nil
}

// addDebt records that debtor owes creditor amount. Self-debts are dropped.
func (b *Balances) addDebt(debtor, creditor int64, amount money.Money) {
	if debtor == creditor {
		return
	}
	pair := NewPair(debtor, creditor)
	current, ok := b.pairs[pair]
	if !ok {
		current = money.Zero(amount.Currency())
	}
	if debtor == pair.High {
		b.pairs[pair] = current.Add(amount)
	} else {
		b.pairs[pair] = current.Subtract(amount)
	}
}

// Scope returns the scope the balances were computed for.
func (b *Balances) Scope() Scope { return b.scope }

// Currency returns the scope's currency, or "" when nothing was folded.
func (b *Balances) Currency() money.Currency { return b.currency }

// Get returns the exact signed balance of a pair.
func (b *Balances) Get(pair Pair) money.Money {
	if m, ok := b.pairs[pair]; ok {
		return m
	}
	return money.Zero(b.currency)
}

// Settled reports whether a pair is settled for display: less than one minor
// unit apart.
func (b *Balances) Settled(pair Pair) bool {
	return b.Get(pair).Abs().Minor() < 1
}

// Position returns what other owes userID; negative when userID owes other.
func (b *Balances) Position(userID, other int64) money.Money {
	pair := NewPair(userID, other)
	amount := b.Get(pair)
	if userID == pair.High {
		return amount.Negate()
	}
	return amount
}

// Pairs lists every pair that ever carried a debt, ordered by (Low, High).
func (b *Balances) Pairs() []PairBalance {
	out := make([]PairBalance, 0, len(b.pairs))
	for pair, amount := range b.pairs {
		out = append(out, PairBalance{Pair: pair, Amount: amount, Settled: b.Settled(pair)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pair.Low != out[j].Pair.Low {
			return out[i].Pair.Low < out[j].Pair.Low
		}
		return out[i].Pair.High < out[j].Pair.High
	})
	return out
}

// Outstanding lists the unsettled pairs, ordered like Pairs.
func (b *Balances) Outstanding() []PairBalance {
	var out []PairBalance
	for _, pb := range b.Pairs() {
		if !pb.Settled {
			out = append(out, pb)
		}
	}
	return out
}

// For lists the unsettled pairs that involve userID.
func (b *Balances) For(userID int64) []PairBalance {
	var out []PairBalance
	for _, pb := range b.Outstanding() {
		if pb.Pair.Has(userID) {
			out = append(out, pb)
		}
	}
	return out
}

// Nets returns each user's net position: positive when the user is owed money,
// negative when the user owes.
func (b *Balances) Nets() map[int64]money.Money {
	nets := make(map[int64]money.Money)
	for pair, amount := range b.pairs {
		low, ok := nets[pair.Low]
		if !ok {
			low = money.Zero(b.currency)
		}
		high, ok := nets[pair.High]
		if !ok {
			high = money.Zero(b.currency)
		}
		nets[pair.Low] = low.Add(amount)
		nets[pair.High] = high.Subtract(amount)
	}
	return nets
}

// Net returns one user's net position.
func (b *Balances) Net(userID int64) money.Money {
	if m, ok := b.Nets()[userID]; ok {
		return m
	}
	return money.Zero(b.currency)
}

// Users returns every user that appears in a pair, ascending.
func (b *Balances) Users() []int64 {
	nets := b.Nets()
	users := make([]int64, 0, len(nets))
	for id := range nets {
		users = append(users, id)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}

// CheckConservation verifies that all net positions sum to exactly zero.
// A failure means a parsing or aggregation bug, never a storage problem.
func (b *Balances) CheckConservation() error {
	var sum int64
	for _, net := range b.Nets() {
		sum += net.Minor()
	}
	if sum != 0 {
		return fmt.Errorf("%w: off by %d minor units", ErrConservation, sum)
	}
	return nil
}
