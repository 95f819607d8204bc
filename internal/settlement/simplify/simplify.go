// Package simplify turns pairwise balances into a short list of suggested
// payments.
//
// A plan reassigns who pays whom: a user may be told to pay someone they never
// shared an expense with. Present it as an optimized settlement, never as a
// record of who actually owes whom.
package simplify

import (
	"sort"

	"github.com/fkhayef/splitledger/internal/balance"
	"github.com/fkhayef/splitledger/internal/money"
)

// PlanKind tags a plan so it cannot be mistaken for recorded balances.
const PlanKind = "optimized_settlement"

// DirectKind tags a plan that pays back one user's debts as they stand.
const DirectKind = "direct_settlement"

// Payment is one suggested transfer.
type Payment struct {
	From   int64
	To     int64
	Amount money.Money
}

// Plan is the suggested way to clear every balance in a scope.
type Plan struct {
	Kind     string
	Scope    balance.Scope
	Currency money.Currency
	Payments []Payment
}

type position struct {
	userID int64
	amount money.Money // magnitude, always positive
}

// Simplify nets every user's position and greedily matches the largest debtor
// with the largest creditor. With k users whose net is non-zero it returns at
// most k-1 payments.
func Simplify(b *balance.Balances) *Plan {
	plan := &Plan{
		Kind:     PlanKind,
		Scope:    b.Scope(),
		Currency: b.Currency(),
	}

	var creditors, debtors []position
	for userID, net := range b.Nets() {
		// same display threshold as the balance view: under one minor unit is settled
		if net.Abs().Minor() < 1 {
			continue
		}
		if net.IsPositive() {
			creditors = append(creditors, position{userID: userID, amount: net})
		} else {
			debtors = append(debtors, position{userID: userID, amount: net.Abs()})
		}
	}
	byMagnitude(creditors)
	byMagnitude(debtors)

	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := money.Min(debtors[i].amount, creditors[j].amount)
		plan.Payments = append(plan.Payments, Payment{
			From:   debtors[i].userID,
			To:     creditors[j].userID,
			Amount: amount,
		})

		debtors[i].amount = debtors[i].amount.Subtract(amount)
		creditors[j].amount = creditors[j].amount.Subtract(amount)
		if debtors[i].amount.IsZero() {
			i++
		}
		if creditors[j].amount.IsZero() {
			j++
		}
	}
	return plan
}

// Direct lists one payment per counterparty that clears userID's own
// balances, never routing money through anyone else. Use it when b holds only
// part of the debt graph, as on a viewer's personal ledger, where netting
// other people's positions would rest on rows the viewer cannot see.
func Direct(b *balance.Balances, userID int64) *Plan {
	plan := &Plan{
		Kind:     DirectKind,
		Scope:    b.Scope(),
		Currency: b.Currency(),
	}
	for _, pb := range b.For(userID) {
		plan.Payments = append(plan.Payments, Payment{
			From:   pb.Debtor(),
			To:     pb.Creditor(),
			Amount: pb.Amount.Abs(),
		})
	}
	return plan
}

// byMagnitude sorts descending by amount; equal amounts keep user id order so
// the same balances always give the same plan.
func byMagnitude(ps []position) {
	sort.Slice(ps, func(a, b int) bool {
		if c := ps[a].amount.Cmp(ps[b].amount); c != 0 {
			return c > 0
		}
		return ps[a].userID < ps[b].userID
	})
}

// Settlements converts the plan into settlement snapshots, as if every payment
// had been made.
func (p *Plan) Settlements() []balance.SettlementSnapshot {
	out := make([]balance.SettlementSnapshot, len(p.Payments))
	for i, pay := range p.Payments {
		out[i] = balance.SettlementSnapshot{
			GroupID:    p.Scope.GroupID,
			Trip:       p.Scope.Trip,
			FromUserID: pay.From,
			ToUserID:   pay.To,
			Amount:     pay.Amount,
		}
	}
	return out
}

// Empty reports whether nothing needs to be paid.
func (p *Plan) Empty() bool {
	return len(p.Payments) == 0
}
