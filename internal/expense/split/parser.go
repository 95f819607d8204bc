// Package split turns split tokens such as "@john=60% @sarah paid:@mike" into
// exact per-participant amounts.
//
// Token grammar:
//
//	@user        equal share of whatever the other kinds leave over
//	@user=N      shares or a fixed amount, see below
//	@user=Nx     N shares, no guessing
//	@user=N%     N percent of the total, 0 < N <= 100
//	paid:@user   payer override; not a participant by itself
//
// A bare "@user=N" is read as shares when every bare number is a whole number
// and together they stay below the total; otherwise each is a fixed amount.
// The guess can be wrong (two people typing whole-unit fixed amounts that
// happen to stay below the total get shares), so callers that need certainty
// should use the "x" suffix or decimal amounts.
package split

import (
	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitledger/internal/money"
)

// Result is the outcome of a successful parse. The amounts in PerUser always
// sum to the parsed total.
type Result struct {
	PerUser       map[UserRef]money.Money
	Kinds         map[UserRef]Kind
	Order         []UserRef
	PayerOverride *UserRef
}

type options struct {
	fallback []UserRef
	payer    UserRef
}

// Option configures ParseSplits.
type Option func(*options)

// WithFallback sets the population that splits the total equally when no
// participant is mentioned, typically the active members of a group.
func WithFallback(users ...UserRef) Option {
	return func(o *options) {
		o.fallback = append(o.fallback, users...)
	}
}

// WithPayer names the default payer. Any amount no participant kind can
// absorb, such as fixed amounts that stay below the total, is charged to the
// payer (or to the paid:@user override).
func WithPayer(user UserRef) Option {
	return func(o *options) {
		o.payer = user
	}
}

// ParseSplits parses tokens against total.
func ParseSplits(tokens []string, total money.Money, opts ...Option) (*Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if total.IsNegative() {
		return nil, &Error{Code: CodeInvalidToken, Reason: "total is negative"}
	}

	var (
		participants []Token
		override     *UserRef
		seen         = make(map[UserRef]bool)
	)
	for _, raw := range tokens {
		if raw == "" {
			continue
		}
		tok, payer, err := parseToken(raw)
		if err != nil {
			return nil, err
		}
		if payer {
			if override != nil {
				return nil, invalidToken(tok.Raw, "payer given more than once")
			}
			user := tok.User
			override = &user
			continue
		}
		if seen[tok.User] {
			return nil, invalidToken(tok.Raw, "user mentioned more than once")
		}
		seen[tok.User] = true
		participants = append(participants, tok)
	}

	if len(participants) == 0 {
		if len(o.fallback) == 0 {
			return nil, ErrNoParticipants
		}
		for _, user := range o.fallback {
			if seen[user] {
				continue
			}
			seen[user] = true
			participants = append(participants, Token{Raw: "@" + string(user), User: user, Kind: KindEqual})
		}
	}

	classifyNumeric(participants, total)

	byKind := make(map[Kind][]Token)
	for _, tok := range participants {
		byKind[tok.Kind] = append(byKind[tok.Kind], tok)
	}

	res := &Result{
		PerUser:       make(map[UserRef]money.Money, len(participants)),
		Kinds:         make(map[UserRef]Kind, len(participants)),
		Order:         make([]UserRef, 0, len(participants)),
		PayerOverride: override,
	}
	for _, tok := range participants {
		res.Order = append(res.Order, tok.User)
		res.Kinds[tok.User] = tok.Kind
	}

	remaining := total
	for _, strategy := range precedence {
		group := byKind[strategy.Kind()]
		amounts, err := strategy.Allocate(total, remaining, group)
		if err != nil {
			return nil, err
		}
		for i, tok := range group {
			res.PerUser[tok.User] = amounts[i]
			remaining = remaining.Subtract(amounts[i])
		}
	}

	if remaining.IsPositive() {
		absorber := o.payer
		if override != nil {
			absorber = *override
		}
		if absorber == "" {
			return nil, &Error{
				Code:   CodeNoParticipants,
				Reason: remaining.Display() + " is left with nobody to charge it to",
			}
		}
		if owed, ok := res.PerUser[absorber]; ok {
			res.PerUser[absorber] = owed.Add(remaining)
		} else {
			res.PerUser[absorber] = remaining
			res.Kinds[absorber] = KindRemainder
			res.Order = append(res.Order, absorber)
		}
	}

	return res, nil
}

// classifyNumeric resolves every bare "@user=N" token to shares or a fixed
// amount. The decision is made once for the whole token set.
func classifyNumeric(tokens []Token, total money.Money) {
	sum := decimal.Zero
	allIntegral := true
	var found bool
	for _, tok := range tokens {
		if tok.Kind != kindNumeric {
			continue
		}
		found = true
		sum = sum.Add(tok.Value)
		// a count past maxShares can only be an amount
		if !tok.integral || tok.Value.GreaterThan(maxShares) {
			allIntegral = false
		}
	}
	if !found {
		return
	}

	kind := KindFixed
	if allIntegral && sum.LessThan(total.Decimal()) {
		kind = KindShare
	}
	for i := range tokens {
		if tokens[i].Kind == kindNumeric {
			tokens[i].Kind = kind
		}
	}
}

// Total returns the sum of all allocated amounts.
func (r *Result) Total(currency money.Currency) money.Money {
	total := money.Zero(currency)
	for _, user := range r.Order {
		total = total.Add(r.PerUser[user])
	}
	return total
}
