package split

import (
	"github.com/fkhayef/splitledger/internal/money"
)

// =============================================================================
// ALLOCATION STRATEGIES
// Each strategy hands out part of the expense to the participants of one kind.
// They always run in the same order, whatever order the tokens were typed in.
// =============================================================================

// Strategy allocates an amount to every token of its kind.
type Strategy interface {
	// Kind returns the participant kind this strategy serves
	Kind() Kind

	// Allocate returns one amount per token, in token order. total is the
	// expense total; remaining is what earlier strategies left over.
	Allocate(total, remaining money.Money, tokens []Token) ([]money.Money, error)
}

// precedence is the fixed processing order: fixed amounts, percentages of the
// original total, shares of the remainder, then an equal split of what is left.
var precedence = []Strategy{
	&ExactStrategy{},
	&PercentageStrategy{},
	&ShareStrategy{},
	&EvenStrategy{},
}

func sumOf(currency money.Currency, amounts []money.Money) money.Money {
	return money.Sum(currency, amounts...)
}
