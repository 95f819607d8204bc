package split

import (
	"github.com/fkhayef/splitledger/internal/money"
)

// =============================================================================
// SHARE STRATEGY
// The remainder is divided in proportion to each participant's share count.
// =============================================================================

type ShareStrategy struct{}

func (s *ShareStrategy) Kind() Kind {
	return KindShare
}

// Allocate hands the whole remainder to the share holders. When every share
// is zero, nothing is allocated and the remainder passes on to equal
// participants.
func (s *ShareStrategy) Allocate(total, remaining money.Money, tokens []Token) ([]money.Money, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	weights := make([]int64, len(tokens))
	var nonZero bool
	for i, tok := range tokens {
		if !tok.Value.IsInteger() || tok.Value.IsNegative() || tok.Value.GreaterThan(maxShares) {
			return nil, invalidToken(tok.Raw, "shares must be a whole number of at most 1000000")
		}
		weights[i] = tok.Value.IntPart()
		if weights[i] > 0 {
			nonZero = true
		}
	}

	if !nonZero {
		amounts := make([]money.Money, len(tokens))
		for i := range amounts {
			amounts[i] = money.Zero(total.Currency())
		}
		return amounts, nil
	}

	amounts, err := remaining.Allocate(weights)
	if err != nil {
		return nil, invalidToken(tokens[0].Raw, err.Error())
	}
	return amounts, nil
}
