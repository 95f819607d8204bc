package split

import (
	"errors"

	"github.com/fkhayef/splitledger/internal/money"
)

// =============================================================================
// EXACT STRATEGY
// Each participant owes the fixed amount they were given.
// =============================================================================

type ExactStrategy struct{}

func (s *ExactStrategy) Kind() Kind {
	return KindFixed
}

// Allocate converts every fixed amount to minor units. The amounts together
// must fit within the remaining total.
func (s *ExactStrategy) Allocate(total, remaining money.Money, tokens []Token) ([]money.Money, error) {
	amounts := make([]money.Money, len(tokens))
	for i, tok := range tokens {
		amount, err := money.FromDecimal(tok.Value, total.Currency())
		if err != nil {
			if errors.Is(err, money.ErrInvalidMagnitude) {
				return nil, invalidToken(tok.Raw, "amount has too many decimal places for "+total.Currency().String())
			}
			return nil, err
		}
		amounts[i] = amount
	}

	if sumOf(total.Currency(), amounts).Cmp(remaining) > 0 {
		return nil, &Error{
			Code:   CodeFixedAmountOverflow,
			Reason: "fixed amounts add up to " + sumOf(total.Currency(), amounts).Display() + ", total is " + total.Display(),
		}
	}
	return amounts, nil
}
