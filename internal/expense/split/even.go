package split

import (
	"github.com/fkhayef/splitledger/internal/money"
)

// =============================================================================
// EVEN STRATEGY
// Whatever is left is divided equally among the bare @user participants.
// =============================================================================

type EvenStrategy struct{}

func (s *EvenStrategy) Kind() Kind {
	return KindEqual
}

func (s *EvenStrategy) Allocate(total, remaining money.Money, tokens []Token) ([]money.Money, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	return remaining.SplitEvenly(len(tokens))
}
