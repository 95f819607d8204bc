package split

import (
	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitledger/internal/money"
)

// =============================================================================
// PERCENTAGE STRATEGY
// Each participant owes a percentage of the original total, not of what the
// fixed amounts left over.
// =============================================================================

type PercentageStrategy struct{}

func (s *PercentageStrategy) Kind() Kind {
	return KindPercentage
}

// Allocate floors the combined percentage amount to whole minor units, floors
// each member's amount, then gives the leftover units one at a time to the
// members in token order.
func (s *PercentageStrategy) Allocate(total, remaining money.Money, tokens []Token) ([]money.Money, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	totalMinor := decimal.NewFromInt(total.Minor())
	hundred := decimal.NewFromInt(100)

	pctSum := decimal.Zero
	for _, tok := range tokens {
		pctSum = pctSum.Add(tok.Value)
	}
	if pctSum.GreaterThan(hundred) {
		return nil, &Error{
			Code:   CodePercentageOverflow,
			Reason: "percentages add up to " + pctSum.String() + "%",
		}
	}

	// percent of minor units; Shift(-2) divides by 100 exactly
	group := totalMinor.Mul(pctSum).Shift(-2).Floor().IntPart()
	if group > remaining.Minor() {
		return nil, &Error{
			Code:   CodePercentageOverflow,
			Reason: "percentages do not fit in what fixed amounts leave over (" + remaining.Display() + ")",
		}
	}

	amounts := make([]money.Money, len(tokens))
	var given int64
	for i, tok := range tokens {
		minor := totalMinor.Mul(tok.Value).Shift(-2).Floor().IntPart()
		amounts[i] = money.Signed(minor, total.Currency())
		given += minor
	}

	for i := 0; given < group; i = (i + 1) % len(amounts) {
		amounts[i] = amounts[i].Add(money.Signed(1, total.Currency()))
		given++
	}
	return amounts, nil
}
