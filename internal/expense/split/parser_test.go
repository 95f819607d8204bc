package split

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/splitledger/internal/money"
)

func total(t *testing.T, s string) money.Money {
	t.Helper()
	m, err := money.Parse(s, "USD")
	require.NoError(t, err)
	return m
}

func owed(res *Result) map[UserRef]int64 {
	out := make(map[UserRef]int64, len(res.PerUser))
	for user, m := range res.PerUser {
		out[user] = m.Minor()
	}
	return out
}

func TestParseSplits_Percentages(t *testing.T) {
	res, err := ParseSplits(Tokenize("@john=60% @sarah=40%"), total(t, "100"))
	require.NoError(t, err)
	assert.Equal(t, map[UserRef]int64{"john": 6000, "sarah": 4000}, owed(res))
	assert.Equal(t, KindPercentage, res.Kinds["john"])
}

func TestParseSplits_PercentageOverflow(t *testing.T) {
	_, err := ParseSplits(Tokenize("@john=60% @sarah=60%"), total(t, "100"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPercentageOverflow)
	assert.NotErrorIs(t, err, ErrFixedAmountOverflow)
}

func TestParseSplits_FallbackPopulation(t *testing.T) {
	res, err := ParseSplits(nil, total(t, "90"), WithFallback("ann", "bob", "cid"))
	require.NoError(t, err)
	assert.Equal(t, map[UserRef]int64{"ann": 3000, "bob": 3000, "cid": 3000}, owed(res))
	assert.Equal(t, []UserRef{"ann", "bob", "cid"}, res.Order)
}

func TestParseSplits_EqualRemainderGoesFirst(t *testing.T) {
	res, err := ParseSplits(Tokenize("@a @b @c"), total(t, "100"))
	require.NoError(t, err)
	assert.Equal(t, map[UserRef]int64{"a": 3334, "b": 3333, "c": 3333}, owed(res))
	assert.Equal(t, []UserRef{"a", "b", "c"}, res.Order)
}

func TestParseSplits_NumericHeuristic(t *testing.T) {
	tests := []struct {
		name  string
		input string
		total string
		want  map[UserRef]int64
		kind  Kind
	}{
		{
			name:  "small integers are shares",
			input: "@a=2 @b=1",
			total: "90",
			want:  map[UserRef]int64{"a": 6000, "b": 3000},
			kind:  KindShare,
		},
		{
			name:  "integers reaching the total are amounts",
			input: "@a=50 @b=50",
			total: "100",
			want:  map[UserRef]int64{"a": 5000, "b": 5000},
			kind:  KindFixed,
		},
		{
			name:  "any decimal makes every number an amount",
			input: "@a=10.50 @b=2",
			total: "12.50",
			want:  map[UserRef]int64{"a": 1050, "b": 200},
			kind:  KindFixed,
		},
		{
			name:  "fixed amount then equal remainder",
			input: "@a=10.50 @b",
			total: "30",
			want:  map[UserRef]int64{"a": 1050, "b": 1950},
			kind:  KindFixed,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := ParseSplits(Tokenize(tc.input), total(t, tc.total))
			require.NoError(t, err)
			assert.Equal(t, tc.want, owed(res))
			assert.Equal(t, tc.kind, res.Kinds["a"])
		})
	}
}

func TestParseSplits_ExplicitShares(t *testing.T) {
	// 60 and 30 would be read as amounts; the x suffix forces shares
	res, err := ParseSplits(Tokenize("@a=60x @b=30x"), total(t, "90"))
	require.NoError(t, err)
	assert.Equal(t, map[UserRef]int64{"a": 6000, "b": 3000}, owed(res))
	assert.Equal(t, KindShare, res.Kinds["b"])
}

func TestParseSplits_FixedAmountOverflow(t *testing.T) {
	_, err := ParseSplits(Tokenize("@a=70.00 @b=40.00"), total(t, "100"))
	assert.ErrorIs(t, err, ErrFixedAmountOverflow)
}

func TestParseSplits_FixedPlusPercentageOverflow(t *testing.T) {
	_, err := ParseSplits(Tokenize("@a=80.00 @b=30%"), total(t, "100"))
	assert.ErrorIs(t, err, ErrPercentageOverflow)
}

func TestParseSplits_Precedence(t *testing.T) {
	// fixed 10, then 20% of the original 100, then 3:1 shares of the 70 left;
	// nothing remains for the equal participant
	res, err := ParseSplits(Tokenize("@e @d=1x @c=3x @b=20% @a=10.00"), total(t, "100"))
	require.NoError(t, err)
	assert.Equal(t, map[UserRef]int64{"a": 1000, "b": 2000, "c": 5250, "d": 1750, "e": 0}, owed(res))
	assert.Equal(t, []UserRef{"e", "d", "c", "b", "a"}, res.Order)
}

func TestParseSplits_ZeroSharesPassRemainderOn(t *testing.T) {
	res, err := ParseSplits(Tokenize("@a=0x @b @c"), total(t, "10"))
	require.NoError(t, err)
	assert.Equal(t, map[UserRef]int64{"a": 0, "b": 500, "c": 500}, owed(res))
}

func TestParseSplits_PercentageRounding(t *testing.T) {
	res, err := ParseSplits(Tokenize("@a=50% @b=50%"), total(t, "0.05"))
	require.NoError(t, err)
	assert.Equal(t, map[UserRef]int64{"a": 3, "b": 2}, owed(res))

	res, err = ParseSplits(Tokenize("@a=33.33% @b=33.33% @c=33.34%"), total(t, "100"))
	require.NoError(t, err)
	assert.Equal(t, map[UserRef]int64{"a": 3333, "b": 3333, "c": 3334}, owed(res))
}

func TestParseSplits_RemainderChargedToPayer(t *testing.T) {
	res, err := ParseSplits(Tokenize("@a=33.33% @b=33.33% @c=33.33%"), total(t, "10"), WithPayer("a"))
	require.NoError(t, err)
	assert.Equal(t, map[UserRef]int64{"a": 334, "b": 333, "c": 333}, owed(res))

	res, err = ParseSplits(Tokenize("@a=10.00 paid:@z"), total(t, "30"), WithPayer("me"))
	require.NoError(t, err)
	assert.Equal(t, map[UserRef]int64{"a": 1000, "z": 2000}, owed(res))
	require.NotNil(t, res.PayerOverride)
	assert.Equal(t, UserRef("z"), *res.PayerOverride)
	assert.Equal(t, KindRemainder, res.Kinds["z"])
	assert.Equal(t, []UserRef{"a", "z"}, res.Order)

	_, err = ParseSplits(Tokenize("@a=10.00"), total(t, "30"))
	assert.ErrorIs(t, err, ErrNoParticipants)
}

func TestParseSplits_NoParticipants(t *testing.T) {
	_, err := ParseSplits(nil, total(t, "10"))
	assert.ErrorIs(t, err, ErrNoParticipants)

	_, err = ParseSplits(Tokenize("paid:@mike"), total(t, "10"))
	assert.ErrorIs(t, err, ErrNoParticipants)

	res, err := ParseSplits(Tokenize("paid:@mike"), total(t, "10"), WithFallback("ann", "bob"))
	require.NoError(t, err)
	assert.Equal(t, map[UserRef]int64{"ann": 500, "bob": 500}, owed(res))
	assert.Equal(t, UserRef("mike"), *res.PayerOverride)
}

func TestParseSplits_ShareCountsAreBounded(t *testing.T) {
	_, err := ParseSplits(Tokenize("@a=18446744073709551617x @b=1x"), total(t, "100"))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseSplits(Tokenize("@a=1e1 @b=2e0"), total(t, "100"))
	assert.ErrorIs(t, err, ErrInvalidToken)

	res, err := ParseSplits(Tokenize("@a=1000000x @b=1000000x"), total(t, "100"))
	require.NoError(t, err)
	assert.Equal(t, map[UserRef]int64{"a": 5000, "b": 5000}, owed(res))

	// whole numbers too large to be share counts are read as amounts
	res, err = ParseSplits(Tokenize("@a=2000000 @b=3000000"), total(t, "6000000"), WithPayer("a"))
	require.NoError(t, err)
	assert.Equal(t, KindFixed, res.Kinds["b"])
	assert.Equal(t, map[UserRef]int64{"a": 300000000, "b": 300000000}, owed(res))
}

func TestParseSplits_InvalidTokens(t *testing.T) {
	inputs := []string{
		"john",
		"@",
		"@a=",
		"@a=abc",
		"@a=0%",
		"@a=101%",
		"@a=-5",
		"@a=1.5x",
		"@a=1e1",
		"@a=2e0x",
		"@a=5.",
		"@a=0x10",
		"@a=1_000",
		"@a=18446744073709551617x",
		"@a=1000001x",
		"@a @a",
		"@A @a",
		"paid:@a paid:@b",
		"paid:@a=5",
		"paid:john",
		"@jo/hn",
	}
	for _, in := range inputs {
		_, err := ParseSplits(Tokenize(in), total(t, "100"), WithFallback("x"))
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q", in)
	}
}

func TestParseSplits_AmountPrecisionFollowsCurrency(t *testing.T) {
	yen, err := money.Parse("1000", "JPY")
	require.NoError(t, err)

	_, err = ParseSplits(Tokenize("@a=10.5 @b"), yen)
	assert.ErrorIs(t, err, ErrInvalidToken)

	res, err := ParseSplits(Tokenize("@a @b @c"), yen)
	require.NoError(t, err)
	assert.Equal(t, map[UserRef]int64{"a": 334, "b": 333, "c": 333}, owed(res))
}

func TestParseSplits_ErrorCarriesToken(t *testing.T) {
	_, err := ParseSplits(Tokenize("@a=12%% @b"), total(t, "100"))
	var splitErr *Error
	require.True(t, errors.As(err, &splitErr))
	assert.Equal(t, CodeInvalidToken, splitErr.Code)
	assert.Equal(t, "@a=12%%", splitErr.Token)
	assert.Contains(t, splitErr.Error(), "@a=12%%")
}

func TestParseSplits_NormalizesMentions(t *testing.T) {
	res, err := ParseSplits(Tokenize("@John PAID:@Mike @sarah"), total(t, "10"))
	require.NoError(t, err)
	assert.Equal(t, []UserRef{"john", "sarah"}, res.Order)
	assert.Equal(t, UserRef("mike"), *res.PayerOverride)
}

func TestParseSplits_AlwaysSumsToTotal(t *testing.T) {
	inputs := []string{
		"@a @b @c",
		"@a=1 @b=2 @c=4",
		"@a=12.34 @b @c",
		"@a=17% @b=29% @c",
		"@a=3x @b=5% @c=0.01 @d @e",
		"@a=33.33% @b=33.33% @c=33.34%",
	}
	for _, in := range inputs {
		for minor := int64(100); minor < 100000; minor += 997 {
			amount, err := money.New(minor, "USD")
			require.NoError(t, err)

			res, err := ParseSplits(Tokenize(in), amount, WithPayer("a"))
			if err != nil {
				// small totals can legitimately overflow fixed amounts
				assert.ErrorIs(t, err, ErrFixedAmountOverflow, "input %q total %s", in, amount)
				continue
			}
			assert.True(t, res.Total("USD").Equal(amount), "input %q total %s", in, amount)
			for user, m := range res.PerUser {
				assert.False(t, m.IsNegative(), "input %q user %s", in, user)
			}
		}
	}
}
