package simplify

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/splitledger/internal/balance"
	"github.com/fkhayef/splitledger/internal/money"
)

func usd(minor int64) money.Money {
	return money.Signed(minor, "USD")
}

// owes builds an expense where creditor paid for debtor alone.
func owes(id, debtor, creditor, minor int64) balance.ExpenseSnapshot {
	return balance.ExpenseSnapshot{
		ID:      id,
		GroupID: 1,
		PayerID: creditor,
		Amount:  usd(minor),
		Splits:  []balance.SplitSnapshot{{UserID: debtor, Owed: usd(minor)}},
	}
}

func TestSimplify_Triangle(t *testing.T) {
	const a, b, c = 1, 2, 3
	expenses := []balance.ExpenseSnapshot{
		owes(1, a, b, 3000),
		owes(2, b, c, 2000),
		owes(3, c, a, 1000),
	}
	bal, err := balance.Compute(balance.Scope{GroupID: 1}, expenses, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(-2000), bal.Net(a).Minor())
	assert.Equal(t, int64(1000), bal.Net(b).Minor())
	assert.Equal(t, int64(1000), bal.Net(c).Minor())

	plan := Simplify(bal)
	assert.Equal(t, PlanKind, plan.Kind)
	assert.Equal(t, []Payment{
		{From: a, To: b, Amount: usd(1000)},
		{From: a, To: c, Amount: usd(1000)},
	}, plan.Payments)
}

func TestSimplify_SettledScopeIsEmpty(t *testing.T) {
	expenses := []balance.ExpenseSnapshot{owes(1, 2, 1, 500), owes(2, 1, 2, 500)}
	bal, err := balance.Compute(balance.Scope{GroupID: 1}, expenses, nil)
	require.NoError(t, err)

	plan := Simplify(bal)
	assert.True(t, plan.Empty())
}

func TestSimplify_LargestFirst(t *testing.T) {
	expenses := []balance.ExpenseSnapshot{
		owes(1, 4, 1, 100),
		owes(2, 5, 2, 700),
		owes(3, 6, 3, 300),
	}
	bal, err := balance.Compute(balance.Scope{GroupID: 1}, expenses, nil)
	require.NoError(t, err)

	plan := Simplify(bal)
	require.Len(t, plan.Payments, 3)
	assert.Equal(t, Payment{From: 5, To: 2, Amount: usd(700)}, plan.Payments[0])
	assert.Equal(t, Payment{From: 6, To: 3, Amount: usd(300)}, plan.Payments[1])
	assert.Equal(t, Payment{From: 4, To: 1, Amount: usd(100)}, plan.Payments[2])
}

func TestSimplify_Deterministic(t *testing.T) {
	expenses := []balance.ExpenseSnapshot{
		owes(1, 3, 1, 500),
		owes(2, 4, 2, 500),
		owes(3, 5, 1, 500),
		owes(4, 6, 2, 500),
	}
	bal, err := balance.Compute(balance.Scope{GroupID: 1}, expenses, nil)
	require.NoError(t, err)

	first := Simplify(bal)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first.Payments, Simplify(bal).Payments)
	}
}

func TestSimplify_BoundAndZeroing(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		users := int64(2 + rng.Intn(8))
		var expenses []balance.ExpenseSnapshot
		for id := int64(1); id <= int64(1+rng.Intn(15)); id++ {
			payer := 1 + rng.Int63n(users)
			e := balance.ExpenseSnapshot{ID: id, GroupID: 1, PayerID: payer}
			var total int64
			for uid := int64(1); uid <= users; uid++ {
				if rng.Intn(2) == 0 {
					continue
				}
				owed := rng.Int63n(10000)
				e.Splits = append(e.Splits, balance.SplitSnapshot{UserID: uid, Owed: usd(owed)})
				total += owed
			}
			e.Amount = usd(total)
			expenses = append(expenses, e)
		}

		bal, err := balance.Compute(balance.Scope{GroupID: 1}, expenses, nil)
		require.NoError(t, err)

		var nonZero int
		for _, net := range bal.Nets() {
			if !net.IsZero() {
				nonZero++
			}
		}

		plan := Simplify(bal)
		if nonZero == 0 {
			assert.Empty(t, plan.Payments)
			continue
		}
		assert.LessOrEqual(t, len(plan.Payments), nonZero-1, "round %d", round)
		for _, pay := range plan.Payments {
			assert.True(t, pay.Amount.IsPositive())
			assert.NotEqual(t, pay.From, pay.To)
		}

		after, err := balance.Compute(balance.Scope{GroupID: 1}, expenses, plan.Settlements())
		require.NoError(t, err)
		for userID, net := range after.Nets() {
			assert.True(t, net.IsZero(), "round %d user %d left with %s", round, userID, net)
		}
		assert.True(t, Simplify(after).Empty())
	}
}

func TestDirect_OnlyTheUsersOwnPairs(t *testing.T) {
	const a, b, c, d = 1, 2, 3, 4
	expenses := []balance.ExpenseSnapshot{
		owes(1, a, b, 1000),
		owes(2, a, c, 1000),
		owes(3, d, a, 500),
		owes(4, b, c, 700),
	}
	bal, err := balance.Compute(balance.Scope{GroupID: 1}, expenses, nil)
	require.NoError(t, err)

	plan := Direct(bal, a)
	assert.Equal(t, DirectKind, plan.Kind)
	assert.Equal(t, []Payment{
		{From: a, To: b, Amount: usd(1000)},
		{From: a, To: c, Amount: usd(1000)},
		{From: d, To: a, Amount: usd(500)},
	}, plan.Payments)

	// paying it clears a's net and leaves everyone else's pairs alone
	after, err := balance.Compute(balance.Scope{GroupID: 1}, expenses, plan.Settlements())
	require.NoError(t, err)
	assert.True(t, after.Net(a).IsZero())
	assert.Len(t, after.Outstanding(), 1)
}
