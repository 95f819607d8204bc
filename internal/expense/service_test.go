package expense

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/splitledger/internal/balance"
	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/internal/group"
	"github.com/fkhayef/splitledger/internal/money"
	"github.com/fkhayef/splitledger/internal/user"
	"github.com/fkhayef/splitledger/pkg/logger"
)

const (
	john  int64 = 1
	sarah int64 = 2
	mike  int64 = 3
	zoe   int64 = 4

	lisbon int64 = 10
)

type fakeStore struct {
	expenses map[int64]*ExpenseWithSplits
	nextID   int64
	creates  int
}

func (f *fakeStore) Create(_ context.Context, e *Expense, splits []*Split) (*ExpenseWithSplits, error) {
	f.creates++
	f.nextID++
	e.ID = f.nextID
	e.CreatedAt = time.Now()
	for i, s := range splits {
		s.ID = int64(i + 1)
		s.ExpenseID = e.ID
	}
	out := &ExpenseWithSplits{Expense: e, Splits: splits}
	f.expenses[e.ID] = out
	return out, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*Expense, error) {
	if e, ok := f.expenses[id]; ok {
		return e.Expense, nil
	}
	return nil, nil
}

func (f *fakeStore) GetSplits(_ context.Context, id int64) ([]*Split, error) {
	if e, ok := f.expenses[id]; ok {
		return e.Splits, nil
	}
	return nil, nil
}

func (f *fakeStore) List(_ context.Context, filter ListFilter, _, _ int) ([]*Expense, int, error) {
	var out []*Expense
	for _, e := range f.expenses {
		if e.Expense.GroupID != filter.GroupID || (e.Expense.Deleted && !filter.IncludeDeleted) {
			continue
		}
		if filter.Trip != nil && e.Expense.Trip != *filter.Trip {
			continue
		}
		if filter.ViewerID != 0 && !involves(e.Expense, e.Splits, filter.ViewerID) {
			continue
		}
		out = append(out, e.Expense)
	}
	return out, len(out), nil
}

func (f *fakeStore) SoftDelete(_ context.Context, e *Expense) (bool, error) {
	if e.Deleted {
		return false, nil
	}
	e.Deleted = true
	return true, nil
}

type fakeUsers map[int64]*user.User

func (f fakeUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, user.ErrUserNotFound
}

func (f fakeUsers) ResolveUsernames(_ context.Context, names []string) (map[string]*user.User, []string, error) {
	found := map[string]*user.User{}
	var missing []string
	for _, n := range names {
		var hit *user.User
		for _, u := range f {
			if u.Username == n {
				hit = u
			}
		}
		if hit == nil {
			missing = append(missing, n)
			continue
		}
		found[n] = hit
	}
	return found, missing, nil
}

type fakeGroups struct {
	groups  map[int64]*group.Group
	members map[int64][]*group.GroupMember
}

func (f *fakeGroups) GetByID(_ context.Context, id int64) (*group.Group, error) {
	if g, ok := f.groups[id]; ok {
		return g, nil
	}
	return nil, group.ErrGroupNotFound
}

func (f *fakeGroups) RequireMember(ctx context.Context, groupID, userID int64) (*group.GroupMember, error) {
	if _, err := f.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	for _, m := range f.members[groupID] {
		if m.UserID == userID && m.Active() {
			return m, nil
		}
	}
	return nil, group.ErrNotMember
}

func (f *fakeGroups) ActiveMembers(_ context.Context, groupID int64) ([]*group.GroupMember, error) {
	var out []*group.GroupMember
	for _, m := range f.members[groupID] {
		if m.Active() {
			out = append(out, m)
		}
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	users := fakeUsers{
		john:  {ID: john, Username: "john"},
		sarah: {ID: sarah, Username: "sarah"},
		mike:  {ID: mike, Username: "mike"},
		zoe:   {ID: zoe, Username: "zoe"},
	}
	groups := &fakeGroups{
		groups: map[int64]*group.Group{lisbon: {ID: lisbon, Name: "Lisbon", Currency: "SAR"}},
		members: map[int64][]*group.GroupMember{lisbon: {
			{GroupID: lisbon, UserID: john, Username: "john", Status: group.MemberStatusJoined},
			{GroupID: lisbon, UserID: sarah, Username: "sarah", Status: group.MemberStatusJoined},
			{GroupID: lisbon, UserID: mike, Username: "mike", Status: group.MemberStatusJoined},
			{GroupID: lisbon, UserID: zoe, Username: "zoe", Status: group.MemberStatusLeft},
		}},
	}
	store := &fakeStore{expenses: map[int64]*ExpenseWithSplits{}}
	return NewService(store, users, groups, money.DefaultCurrency, logger.Nop(), nil), store
}

func owedByUser(e *ExpenseWithSplits) map[int64]int64 {
	out := map[int64]int64{}
	for _, s := range e.Splits {
		out[s.UserID] = s.Owed.Minor()
	}
	return out
}

func assertConserved(t *testing.T, e *ExpenseWithSplits) {
	t.Helper()
	var sum int64
	for _, s := range e.Splits {
		sum += s.Owed.Minor()
	}
	assert.Equal(t, e.Expense.Amount.Minor(), sum)

	_, err := balance.Compute(balance.Scope{GroupID: e.Expense.GroupID}, []balance.ExpenseSnapshot{e.Snapshot()}, nil)
	assert.NoError(t, err)
}

func TestCreateExpense_FallsBackToActiveMembers(t *testing.T) {
	svc, store := newTestService(t)

	got, err := svc.CreateExpense(context.Background(), john, &CreateExpenseRequest{
		GroupID: lisbon, Description: "Dinner", Amount: "90",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, store.creates)
	assert.Equal(t, john, got.Expense.PayerID)
	assert.Equal(t, money.Currency("SAR"), got.Expense.Amount.Currency())
	assert.Equal(t, map[int64]int64{john: 3000, sarah: 3000, mike: 3000}, owedByUser(got))
	assertConserved(t, got)
}

func TestCreateExpense_Percentages(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.CreateExpense(context.Background(), john, &CreateExpenseRequest{
		GroupID: lisbon, Description: "Hotel", Amount: "100", Split: "@john=60% @Sarah=40%",
	})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{john: 6000, sarah: 4000}, owedByUser(got))
	assert.Equal(t, split.KindPercentage, got.Splits[0].Kind)
	assertConserved(t, got)
}

func TestCreateExpense_SplitErrorsAreNotPersisted(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.CreateExpense(context.Background(), john, &CreateExpenseRequest{
		GroupID: lisbon, Description: "Hotel", Amount: "100", Split: "@john=60% @sarah=60%",
	})
	assert.ErrorIs(t, err, split.ErrPercentageOverflow)

	_, err = svc.CreateExpense(context.Background(), john, &CreateExpenseRequest{
		GroupID: lisbon, Description: "Hotel", Amount: "100", Split: "@john=abc",
	})
	assert.ErrorIs(t, err, split.ErrInvalidToken)
	assert.Zero(t, store.creates)
}

func TestCreateExpense_PayerOverrideAbsorbsRemainder(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.CreateExpense(context.Background(), john, &CreateExpenseRequest{
		GroupID: lisbon, Description: "Taxi", Amount: "100", Split: "@john=20.00 paid:@sarah",
	})
	require.NoError(t, err)

	assert.Equal(t, sarah, got.Expense.PayerID)
	assert.Equal(t, john, got.Expense.CreatedBy)
	assert.Equal(t, map[int64]int64{john: 2000, sarah: 8000}, owedByUser(got))
	assert.Equal(t, split.KindRemainder, got.Splits[1].Kind)
	assertConserved(t, got)
}

func TestCreateExpense_RejectsUnknownAndDepartedUsers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateExpense(ctx, john, &CreateExpenseRequest{
		GroupID: lisbon, Description: "x", Amount: "10", Split: "@ghost @john",
	})
	assert.ErrorIs(t, err, ErrUnknownUser)
	assert.Contains(t, err.Error(), "@ghost")

	_, err = svc.CreateExpense(ctx, john, &CreateExpenseRequest{
		GroupID: lisbon, Description: "x", Amount: "10", Split: "@zoe @john",
	})
	assert.ErrorIs(t, err, ErrParticipantNotMember)

	_, err = svc.CreateExpense(ctx, zoe, &CreateExpenseRequest{
		GroupID: lisbon, Description: "x", Amount: "10",
	})
	assert.ErrorIs(t, err, group.ErrNotMember)

	_, err = svc.CreateExpense(ctx, john, &CreateExpenseRequest{
		GroupID: 99, Description: "x", Amount: "10",
	})
	assert.ErrorIs(t, err, group.ErrGroupNotFound)
}

func TestCreateExpense_RejectsBadAmounts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		amount   string
		currency string
		want     error
	}{
		{"not a number", "abc", "", ErrInvalidAmount},
		{"zero", "0", "", ErrInvalidAmount},
		{"negative", "-5", "", ErrInvalidAmount},
		{"too precise", "10.001", "", ErrInvalidAmount},
		{"other currency", "10", "USD", ErrCurrencyMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateExpense(ctx, john, &CreateExpenseRequest{
				GroupID: lisbon, Description: "x", Amount: tt.amount, Currency: tt.currency,
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateExpense_PersonalLedger(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	own, err := svc.CreateExpense(ctx, john, &CreateExpenseRequest{Description: "Coffee", Amount: "12.5"})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{john: 1250}, owedByUser(own))

	// personal expenses may involve anyone, in any currency
	lent, err := svc.CreateExpense(ctx, john, &CreateExpenseRequest{
		Description: "Concert", Amount: "3000", Currency: "jpy", Split: "@zoe",
	})
	require.NoError(t, err)
	assert.Equal(t, money.Currency("JPY"), lent.Expense.Amount.Currency())
	assert.Equal(t, map[int64]int64{zoe: 3000}, owedByUser(lent))

	visible, _, err := svc.ListExpenses(ctx, zoe, ListFilter{GroupID: balance.PersonalGroupID}, 1, 20)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, lent.Expense.ID, visible[0].ID)

	_, err = svc.GetExpenseByID(ctx, sarah, own.Expense.ID)
	assert.ErrorIs(t, err, ErrExpenseNotFound)
}

func TestPreviewExpense_DoesNotPersist(t *testing.T) {
	svc, store := newTestService(t)

	got, err := svc.PreviewExpense(context.Background(), john, &CreateExpenseRequest{
		GroupID: lisbon, Description: "Groceries", Amount: "100", Split: "@john @sarah @mike",
	})
	require.NoError(t, err)
	assert.Zero(t, store.creates)
	assert.Zero(t, got.Expense.ID)
	assert.Equal(t, map[int64]int64{john: 3334, sarah: 3333, mike: 3333}, owedByUser(got))

	resp := got.ToResponse()
	assert.Equal(t, "100.00", resp.Amount)
	assert.Equal(t, "33.34", resp.Splits[0].Owed)
	assert.Empty(t, resp.CreatedAt)
}

func TestDeleteExpense(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	got, err := svc.CreateExpense(ctx, john, &CreateExpenseRequest{
		GroupID: lisbon, Description: "Museum", Amount: "45", Trip: "lisbon",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteExpense(ctx, sarah, got.Expense.ID), ErrNotPayer)
	require.NoError(t, svc.DeleteExpense(ctx, john, got.Expense.ID))
	assert.ErrorIs(t, svc.DeleteExpense(ctx, john, got.Expense.ID), ErrAlreadyDeleted)
	assert.ErrorIs(t, svc.DeleteExpense(ctx, john, 999), ErrExpenseNotFound)

	trip := "lisbon"
	listed, _, err := svc.ListExpenses(ctx, sarah, ListFilter{GroupID: lisbon, Trip: &trip}, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, listed)

	listed, _, err = svc.ListExpenses(ctx, sarah, ListFilter{GroupID: lisbon, Trip: &trip, IncludeDeleted: true}, 1, 20)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].Deleted)

	// still readable, and ignored by the aggregator
	fetched, err := svc.GetExpenseByID(ctx, mike, got.Expense.ID)
	require.NoError(t, err)
	b, err := balance.Compute(balance.Scope{GroupID: lisbon}, []balance.ExpenseSnapshot{fetched.Snapshot()}, nil)
	require.NoError(t, err)
	assert.Empty(t, b.Pairs())
}
