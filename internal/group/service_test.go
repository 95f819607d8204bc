package group

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/splitledger/internal/money"
	"github.com/fkhayef/splitledger/pkg/logger"
)

type fakeStore struct {
	groups  map[int64]*Group
	members map[int64][]*GroupMember
	users   map[int64]string
	nextID  int64
}

func newFakeStore(users map[int64]string) *fakeStore {
	return &fakeStore{groups: map[int64]*Group{}, members: map[int64][]*GroupMember{}, users: users}
}

func (f *fakeStore) Create(_ context.Context, creatorID int64, req *CreateGroupRequest, currency money.Currency) (*Group, error) {
	if _, ok := f.users[creatorID]; !ok {
		return nil, ErrUserNotFound
	}
	f.nextID++
	g := &Group{ID: f.nextID, Name: req.Name, Currency: currency, CreatedBy: creatorID, CreatedAt: time.Now()}
	f.groups[g.ID] = g
	f.members[g.ID] = []*GroupMember{{GroupID: g.ID, UserID: creatorID, Status: MemberStatusJoined, Role: MemberRoleAdmin, Username: f.users[creatorID]}}
	return g, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*Group, error) {
	return f.groups[id], nil
}

func (f *fakeStore) ListByUserID(_ context.Context, userID int64, _, _ int) ([]*Group, int, error) {
	var out []*Group
	for id, ms := range f.members {
		for _, m := range ms {
			if m.UserID == userID && m.Active() {
				out = append(out, f.groups[id])
			}
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) UpsertMember(_ context.Context, groupID int64, req *AddMemberRequest) (*GroupMember, error) {
	name, ok := f.users[req.UserID]
	if !ok {
		return nil, ErrUserNotFound
	}
	role := req.Role
	if role == "" {
		role = MemberRoleMember
	}
	for _, m := range f.members[groupID] {
		if m.UserID == req.UserID {
			m.Status, m.Role = MemberStatusJoined, role
			return m, nil
		}
	}
	m := &GroupMember{GroupID: groupID, UserID: req.UserID, Status: MemberStatusJoined, Role: role, Username: name}
	f.members[groupID] = append(f.members[groupID], m)
	return m, nil
}

func (f *fakeStore) GetMembers(_ context.Context, groupID int64) ([]*GroupMember, error) {
	return f.members[groupID], nil
}

func (f *fakeStore) GetMember(_ context.Context, groupID, userID int64) (*GroupMember, error) {
	for _, m := range f.members[groupID] {
		if m.UserID == userID {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SetMemberStatus(_ context.Context, groupID, userID int64, status MemberStatus) (bool, error) {
	for _, m := range f.members[groupID] {
		if m.UserID == userID {
			m.Status = status
			return true, nil
		}
	}
	return false, nil
}

func setup(t *testing.T) (*Service, *Group) {
	t.Helper()
	store := newFakeStore(map[int64]string{1: "john", 2: "sarah", 3: "mike", 4: "zoe"})
	svc := NewService(store, money.DefaultCurrency, logger.Nop())

	g, err := svc.Create(context.Background(), 1, &CreateGroupRequest{Name: "Lisbon"})
	require.NoError(t, err)
	for _, uid := range []int64{2, 3} {
		_, err := svc.AddMember(context.Background(), 1, g.ID, &AddMemberRequest{UserID: uid})
		require.NoError(t, err)
	}
	return svc, g
}

func TestService_CreateUsesCurrency(t *testing.T) {
	svc := NewService(newFakeStore(map[int64]string{1: "john"}), money.DefaultCurrency, logger.Nop())
	ctx := context.Background()

	g, err := svc.Create(ctx, 1, &CreateGroupRequest{Name: "Home"})
	require.NoError(t, err)
	assert.Equal(t, money.DefaultCurrency, g.Currency)

	g, err = svc.Create(ctx, 1, &CreateGroupRequest{Name: "Tokyo", Currency: "jpy"})
	require.NoError(t, err)
	assert.Equal(t, money.Currency("JPY"), g.Currency)

	_, err = svc.Create(ctx, 1, &CreateGroupRequest{Name: "Bad", Currency: "12$"})
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestService_AddMember(t *testing.T) {
	svc, g := setup(t)
	ctx := context.Background()

	_, err := svc.AddMember(ctx, 1, g.ID, &AddMemberRequest{UserID: 2})
	assert.ErrorIs(t, err, ErrMemberAlreadyExists)

	_, err = svc.AddMember(ctx, 4, g.ID, &AddMemberRequest{UserID: 4})
	assert.ErrorIs(t, err, ErrNotAuthorized, "outsiders cannot add themselves")

	_, err = svc.AddMember(ctx, 1, 99, &AddMemberRequest{UserID: 4})
	assert.ErrorIs(t, err, ErrGroupNotFound)

	_, err = svc.AddMember(ctx, 1, g.ID, &AddMemberRequest{UserID: 77})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_LeaveKeepsHistoryAndShrinksFallback(t *testing.T) {
	svc, g := setup(t)
	ctx := context.Background()

	active, err := svc.ActiveMembers(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, active, 3)

	require.NoError(t, svc.Leave(ctx, 3, g.ID, 3))

	active, err = svc.ActiveMembers(ctx, g.ID)
	require.NoError(t, err)
	names := make([]string, len(active))
	for i, m := range active {
		names[i] = m.Username
	}
	assert.Equal(t, []string{"john", "sarah"}, names)

	_, members, err := svc.GetByIDWithMembers(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, members, 3)

	_, err = svc.RequireMember(ctx, g.ID, 3)
	assert.ErrorIs(t, err, ErrNotMember)

	// rejoin
	_, err = svc.AddMember(ctx, 1, g.ID, &AddMemberRequest{UserID: 3})
	require.NoError(t, err)
	_, err = svc.RequireMember(ctx, g.ID, 3)
	assert.NoError(t, err)
}

func TestService_LeaveAuthorization(t *testing.T) {
	svc, g := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Leave(ctx, 2, g.ID, 3), ErrNotAuthorized, "members cannot remove others")
	assert.ErrorIs(t, svc.Leave(ctx, 4, g.ID, 4), ErrNotAuthorized)
	assert.NoError(t, svc.Leave(ctx, 1, g.ID, 2), "admins can remove members")
	assert.ErrorIs(t, svc.Leave(ctx, 1, g.ID, 4), ErrMemberNotFound)
}
