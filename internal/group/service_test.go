package group

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairsplit/fairsplit/internal/balance"
	"github.com/fairsplit/fairsplit/internal/cache"
	"github.com/fairsplit/fairsplit/internal/notification"
)

type stubStore struct {
	groups  map[string]*Group
	byToken map[string]*Group
	members map[string][]*GroupMember
}

func newStubStore() *stubStore {
	return &stubStore{
		groups:  make(map[string]*Group),
		byToken: make(map[string]*Group),
		members: make(map[string][]*GroupMember),
	}
}

func (s *stubStore) Create(ctx context.Context, req *CreateGroupRequest) (*Group, error) {
	g := &Group{ID: "g1", Name: req.Name, InviteToken: "token-1"}
	s.groups[g.ID] = g
	s.byToken[g.InviteToken] = g
	return g, nil
}

func (s *stubStore) GetByID(ctx context.Context, id string) (*Group, error) {
	return s.groups[id], nil
}

func (s *stubStore) GetByInviteToken(ctx context.Context, token string) (*Group, error) {
	return s.byToken[token], nil
}

func (s *stubStore) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*Group, int, error) {
	return nil, 0, nil
}

func (s *stubStore) Update(ctx context.Context, id string, req *UpdateGroupRequest) (*Group, error) {
	return s.groups[id], nil
}

func (s *stubStore) Delete(ctx context.Context, id string) error {
	delete(s.groups, id)
	return nil
}

func (s *stubStore) AddMember(ctx context.Context, groupID, userID string, status MemberStatus, role MemberRole) (*GroupMember, error) {
	m := &GroupMember{GroupID: groupID, UserID: userID, Status: status, Role: role, Username: userID}
	s.members[groupID] = append(s.members[groupID], m)
	return m, nil
}

func (s *stubStore) GetMember(ctx context.Context, groupID, userID string) (*GroupMember, error) {
	for _, m := range s.members[groupID] {
		if m.UserID == userID {
			return m, nil
		}
	}
	return nil, nil
}

func (s *stubStore) GetMembers(ctx context.Context, groupID string) ([]*GroupMember, error) {
	return s.members[groupID], nil
}

func (s *stubStore) UpdateMemberStatus(ctx context.Context, groupID, userID string, status MemberStatus) (*GroupMember, error) {
	for _, m := range s.members[groupID] {
		if m.UserID == userID {
			m.Status = status
			return m, nil
		}
	}
	return nil, nil
}

func (s *stubStore) RemoveMember(ctx context.Context, groupID, userID string) error {
	return nil
}

type stubExpenses struct {
	expenses []balance.Expense
	calls    int
}

func (s *stubExpenses) ListForBalances(ctx context.Context, groupID string) ([]balance.Expense, error) {
	s.calls++
	return s.expenses, nil
}

// stubNotifier records invite recipients.
type stubNotifier struct {
	invited []string
}

func (n *stubNotifier) NotifyGroupInvite(ctx context.Context, recipientID, groupName, groupID string) (*notification.Notification, error) {
	n.invited = append(n.invited, recipientID)
	return &notification.Notification{}, nil
}

// fakeCache is an in-memory stand-in for the Redis cache.
type fakeCache struct {
	data map[string][]byte
}

func (f *fakeCache) GetJSON(ctx context.Context, key string, target any) error {
	raw, ok := f.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(raw, target)
}

func (f *fakeCache) SetJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = raw
	return nil
}

func seedGroup(store *stubStore) {
	store.groups["g1"] = &Group{ID: "g1", Name: "trip", InviteToken: "token-1"}
	store.byToken["token-1"] = store.groups["g1"]
	store.members["g1"] = []*GroupMember{
		{GroupID: "g1", UserID: "alice", Username: "Alice", Status: MemberStatusJoined, Role: MemberRoleAdmin},
		{GroupID: "g1", UserID: "bob", Username: "Bob", Status: MemberStatusJoined, Role: MemberRoleMember},
	}
}

func tripExpenses() []balance.Expense {
	return []balance.Expense{
		{
			ID: "e1", GroupID: "g1", PayerID: "alice", Amount: 100,
			Splits: []balance.Split{
				{MemberID: "alice", Amount: 50},
				{MemberID: "bob", Amount: 50},
			},
		},
	}
}

func TestCreateAddsCreatorAsAdmin(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, &stubExpenses{}, nil, nil)

	g, err := svc.Create(context.Background(), "alice", &CreateGroupRequest{Name: "trip"})
	require.NoError(t, err)

	members := store.members[g.ID]
	require.Len(t, members, 1)
	assert.Equal(t, "alice", members[0].UserID)
	assert.Equal(t, MemberStatusJoined, members[0].Status)
	assert.Equal(t, MemberRoleAdmin, members[0].Role)
}

func TestAddMemberNotifiesInvitee(t *testing.T) {
	store := newStubStore()
	notifier := &stubNotifier{}
	svc := NewService(store, &stubExpenses{}, nil, notifier)
	seedGroup(store)

	member, err := svc.AddMember(context.Background(), "g1", &AddMemberRequest{UserID: "carl"})
	require.NoError(t, err)
	assert.Equal(t, MemberStatusInvited, member.Status)
	assert.Equal(t, []string{"carl"}, notifier.invited)

	// A duplicate invite fails and must not notify again.
	_, err = svc.AddMember(context.Background(), "g1", &AddMemberRequest{UserID: "carl"})
	assert.ErrorIs(t, err, ErrMemberAlreadyExists)
	assert.Equal(t, []string{"carl"}, notifier.invited)
}

func TestJoinByInviteToken(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, &stubExpenses{}, nil, nil)
	seedGroup(store)

	g, member, err := svc.Join(context.Background(), "carl", "token-1")
	require.NoError(t, err)
	assert.Equal(t, "g1", g.ID)
	assert.Equal(t, MemberStatusJoined, member.Status)
	assert.Equal(t, MemberRoleMember, member.Role)

	// Joining twice conflicts.
	_, _, err = svc.Join(context.Background(), "carl", "token-1")
	assert.ErrorIs(t, err, ErrMemberAlreadyExists)

	_, _, err = svc.Join(context.Background(), "dave", "bogus")
	assert.ErrorIs(t, err, ErrInvalidInviteToken)
}

func TestJoinFlipsInvitedMember(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, &stubExpenses{}, nil, nil)
	seedGroup(store)
	store.members["g1"] = append(store.members["g1"],
		&GroupMember{GroupID: "g1", UserID: "carl", Status: MemberStatusInvited, Role: MemberRoleMember})

	_, member, err := svc.Join(context.Background(), "carl", "token-1")
	require.NoError(t, err)
	assert.Equal(t, MemberStatusJoined, member.Status)
}

func TestBalancesComputesFromExpenseHistory(t *testing.T) {
	store := newStubStore()
	expenses := &stubExpenses{expenses: tripExpenses()}
	svc := NewService(store, expenses, nil, nil)
	seedGroup(store)

	balances, err := svc.Balances(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, balances, 2)

	assert.Equal(t, "alice", balances[0].MemberID)
	assert.InDelta(t, 50, balances[0].Net, balance.Tolerance)
	assert.Equal(t, "bob", balances[1].MemberID)
	assert.InDelta(t, -50, balances[1].Net, balance.Tolerance)
}

func TestBalancesUsesCache(t *testing.T) {
	store := newStubStore()
	expenses := &stubExpenses{expenses: tripExpenses()}
	c := &fakeCache{data: make(map[string][]byte)}
	svc := NewService(store, expenses, c, nil)
	seedGroup(store)

	first, err := svc.Balances(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, expenses.calls)

	second, err := svc.Balances(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, expenses.calls, "second read should come from cache")
	assert.Equal(t, first, second)
}

func TestSettleUpSuggestsTransactions(t *testing.T) {
	store := newStubStore()
	expenses := &stubExpenses{expenses: tripExpenses()}
	svc := NewService(store, expenses, nil, nil)
	seedGroup(store)

	transactions, err := svc.SettleUp(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, "bob", transactions[0].DebtorID)
	assert.Equal(t, "alice", transactions[0].CreditorID)
	assert.InDelta(t, 50, transactions[0].Amount, balance.Tolerance)
}

func TestBalancesUnknownGroup(t *testing.T) {
	svc := NewService(newStubStore(), &stubExpenses{}, nil, nil)

	_, err := svc.Balances(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrGroupNotFound)
}
