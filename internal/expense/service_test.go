package expense

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairsplit/fairsplit/internal/balance"
	"github.com/fairsplit/fairsplit/internal/expense/split"
	"github.com/fairsplit/fairsplit/internal/group"
)

type stubStore struct {
	expenses map[string]*Expense
	splits   map[string]*Split
	deleted  []string
}

func newStubStore() *stubStore {
	return &stubStore{
		expenses: make(map[string]*Expense),
		splits:   make(map[string]*Split),
	}
}

func (s *stubStore) CreateExpenseWithSplits(ctx context.Context, payerID string, req *CreateExpenseRequest, shares []balance.Split) (*ExpenseWithSplits, error) {
	expense := &Expense{
		ID:          "exp-1",
		GroupID:     req.GroupID,
		PayerID:     payerID,
		Description: req.Description,
		Amount:      req.Amount,
		SplitType:   req.SplitType,
	}
	s.expenses[expense.ID] = expense

	splits := make([]*Split, len(shares))
	for i, share := range shares {
		splits[i] = &Split{
			ID:         share.MemberID + "-split",
			ExpenseID:  expense.ID,
			MemberID:   share.MemberID,
			AmountOwed: share.Amount,
			Status:     SplitStatusPending,
		}
		s.splits[splits[i].ID] = splits[i]
	}
	return &ExpenseWithSplits{Expense: expense, Splits: splits}, nil
}

func (s *stubStore) GetExpenseByID(ctx context.Context, id string) (*Expense, error) {
	return s.expenses[id], nil
}

func (s *stubStore) GetSplitsByExpenseID(ctx context.Context, expenseID string) ([]*Split, error) {
	var splits []*Split
	for _, sp := range s.splits {
		if sp.ExpenseID == expenseID {
			splits = append(splits, sp)
		}
	}
	return splits, nil
}

func (s *stubStore) ListExpensesByGroupID(ctx context.Context, groupID string, limit, offset int) ([]*Expense, int, error) {
	var expenses []*Expense
	for _, e := range s.expenses {
		if e.GroupID == groupID {
			expenses = append(expenses, e)
		}
	}
	return expenses, len(expenses), nil
}

func (s *stubStore) GetSplitByID(ctx context.Context, id string) (*Split, error) {
	return s.splits[id], nil
}

func (s *stubStore) UpdateSplitStatus(ctx context.Context, id string, status SplitStatus, disputeReason *string) (*Split, error) {
	sp, ok := s.splits[id]
	if !ok {
		return nil, nil
	}
	sp.Status = status
	sp.DisputeReason = disputeReason
	return sp, nil
}

func (s *stubStore) DeleteExpense(ctx context.Context, id string) error {
	delete(s.expenses, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type stubMembers struct {
	members []*group.GroupMember
}

func (s *stubMembers) GetMembers(ctx context.Context, groupID string) ([]*group.GroupMember, error) {
	return s.members, nil
}

type recordingInvalidator struct {
	groups []string
}

func (r *recordingInvalidator) InvalidateGroup(ctx context.Context, groupID string) error {
	r.groups = append(r.groups, groupID)
	return nil
}

func newTestService(store *stubStore) (*Service, *recordingInvalidator) {
	members := &stubMembers{members: []*group.GroupMember{
		{UserID: "alice", Username: "Alice", Status: group.MemberStatusJoined},
		{UserID: "bob", Username: "Bob", Status: group.MemberStatusJoined},
		{UserID: "carl", Username: "Carl", Status: group.MemberStatusInvited},
	}}
	inv := &recordingInvalidator{}
	return NewService(store, members, split.NewFactory(), inv, nil), inv
}

func TestCreateExpenseEven(t *testing.T) {
	store := newStubStore()
	svc, inv := newTestService(store)

	result, err := svc.CreateExpense(context.Background(), "alice", &CreateExpenseRequest{
		GroupID:     "g1",
		Description: "groceries",
		Amount:      100,
		SplitType:   "EVEN",
		Participants: []*SplitParticipant{
			{UserID: "alice"},
			{UserID: "bob"},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Splits, 2)
	for _, sp := range result.Splits {
		assert.InDelta(t, 50, sp.AmountOwed, 1e-9)
		assert.Equal(t, SplitStatusPending, sp.Status)
	}
	assert.Equal(t, []string{"g1"}, inv.groups)
}

func TestCreateExpenseRejectsNonMember(t *testing.T) {
	svc, _ := newTestService(newStubStore())

	tests := []struct {
		name         string
		payerID      string
		participants []*SplitParticipant
	}{
		{"unknown participant", "alice", []*SplitParticipant{{UserID: "alice"}, {UserID: "mallory"}}},
		{"invited but not joined", "alice", []*SplitParticipant{{UserID: "alice"}, {UserID: "carl"}}},
		{"payer not a member", "mallory", []*SplitParticipant{{UserID: "alice"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateExpense(context.Background(), tt.payerID, &CreateExpenseRequest{
				GroupID:      "g1",
				Description:  "dinner",
				Amount:       40,
				SplitType:    "EVEN",
				Participants: tt.participants,
			})
			assert.ErrorIs(t, err, ErrNotGroupMember)
		})
	}
}

func TestCreateExpenseInvalidSplit(t *testing.T) {
	svc, inv := newTestService(newStubStore())

	pct := 60.0
	_, err := svc.CreateExpense(context.Background(), "alice", &CreateExpenseRequest{
		GroupID:     "g1",
		Description: "rent",
		Amount:      100,
		SplitType:   "PERCENTAGE",
		Participants: []*SplitParticipant{
			{UserID: "alice", Percentage: &pct},
			{UserID: "bob", Percentage: &pct},
		},
	})
	assert.ErrorIs(t, err, split.ErrInvalidPercentages)
	assert.Empty(t, inv.groups)
}

func seedSplit(store *stubStore, status SplitStatus, settlementID *string) {
	store.expenses["exp-1"] = &Expense{ID: "exp-1", GroupID: "g1", PayerID: "alice", Amount: 50}
	store.splits["s1"] = &Split{
		ID:           "s1",
		ExpenseID:    "exp-1",
		MemberID:     "bob",
		AmountOwed:   25,
		Status:       status,
		SettlementID: settlementID,
	}
}

func TestMarkSplitAsPaid(t *testing.T) {
	store := newStubStore()
	svc, _ := newTestService(store)
	seedSplit(store, SplitStatusPending, nil)

	updated, err := svc.MarkSplitAsPaid(context.Background(), "s1", "bob")
	require.NoError(t, err)
	assert.Equal(t, SplitStatusPaid, updated.Status)

	_, err = svc.MarkSplitAsPaid(context.Background(), "s1", "bob")
	assert.ErrorIs(t, err, ErrInvalidStatusChange)

	_, err = svc.MarkSplitAsPaid(context.Background(), "s1", "alice")
	assert.ErrorIs(t, err, ErrNotSplitMember)

	_, err = svc.MarkSplitAsPaid(context.Background(), "missing", "bob")
	assert.ErrorIs(t, err, ErrSplitNotFound)
}

func TestMarkSplitAsPaidLocked(t *testing.T) {
	store := newStubStore()
	svc, _ := newTestService(store)
	settlementID := "set-1"
	seedSplit(store, SplitStatusPending, &settlementID)

	_, err := svc.MarkSplitAsPaid(context.Background(), "s1", "bob")
	assert.ErrorIs(t, err, ErrSplitLocked)
}

func TestConfirmSplitPayment(t *testing.T) {
	store := newStubStore()
	svc, inv := newTestService(store)
	seedSplit(store, SplitStatusPaid, nil)

	_, err := svc.ConfirmSplitPayment(context.Background(), "s1", "bob")
	assert.ErrorIs(t, err, ErrNotPayer)

	updated, err := svc.ConfirmSplitPayment(context.Background(), "s1", "alice")
	require.NoError(t, err)
	assert.Equal(t, SplitStatusConfirmed, updated.Status)
	assert.Equal(t, []string{"g1"}, inv.groups)

	_, err = svc.ConfirmSplitPayment(context.Background(), "s1", "alice")
	assert.ErrorIs(t, err, ErrInvalidStatusChange)
}

func TestDisputeSplit(t *testing.T) {
	store := newStubStore()
	svc, _ := newTestService(store)
	seedSplit(store, SplitStatusPending, nil)

	updated, err := svc.DisputeSplit(context.Background(), "s1", "bob", "never attended")
	require.NoError(t, err)
	assert.Equal(t, SplitStatusDisputed, updated.Status)
	require.NotNil(t, updated.DisputeReason)
	assert.Equal(t, "never attended", *updated.DisputeReason)

	_, err = svc.DisputeSplit(context.Background(), "s1", "bob", "again")
	assert.ErrorIs(t, err, ErrInvalidStatusChange)
}

func TestDeleteExpense(t *testing.T) {
	store := newStubStore()
	svc, inv := newTestService(store)
	seedSplit(store, SplitStatusPending, nil)

	err := svc.DeleteExpense(context.Background(), "exp-1", "bob")
	assert.ErrorIs(t, err, ErrNotPayer)

	require.NoError(t, svc.DeleteExpense(context.Background(), "exp-1", "alice"))
	assert.Equal(t, []string{"exp-1"}, store.deleted)
	assert.Equal(t, []string{"g1"}, inv.groups)
}

func TestDeleteExpenseWithSettledSplit(t *testing.T) {
	store := newStubStore()
	svc, _ := newTestService(store)
	seedSplit(store, SplitStatusPaid, nil)

	err := svc.DeleteExpense(context.Background(), "exp-1", "alice")
	assert.ErrorIs(t, err, ErrCannotDeleteExpense)
}
