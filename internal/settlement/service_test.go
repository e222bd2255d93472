package settlement

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairsplit/fairsplit/internal/expense"
	"github.com/fairsplit/fairsplit/internal/notification"
)

type stubStore struct {
	settlements map[string]*Settlement
	nextID      int
}

func newStubStore() *stubStore {
	return &stubStore{settlements: make(map[string]*Settlement)}
}

func (s *stubStore) Create(ctx context.Context, groupID, payerID, receiverID string, amount float64) (*Settlement, error) {
	s.nextID++
	settlement := &Settlement{
		ID:         "set-1",
		GroupID:    groupID,
		PayerID:    payerID,
		ReceiverID: receiverID,
		Amount:     amount,
		Status:     SettlementStatusPending,
	}
	s.settlements[settlement.ID] = settlement
	return settlement, nil
}

func (s *stubStore) GetByID(ctx context.Context, id string) (*Settlement, error) {
	return s.settlements[id], nil
}

func (s *stubStore) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*Settlement, int, error) {
	var out []*Settlement
	for _, st := range s.settlements {
		if st.PayerID == userID || st.ReceiverID == userID {
			out = append(out, st)
		}
	}
	return out, len(out), nil
}

func (s *stubStore) UpdateStatus(ctx context.Context, id string, status SettlementStatus) (*Settlement, error) {
	st, ok := s.settlements[id]
	if !ok {
		return nil, nil
	}
	st.Status = status
	return st, nil
}

// stubLedger keys open splits by "member->payer". The err fields make
// the matching operation fail.
type stubLedger struct {
	open      map[string][]*expense.Split
	locked    []string
	unlocked  []string
	confirmed []string

	lockErr    error
	confirmErr error
}

func (s *stubLedger) GetPendingSplitsBetweenUsers(ctx context.Context, groupID, memberID, payerID string) ([]*expense.Split, error) {
	return s.open[memberID+"->"+payerID], nil
}

func (s *stubLedger) LockSplitsToSettlement(ctx context.Context, splitIDs []string, settlementID string) error {
	if s.lockErr != nil {
		return s.lockErr
	}
	s.locked = append(s.locked, splitIDs...)
	return nil
}

func (s *stubLedger) UnlockSplitsFromSettlement(ctx context.Context, settlementID string) error {
	s.unlocked = append(s.unlocked, settlementID)
	return nil
}

func (s *stubLedger) ConfirmSplitsBySettlement(ctx context.Context, settlementID string) error {
	if s.confirmErr != nil {
		return s.confirmErr
	}
	s.confirmed = append(s.confirmed, settlementID)
	return nil
}

// stubNotifier records one "kind:recipient" entry per delivery.
type stubNotifier struct {
	sent []string
}

func (n *stubNotifier) NotifySettlementCreated(ctx context.Context, recipientID, initiatorName, settlementID string) (*notification.Notification, error) {
	n.sent = append(n.sent, "created:"+recipientID)
	return &notification.Notification{}, nil
}

func (n *stubNotifier) NotifySettlementConfirmed(ctx context.Context, recipientID, receiverName, settlementID string) (*notification.Notification, error) {
	n.sent = append(n.sent, "confirmed:"+recipientID)
	return &notification.Notification{}, nil
}

type recordingInvalidator struct {
	groups []string
}

func (r *recordingInvalidator) InvalidateGroup(ctx context.Context, groupID string) error {
	r.groups = append(r.groups, groupID)
	return nil
}

func sp(id string, amount float64) *expense.Split {
	return &expense.Split{ID: id, AmountOwed: amount, Status: expense.SplitStatusPending}
}

func TestCreateSettlementDerivesDirectionAndAmount(t *testing.T) {
	store := newStubStore()
	ledger := &stubLedger{open: map[string][]*expense.Split{
		"alice->bob": {sp("s1", 40), sp("s2", 20)},
		"bob->alice": {sp("s3", 10)},
	}}
	svc := NewService(store, ledger, nil, nil)

	settlement, err := svc.CreateSettlement(context.Background(), "alice", &CreateSettlementRequest{
		GroupID:     "g1",
		OtherUserID: "bob",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", settlement.PayerID)
	assert.Equal(t, "bob", settlement.ReceiverID)
	assert.InDelta(t, 50, settlement.Amount, 1e-9)
	assert.Equal(t, SettlementStatusPending, settlement.Status)

	// Splits in both directions get locked.
	assert.ElementsMatch(t, []string{"s1", "s2", "s3"}, ledger.locked)
}

func TestCreateSettlementInitiatorIsOwed(t *testing.T) {
	store := newStubStore()
	ledger := &stubLedger{open: map[string][]*expense.Split{
		"bob->alice": {sp("s1", 30)},
	}}
	svc := NewService(store, ledger, nil, nil)

	settlement, err := svc.CreateSettlement(context.Background(), "alice", &CreateSettlementRequest{
		GroupID:     "g1",
		OtherUserID: "bob",
	})
	require.NoError(t, err)

	assert.Equal(t, "bob", settlement.PayerID)
	assert.Equal(t, "alice", settlement.ReceiverID)
	assert.InDelta(t, 30, settlement.Amount, 1e-9)
}

func TestCreateSettlementZeroNet(t *testing.T) {
	store := newStubStore()
	ledger := &stubLedger{open: map[string][]*expense.Split{
		"alice->bob": {sp("s1", 25)},
		"bob->alice": {sp("s2", 25)},
	}}
	svc := NewService(store, ledger, nil, nil)

	settlement, err := svc.CreateSettlement(context.Background(), "alice", &CreateSettlementRequest{
		GroupID:     "g1",
		OtherUserID: "bob",
	})
	require.NoError(t, err)

	// Mutual debts cancel but still need a confirmed settlement to clear.
	assert.Equal(t, "alice", settlement.PayerID)
	assert.Zero(t, settlement.Amount)
	assert.ElementsMatch(t, []string{"s1", "s2"}, ledger.locked)
}

func TestCreateSettlementLockContention(t *testing.T) {
	store := newStubStore()
	ledger := &stubLedger{
		open: map[string][]*expense.Split{
			"alice->bob": {sp("s1", 40)},
		},
		lockErr: expense.ErrSplitLocked,
	}
	svc := NewService(store, ledger, nil, nil)

	// A concurrent settlement grabbed the splits between insert and
	// lock. The create must fail and the half-built settlement must not
	// survive as an open PENDING row.
	_, err := svc.CreateSettlement(context.Background(), "alice", &CreateSettlementRequest{
		GroupID:     "g1",
		OtherUserID: "bob",
	})
	require.ErrorIs(t, err, expense.ErrSplitLocked)

	assert.Equal(t, SettlementStatusRejected, store.settlements["set-1"].Status)
	assert.Equal(t, []string{"set-1"}, ledger.unlocked)
}

func TestCreateSettlementNothingOpen(t *testing.T) {
	svc := NewService(newStubStore(), &stubLedger{open: map[string][]*expense.Split{}}, nil, nil)

	_, err := svc.CreateSettlement(context.Background(), "alice", &CreateSettlementRequest{
		GroupID:     "g1",
		OtherUserID: "bob",
	})
	assert.ErrorIs(t, err, ErrAlreadySettled)
}

func TestCreateSettlementWithSelf(t *testing.T) {
	svc := NewService(newStubStore(), &stubLedger{}, nil, nil)

	_, err := svc.CreateSettlement(context.Background(), "alice", &CreateSettlementRequest{
		GroupID:     "g1",
		OtherUserID: "alice",
	})
	assert.ErrorIs(t, err, ErrCannotSettleSelf)
}

func seedSettlement(store *stubStore, status SettlementStatus) {
	store.settlements["set-1"] = &Settlement{
		ID:         "set-1",
		GroupID:    "g1",
		PayerID:    "alice",
		ReceiverID: "bob",
		Amount:     50,
		Status:     status,
	}
}

func TestSettlementLifecycle(t *testing.T) {
	store := newStubStore()
	ledger := &stubLedger{}
	inv := &recordingInvalidator{}
	svc := NewService(store, ledger, inv, nil)
	seedSettlement(store, SettlementStatusPending)

	_, err := svc.MarkAsPaid(context.Background(), "set-1", "bob")
	assert.ErrorIs(t, err, ErrNotPayer)

	settlement, err := svc.MarkAsPaid(context.Background(), "set-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, SettlementStatusPaid, settlement.Status)

	_, err = svc.Confirm(context.Background(), "set-1", "alice")
	assert.ErrorIs(t, err, ErrNotReceiver)

	settlement, err = svc.Confirm(context.Background(), "set-1", "bob")
	require.NoError(t, err)
	assert.Equal(t, SettlementStatusConfirmed, settlement.Status)
	assert.Equal(t, []string{"set-1"}, ledger.confirmed)
	assert.Equal(t, []string{"g1"}, inv.groups)

	_, err = svc.Confirm(context.Background(), "set-1", "bob")
	assert.ErrorIs(t, err, ErrInvalidStatusChange)
}

func TestConfirmRetryableWhenSplitUpdateFails(t *testing.T) {
	store := newStubStore()
	ledger := &stubLedger{confirmErr: errors.New("connection reset")}
	svc := NewService(store, ledger, nil, nil)
	seedSettlement(store, SettlementStatusPaid)

	// The split update fails, so the settlement must stay PAID; a
	// CONFIRMED settlement over unsettled splits would be unrecoverable
	// because Confirm only accepts PAID.
	_, err := svc.Confirm(context.Background(), "set-1", "bob")
	require.Error(t, err)
	assert.Equal(t, SettlementStatusPaid, store.settlements["set-1"].Status)

	ledger.confirmErr = nil
	settlement, err := svc.Confirm(context.Background(), "set-1", "bob")
	require.NoError(t, err)
	assert.Equal(t, SettlementStatusConfirmed, settlement.Status)
	assert.Equal(t, []string{"set-1"}, ledger.confirmed)
}

func TestSettlementNotifications(t *testing.T) {
	store := newStubStore()
	ledger := &stubLedger{open: map[string][]*expense.Split{
		"alice->bob": {sp("s1", 50)},
	}}
	notifier := &stubNotifier{}
	svc := NewService(store, ledger, nil, notifier)

	_, err := svc.CreateSettlement(context.Background(), "alice", &CreateSettlementRequest{
		GroupID:     "g1",
		OtherUserID: "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"created:bob"}, notifier.sent)

	_, err = svc.MarkAsPaid(context.Background(), "set-1", "alice")
	require.NoError(t, err)

	// Confirmation notifies the payer.
	_, err = svc.Confirm(context.Background(), "set-1", "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"created:bob", "confirmed:alice"}, notifier.sent)
}

func TestSettlementReject(t *testing.T) {
	store := newStubStore()
	ledger := &stubLedger{}
	svc := NewService(store, ledger, nil, nil)
	seedSettlement(store, SettlementStatusPaid)

	settlement, err := svc.Reject(context.Background(), "set-1", "bob")
	require.NoError(t, err)
	assert.Equal(t, SettlementStatusRejected, settlement.Status)
	assert.Equal(t, []string{"set-1"}, ledger.unlocked)
}

func TestSettlementRejectAfterConfirm(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, &stubLedger{}, nil, nil)
	seedSettlement(store, SettlementStatusConfirmed)

	_, err := svc.Reject(context.Background(), "set-1", "bob")
	assert.ErrorIs(t, err, ErrInvalidStatusChange)
}
