package settlement

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fairsplit/fairsplit/internal/balance"
	"github.com/fairsplit/fairsplit/internal/expense"
	"github.com/fairsplit/fairsplit/internal/notification"
)

// Common errors
var (
	ErrSettlementNotFound  = errors.New("settlement not found")
	ErrAlreadySettled      = errors.New("already settled up - no open debts")
	ErrNotPayer            = errors.New("only the payer can mark as paid")
	ErrNotReceiver         = errors.New("only the receiver can confirm or reject")
	ErrInvalidStatusChange = errors.New("invalid status change")
	ErrCannotSettleSelf    = errors.New("cannot create settlement with yourself")
)

// Store is the persistence surface the service needs.
type Store interface {
	Create(ctx context.Context, groupID, payerID, receiverID string, amount float64) (*Settlement, error)
	GetByID(ctx context.Context, id string) (*Settlement, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*Settlement, int, error)
	UpdateStatus(ctx context.Context, id string, status SettlementStatus) (*Settlement, error)
}

// SplitLedger is the view of the splits table a settlement works over.
// Implemented by the expense repository.
type SplitLedger interface {
	GetPendingSplitsBetweenUsers(ctx context.Context, groupID, memberID, payerID string) ([]*expense.Split, error)
	LockSplitsToSettlement(ctx context.Context, splitIDs []string, settlementID string) error
	UnlockSplitsFromSettlement(ctx context.Context, settlementID string) error
	ConfirmSplitsBySettlement(ctx context.Context, settlementID string) error
}

// Invalidator drops a group's cached balance data after a write.
// Implemented by the cache; a nil Invalidator disables invalidation.
type Invalidator interface {
	InvalidateGroup(ctx context.Context, groupID string) error
}

// Notifier delivers settlement notifications to the counterparty.
// Implemented by the notification service; a nil Notifier disables them.
type Notifier interface {
	NotifySettlementCreated(ctx context.Context, recipientID, initiatorName, settlementID string) (*notification.Notification, error)
	NotifySettlementConfirmed(ctx context.Context, recipientID, receiverName, settlementID string) (*notification.Notification, error)
}

// Service handles settlement business logic
type Service struct {
	repo     Store
	splits   SplitLedger
	cache    Invalidator
	notifier Notifier
}

// NewService creates a new settlement service. The cache and notifier
// may be nil.
func NewService(repo Store, splits SplitLedger, cache Invalidator, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		splits:   splits,
		cache:    cache,
		notifier: notifier,
	}
}

// CreateSettlement opens a bulk settlement between the initiator and
// another member of the same group. The direction and amount come from
// the pair's open splits; those splits are locked until the settlement
// resolves. A zero-amount settlement is valid when mutual debts cancel
// out, it still needs confirmation to clear them.
func (s *Service) CreateSettlement(ctx context.Context, initiatorID string, req *CreateSettlementRequest) (*Settlement, error) {
	otherUserID := req.OtherUserID
	if initiatorID == otherUserID {
		return nil, ErrCannotSettleSelf
	}

	initiatorOwes, err := s.splits.GetPendingSplitsBetweenUsers(ctx, req.GroupID, initiatorID, otherUserID)
	if err != nil {
		return nil, err
	}
	otherOwes, err := s.splits.GetPendingSplitsBetweenUsers(ctx, req.GroupID, otherUserID, initiatorID)
	if err != nil {
		return nil, err
	}
	if len(initiatorOwes) == 0 && len(otherOwes) == 0 {
		return nil, ErrAlreadySettled
	}

	var net float64
	for _, split := range initiatorOwes {
		net += split.AmountOwed
	}
	for _, split := range otherOwes {
		net -= split.AmountOwed
	}

	// Whoever nets out owing becomes the payer. On a dead-even net the
	// initiator takes the payer seat of a zero settlement.
	payerID, receiverID := initiatorID, otherUserID
	amount := balance.Round2(net)
	switch balance.Sign(net) {
	case -1:
		payerID, receiverID = otherUserID, initiatorID
		amount = balance.Round2(-net)
	case 0:
		amount = 0
	}

	settlement, err := s.repo.Create(ctx, req.GroupID, payerID, receiverID, amount)
	if err != nil {
		return nil, err
	}

	splitIDs := make([]string, 0, len(initiatorOwes)+len(otherOwes))
	for _, split := range initiatorOwes {
		splitIDs = append(splitIDs, split.ID)
	}
	for _, split := range otherOwes {
		splitIDs = append(splitIDs, split.ID)
	}
	if err := s.splits.LockSplitsToSettlement(ctx, splitIDs, settlement.ID); err != nil {
		// A concurrent settlement beat us to some of the splits. Release
		// whatever we did take and retire the half-built settlement so it
		// does not linger as an open PENDING row.
		if uerr := s.splits.UnlockSplitsFromSettlement(ctx, settlement.ID); uerr != nil {
			slog.Warn("failed to release splits of abandoned settlement", "settlement_id", settlement.ID, "error", uerr)
		}
		if _, uerr := s.repo.UpdateStatus(ctx, settlement.ID, SettlementStatusRejected); uerr != nil {
			slog.Warn("failed to retire abandoned settlement", "settlement_id", settlement.ID, "error", uerr)
		}
		return nil, err
	}

	if s.notifier != nil {
		full, err := s.repo.GetByID(ctx, settlement.ID)
		if err == nil && full != nil {
			initiatorName := full.PayerUsername
			if full.ReceiverID == initiatorID {
				initiatorName = full.ReceiverUsername
			}
			if _, err := s.notifier.NotifySettlementCreated(ctx, otherUserID, initiatorName, settlement.ID); err != nil {
				slog.Warn("settlement notification failed", "settlement_id", settlement.ID, "error", err)
			}
		}
	}

	return settlement, nil
}

// GetByID retrieves a settlement by its ID
func (s *Service) GetByID(ctx context.Context, id string) (*Settlement, error) {
	settlement, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if settlement == nil {
		return nil, ErrSettlementNotFound
	}
	return settlement, nil
}

// ListByUserID retrieves all settlements for a user
func (s *Service) ListByUserID(ctx context.Context, userID string, page, perPage int) ([]*Settlement, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByUserID(ctx, userID, perPage, offset)
}

// MarkAsPaid lets the payer report that the money was sent
func (s *Service) MarkAsPaid(ctx context.Context, settlementID, userID string) (*Settlement, error) {
	settlement, err := s.GetByID(ctx, settlementID)
	if err != nil {
		return nil, err
	}

	if settlement.PayerID != userID {
		return nil, ErrNotPayer
	}
	if settlement.Status != SettlementStatusPending {
		return nil, ErrInvalidStatusChange
	}

	return s.repo.UpdateStatus(ctx, settlementID, SettlementStatusPaid)
}

// Confirm lets the receiver acknowledge the payment. All splits locked
// to the settlement settle with it.
func (s *Service) Confirm(ctx context.Context, settlementID, userID string) (*Settlement, error) {
	settlement, err := s.GetByID(ctx, settlementID)
	if err != nil {
		return nil, err
	}

	if settlement.ReceiverID != userID {
		return nil, ErrNotReceiver
	}
	if settlement.Status != SettlementStatusPaid {
		return nil, ErrInvalidStatusChange
	}

	// Settle the splits before flipping the status. If the split update
	// fails the settlement stays PAID and Confirm can simply be retried;
	// the reverse order would strand a CONFIRMED settlement over splits
	// that never settled.
	if err := s.splits.ConfirmSplitsBySettlement(ctx, settlementID); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, settlementID, SettlementStatusConfirmed)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, settlement.GroupID)

	if s.notifier != nil {
		if _, err := s.notifier.NotifySettlementConfirmed(ctx, settlement.PayerID, settlement.ReceiverUsername, settlementID); err != nil {
			slog.Warn("settlement notification failed", "settlement_id", settlementID, "error", err)
		}
	}

	return updated, nil
}

// Reject lets the receiver refuse the settlement. The locked splits are
// released and stay open.
func (s *Service) Reject(ctx context.Context, settlementID, userID string) (*Settlement, error) {
	settlement, err := s.GetByID(ctx, settlementID)
	if err != nil {
		return nil, err
	}

	if settlement.ReceiverID != userID {
		return nil, ErrNotReceiver
	}
	if settlement.Status != SettlementStatusPending && settlement.Status != SettlementStatusPaid {
		return nil, ErrInvalidStatusChange
	}

	// Same ordering as Confirm: release the splits first so a failure
	// leaves the settlement in its current status and Reject retryable.
	if err := s.splits.UnlockSplitsFromSettlement(ctx, settlementID); err != nil {
		return nil, err
	}

	return s.repo.UpdateStatus(ctx, settlementID, SettlementStatusRejected)
}

func (s *Service) invalidate(ctx context.Context, groupID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateGroup(ctx, groupID); err != nil {
		slog.Warn("balance cache invalidation failed", "group_id", groupID, "error", err)
	}
}
