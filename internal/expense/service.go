package expense

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fairsplit/fairsplit/internal/balance"
	"github.com/fairsplit/fairsplit/internal/expense/split"
	"github.com/fairsplit/fairsplit/internal/group"
	"github.com/fairsplit/fairsplit/internal/notification"
)

// Common errors
var (
	ErrExpenseNotFound     = errors.New("expense not found")
	ErrSplitNotFound       = errors.New("split not found")
	ErrSplitLocked         = errors.New("split is locked to a settlement")
	ErrNotSplitMember      = errors.New("only the split's member can do this")
	ErrNotPayer            = errors.New("only the payer can do this")
	ErrNotGroupMember      = errors.New("all participants must be joined group members")
	ErrInvalidStatusChange = errors.New("invalid status change")
	ErrCannotDeleteExpense = errors.New("cannot delete expense with paid or confirmed splits")
)

// Store is the persistence surface the service needs.
type Store interface {
	CreateExpenseWithSplits(ctx context.Context, payerID string, req *CreateExpenseRequest, shares []balance.Split) (*ExpenseWithSplits, error)
	GetExpenseByID(ctx context.Context, id string) (*Expense, error)
	GetSplitsByExpenseID(ctx context.Context, expenseID string) ([]*Split, error)
	ListExpensesByGroupID(ctx context.Context, groupID string, limit, offset int) ([]*Expense, int, error)
	GetSplitByID(ctx context.Context, id string) (*Split, error)
	UpdateSplitStatus(ctx context.Context, id string, status SplitStatus, disputeReason *string) (*Split, error)
	DeleteExpense(ctx context.Context, id string) error
}

// MemberSource resolves a group's membership. Implemented by the group
// service.
type MemberSource interface {
	GetMembers(ctx context.Context, groupID string) ([]*group.GroupMember, error)
}

// Invalidator drops a group's cached balance data after a write.
// Implemented by the cache; a nil Invalidator disables invalidation.
type Invalidator interface {
	InvalidateGroup(ctx context.Context, groupID string) error
}

// Service handles expense business logic
type Service struct {
	repo         Store
	members      MemberSource
	splitFactory *split.Factory
	cache        Invalidator
	notifier     *notification.Service
}

// NewService creates a new expense service. The cache and notifier may
// be nil.
func NewService(repo Store, members MemberSource, splitFactory *split.Factory, cache Invalidator, notifier *notification.Service) *Service {
	return &Service{
		repo:         repo,
		members:      members,
		splitFactory: splitFactory,
		cache:        cache,
		notifier:     notifier,
	}
}

// CreateExpense creates an expense and its splits using the requested
// split strategy. The payer and every participant must be joined
// members of the group.
func (s *Service) CreateExpense(ctx context.Context, payerID string, req *CreateExpenseRequest) (*ExpenseWithSplits, error) {
	members, err := s.members.GetMembers(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}

	joined := make(map[string]bool, len(members))
	memberNames := make(map[string]string, len(members))
	for _, m := range members {
		memberNames[m.UserID] = m.Username
		if m.Status == group.MemberStatusJoined {
			joined[m.UserID] = true
		}
	}

	if !joined[payerID] {
		return nil, ErrNotGroupMember
	}
	for _, p := range req.Participants {
		if !joined[p.UserID] {
			return nil, ErrNotGroupMember
		}
	}

	strategy, err := s.splitFactory.CreateFromString(req.SplitType)
	if err != nil {
		return nil, err
	}

	inputs := make([]split.Input, len(req.Participants))
	for i, p := range req.Participants {
		inputs[i] = p.ToSplitInput()
	}

	shares, err := strategy.Calculate(req.Amount, inputs, memberNames)
	if err != nil {
		return nil, err
	}

	result, err := s.repo.CreateExpenseWithSplits(ctx, payerID, req, shares)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, req.GroupID)
	s.notifyExpenseAdded(ctx, payerID, memberNames[payerID], result)

	return result, nil
}

// GetExpenseByID retrieves an expense with its splits
func (s *Service) GetExpenseByID(ctx context.Context, id string) (*ExpenseWithSplits, error) {
	expense, err := s.repo.GetExpenseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, ErrExpenseNotFound
	}

	splits, err := s.repo.GetSplitsByExpenseID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ExpenseWithSplits{Expense: expense, Splits: splits}, nil
}

// ListExpensesByGroupID retrieves expenses for a group
func (s *Service) ListExpensesByGroupID(ctx context.Context, groupID string, page, perPage int) ([]*Expense, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListExpensesByGroupID(ctx, groupID, perPage, offset)
}

// MarkSplitAsPaid lets the split's member report that they paid their
// share. The payer still has to confirm before the split settles.
func (s *Service) MarkSplitAsPaid(ctx context.Context, splitID, memberID string) (*Split, error) {
	split, err := s.repo.GetSplitByID(ctx, splitID)
	if err != nil {
		return nil, err
	}
	if split == nil {
		return nil, ErrSplitNotFound
	}

	if split.MemberID != memberID {
		return nil, ErrNotSplitMember
	}
	if split.SettlementID != nil {
		return nil, ErrSplitLocked
	}
	if split.Status != SplitStatusPending {
		return nil, ErrInvalidStatusChange
	}

	updated, err := s.repo.UpdateSplitStatus(ctx, splitID, SplitStatusPaid, nil)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		expense, err := s.repo.GetExpenseByID(ctx, split.ExpenseID)
		if err == nil && expense != nil {
			if _, err := s.notifier.NotifySplitPaid(ctx, expense.PayerID, split.MemberUsername, splitID); err != nil {
				slog.Warn("split paid notification failed", "split_id", splitID, "error", err)
			}
		}
	}

	return updated, nil
}

// ConfirmSplitPayment lets the expense's payer confirm a reported
// payment. Confirmation settles the split and it stops counting toward
// the member's balance.
func (s *Service) ConfirmSplitPayment(ctx context.Context, splitID, payerID string) (*Split, error) {
	split, err := s.repo.GetSplitByID(ctx, splitID)
	if err != nil {
		return nil, err
	}
	if split == nil {
		return nil, ErrSplitNotFound
	}

	expense, err := s.repo.GetExpenseByID(ctx, split.ExpenseID)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, ErrExpenseNotFound
	}
	if expense.PayerID != payerID {
		return nil, ErrNotPayer
	}

	if split.SettlementID != nil {
		return nil, ErrSplitLocked
	}
	if split.Status != SplitStatusPaid {
		return nil, ErrInvalidStatusChange
	}

	updated, err := s.repo.UpdateSplitStatus(ctx, splitID, SplitStatusConfirmed, nil)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, expense.GroupID)

	if s.notifier != nil {
		if _, err := s.notifier.NotifySplitConfirmed(ctx, split.MemberID, expense.PayerUsername, splitID); err != nil {
			slog.Warn("split confirmed notification failed", "split_id", splitID, "error", err)
		}
	}

	return updated, nil
}

// DisputeSplit lets the split's member dispute their share with a reason
func (s *Service) DisputeSplit(ctx context.Context, splitID, memberID, reason string) (*Split, error) {
	split, err := s.repo.GetSplitByID(ctx, splitID)
	if err != nil {
		return nil, err
	}
	if split == nil {
		return nil, ErrSplitNotFound
	}

	if split.MemberID != memberID {
		return nil, ErrNotSplitMember
	}
	if split.SettlementID != nil {
		return nil, ErrSplitLocked
	}
	if split.Status != SplitStatusPending && split.Status != SplitStatusPaid {
		return nil, ErrInvalidStatusChange
	}

	return s.repo.UpdateSplitStatus(ctx, splitID, SplitStatusDisputed, &reason)
}

// DeleteExpense deletes an expense while all of its splits are still
// pending. Only the payer can delete.
func (s *Service) DeleteExpense(ctx context.Context, id, userID string) error {
	expense, err := s.repo.GetExpenseByID(ctx, id)
	if err != nil {
		return err
	}
	if expense == nil {
		return ErrExpenseNotFound
	}

	if expense.PayerID != userID {
		return ErrNotPayer
	}

	splits, err := s.repo.GetSplitsByExpenseID(ctx, id)
	if err != nil {
		return err
	}
	for _, split := range splits {
		if split.Status != SplitStatusPending {
			return ErrCannotDeleteExpense
		}
		if split.SettlementID != nil {
			return ErrSplitLocked
		}
	}

	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, expense.GroupID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, groupID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateGroup(ctx, groupID); err != nil {
		slog.Warn("balance cache invalidation failed", "group_id", groupID, "error", err)
	}
}

func (s *Service) notifyExpenseAdded(ctx context.Context, payerID, payerName string, result *ExpenseWithSplits) {
	if s.notifier == nil {
		return
	}
	for _, split := range result.Splits {
		if split.MemberID == payerID {
			continue
		}
		if _, err := s.notifier.NotifyExpenseAdded(ctx, split.MemberID, payerName, split.AmountOwed, result.Expense.ID); err != nil {
			slog.Warn("expense notification failed", "expense_id", result.Expense.ID, "recipient_id", split.MemberID, "error", err)
		}
	}
}
