package group

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fairsplit/fairsplit/internal/balance"
	"github.com/fairsplit/fairsplit/internal/cache"
	"github.com/fairsplit/fairsplit/internal/notification"
)

// Common errors
var (
	ErrGroupNotFound       = errors.New("group not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberAlreadyExists = errors.New("user is already a member of this group")
	ErrInvalidInviteToken  = errors.New("invalid invite token")
	ErrNotAuthorized       = errors.New("not authorized to perform this action")
)

// Store is the persistence surface the service needs.
type Store interface {
	Create(ctx context.Context, req *CreateGroupRequest) (*Group, error)
	GetByID(ctx context.Context, id string) (*Group, error)
	GetByInviteToken(ctx context.Context, token string) (*Group, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*Group, int, error)
	Update(ctx context.Context, id string, req *UpdateGroupRequest) (*Group, error)
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, groupID, userID string, status MemberStatus, role MemberRole) (*GroupMember, error)
	GetMember(ctx context.Context, groupID, userID string) (*GroupMember, error)
	GetMembers(ctx context.Context, groupID string) ([]*GroupMember, error)
	UpdateMemberStatus(ctx context.Context, groupID, userID string, status MemberStatus) (*GroupMember, error)
	RemoveMember(ctx context.Context, groupID, userID string) error
}

// ExpenseSource supplies the engine's view of a group's expense
// history. Implemented by the expense repository.
type ExpenseSource interface {
	ListForBalances(ctx context.Context, groupID string) ([]balance.Expense, error)
}

// Cache stores derived balance data between recomputations. A nil Cache
// disables caching.
type Cache interface {
	GetJSON(ctx context.Context, key string, target any) error
	SetJSON(ctx context.Context, key string, value any) error
}

// Notifier tells a user they were invited. Implemented by the
// notification service; a nil Notifier disables invite notifications.
type Notifier interface {
	NotifyGroupInvite(ctx context.Context, recipientID, groupName, groupID string) (*notification.Notification, error)
}

// Service handles group business logic
type Service struct {
	repo     Store
	expenses ExpenseSource
	cache    Cache
	notifier Notifier
}

// NewService creates a new group service. The cache and notifier may be
// nil.
func NewService(repo Store, expenses ExpenseSource, c Cache, notifier Notifier) *Service {
	return &Service{repo: repo, expenses: expenses, cache: c, notifier: notifier}
}

// Create creates a new group and adds the creator as a joined admin
func (s *Service) Create(ctx context.Context, creatorID string, req *CreateGroupRequest) (*Group, error) {
	group, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.AddMember(ctx, group.ID, creatorID, MemberStatusJoined, MemberRoleAdmin); err != nil {
		return nil, err
	}

	return group, nil
}

// GetByID retrieves a group by its ID
func (s *Service) GetByID(ctx context.Context, id string) (*Group, error) {
	group, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// GetByIDWithMembers retrieves a group with all its members
func (s *Service) GetByIDWithMembers(ctx context.Context, id string) (*Group, []*GroupMember, error) {
	group, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.repo.GetMembers(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return group, members, nil
}

// ListByUserID retrieves all groups for a user
func (s *Service) ListByUserID(ctx context.Context, userID string, page, perPage int) ([]*Group, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByUserID(ctx, userID, perPage, offset)
}

// Update modifies an existing group
func (s *Service) Update(ctx context.Context, id string, req *UpdateGroupRequest) (*Group, error) {
	group, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// Delete removes a group
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// AddMember invites a user into a group
func (s *Service) AddMember(ctx context.Context, groupID string, req *AddMemberRequest) (*GroupMember, error) {
	group, err := s.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetMember(ctx, groupID, req.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrMemberAlreadyExists
	}

	role := req.Role
	if role == "" {
		role = MemberRoleMember
	}
	member, err := s.repo.AddMember(ctx, groupID, req.UserID, MemberStatusInvited, role)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if _, err := s.notifier.NotifyGroupInvite(ctx, req.UserID, group.Name, groupID); err != nil {
			slog.Warn("invite notification failed", "group_id", groupID, "user_id", req.UserID, "error", err)
		}
	}

	return member, nil
}

// Join adds the caller to the group matching the invite token. An
// invited member flips to JOINED; anyone else comes in as a regular
// joined member.
func (s *Service) Join(ctx context.Context, userID, inviteToken string) (*Group, *GroupMember, error) {
	group, err := s.repo.GetByInviteToken(ctx, inviteToken)
	if err != nil {
		return nil, nil, err
	}
	if group == nil {
		return nil, nil, ErrInvalidInviteToken
	}

	existing, err := s.repo.GetMember(ctx, group.ID, userID)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		if existing.Status == MemberStatusJoined {
			return nil, nil, ErrMemberAlreadyExists
		}
		member, err := s.repo.UpdateMemberStatus(ctx, group.ID, userID, MemberStatusJoined)
		if err != nil {
			return nil, nil, err
		}
		return group, member, nil
	}

	member, err := s.repo.AddMember(ctx, group.ID, userID, MemberStatusJoined, MemberRoleMember)
	if err != nil {
		return nil, nil, err
	}
	return group, member, nil
}

// GetMembers retrieves all members of a group
func (s *Service) GetMembers(ctx context.Context, groupID string) ([]*GroupMember, error) {
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.repo.GetMembers(ctx, groupID)
}

// RemoveMember removes a user from a group
func (s *Service) RemoveMember(ctx context.Context, groupID, userID string) error {
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return err
	}
	return s.repo.RemoveMember(ctx, groupID, userID)
}

// Balances computes the net position of every group member from the
// group's expense history. Results are cached until the next write to
// the group or TTL expiry.
func (s *Service) Balances(ctx context.Context, groupID string) ([]balance.GroupBalance, error) {
	if s.cache != nil {
		var cached []balance.GroupBalance
		err := s.cache.GetJSON(ctx, cache.BalancesKey(groupID), &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			slog.Warn("balance cache read failed", "group_id", groupID, "error", err)
		}
	}

	balances, err := s.computeBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cache.BalancesKey(groupID), balances); err != nil {
			slog.Warn("balance cache write failed", "group_id", groupID, "error", err)
		}
	}
	return balances, nil
}

// SettleUp suggests the payments that would settle the group, derived
// from the current balances by greedy debt simplification.
func (s *Service) SettleUp(ctx context.Context, groupID string) ([]balance.Transaction, error) {
	if s.cache != nil {
		var cached []balance.Transaction
		err := s.cache.GetJSON(ctx, cache.SettleUpKey(groupID), &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			slog.Warn("settle-up cache read failed", "group_id", groupID, "error", err)
		}
	}

	balances, err := s.computeBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	transactions := balance.SimplifyDebts(balances)

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cache.SettleUpKey(groupID), transactions); err != nil {
			slog.Warn("settle-up cache write failed", "group_id", groupID, "error", err)
		}
	}
	return transactions, nil
}

func (s *Service) computeBalances(ctx context.Context, groupID string) ([]balance.GroupBalance, error) {
	members, err := s.GetMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	memberIDs := make([]string, len(members))
	memberNames := make(map[string]string, len(members))
	for i, m := range members {
		memberIDs[i] = m.UserID
		memberNames[m.UserID] = m.Username
	}

	expenses, err := s.expenses.ListForBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return balance.ComputeGroupBalances(expenses, memberIDs, memberNames), nil
}
