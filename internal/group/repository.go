package group

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Repository handles group data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new group repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new group with a fresh invite token
func (r *Repository) Create(ctx context.Context, req *CreateGroupRequest) (*Group, error) {
	query := `
		INSERT INTO groups (id, name, description, invite_token)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, description, invite_token, created_at
	`

	group := &Group{}
	err := r.db.QueryRowContext(ctx, query, uuid.New().String(), req.Name, req.Description, uuid.New().String()).Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.InviteToken,
		&group.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	return group, nil
}

// GetByID retrieves a group by its ID
func (r *Repository) GetByID(ctx context.Context, id string) (*Group, error) {
	return r.getBy(ctx, "id", id)
}

// GetByInviteToken retrieves a group by its invite token
func (r *Repository) GetByInviteToken(ctx context.Context, token string) (*Group, error) {
	return r.getBy(ctx, "invite_token", token)
}

func (r *Repository) getBy(ctx context.Context, column, value string) (*Group, error) {
	query := fmt.Sprintf(`
		SELECT id, name, description, invite_token, created_at
		FROM groups
		WHERE %s = $1
	`, column)

	group := &Group{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.InviteToken,
		&group.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return group, nil
}

// ListByUserID retrieves all groups a user belongs to
func (r *Repository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*Group, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*) FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1
	`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	query := `
		SELECT g.id, g.name, g.description, g.invite_token, g.created_at
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		group := &Group{}
		if err := rows.Scan(
			&group.ID,
			&group.Name,
			&group.Description,
			&group.InviteToken,
			&group.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate groups: %w", err)
	}

	return groups, total, nil
}

// Update modifies an existing group
func (r *Repository) Update(ctx context.Context, id string, req *UpdateGroupRequest) (*Group, error) {
	query := `
		UPDATE groups
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description)
		WHERE id = $1
		RETURNING id, name, description, invite_token, created_at
	`

	group := &Group{}
	err := r.db.QueryRowContext(ctx, query, id, req.Name, req.Description).Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.InviteToken,
		&group.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update group: %w", err)
	}

	return group, nil
}

// Delete removes a group
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrGroupNotFound
	}

	return nil
}

// AddMember adds a user to a group
func (r *Repository) AddMember(ctx context.Context, groupID, userID string, status MemberStatus, role MemberRole) (*GroupMember, error) {
	query := `
		INSERT INTO group_members (id, group_id, user_id, status, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, group_id, user_id, status, role, joined_at
	`

	member := &GroupMember{}
	err := r.db.QueryRowContext(ctx, query, uuid.New().String(), groupID, userID, status, role).Scan(
		&member.ID,
		&member.GroupID,
		&member.UserID,
		&member.Status,
		&member.Role,
		&member.JoinedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return member, nil
}

// GetMember retrieves a single membership row
func (r *Repository) GetMember(ctx context.Context, groupID, userID string) (*GroupMember, error) {
	query := `
		SELECT id, group_id, user_id, status, role, joined_at
		FROM group_members
		WHERE group_id = $1 AND user_id = $2
	`

	member := &GroupMember{}
	err := r.db.QueryRowContext(ctx, query, groupID, userID).Scan(
		&member.ID,
		&member.GroupID,
		&member.UserID,
		&member.Status,
		&member.Role,
		&member.JoinedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

// GetMembers retrieves all members of a group with their usernames
func (r *Repository) GetMembers(ctx context.Context, groupID string) ([]*GroupMember, error) {
	query := `
		SELECT m.id, m.group_id, m.user_id, m.status, m.role, m.joined_at,
		       u.username, u.email
		FROM group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1
		ORDER BY m.joined_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []*GroupMember
	for rows.Next() {
		member := &GroupMember{}
		if err := rows.Scan(
			&member.ID,
			&member.GroupID,
			&member.UserID,
			&member.Status,
			&member.Role,
			&member.JoinedAt,
			&member.Username,
			&member.Email,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// UpdateMemberStatus changes a member's status
func (r *Repository) UpdateMemberStatus(ctx context.Context, groupID, userID string, status MemberStatus) (*GroupMember, error) {
	query := `
		UPDATE group_members
		SET status = $3
		WHERE group_id = $1 AND user_id = $2
		RETURNING id, group_id, user_id, status, role, joined_at
	`

	member := &GroupMember{}
	err := r.db.QueryRowContext(ctx, query, groupID, userID, status).Scan(
		&member.ID,
		&member.GroupID,
		&member.UserID,
		&member.Status,
		&member.Role,
		&member.JoinedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update member: %w", err)
	}

	return member, nil
}

// RemoveMember deletes a membership row
func (r *Repository) RemoveMember(ctx context.Context, groupID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMemberNotFound
	}

	return nil
}
