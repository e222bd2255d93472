package group

// CreateGroupRequest represents the request to create a group
type CreateGroupRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// UpdateGroupRequest represents the request to update a group
type UpdateGroupRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// AddMemberRequest represents the request to add a member to a group
type AddMemberRequest struct {
	UserID string     `json:"user_id" validate:"required,uuid"`
	Role   MemberRole `json:"role,omitempty" validate:"omitempty,oneof=ADMIN MEMBER"`
}

// JoinGroupRequest represents the request to join a group by invite token
type JoinGroupRequest struct {
	InviteToken string `json:"invite_token" validate:"required,uuid"`
}

// GroupResponse represents the response for a group
type GroupResponse struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description *string                `json:"description,omitempty"`
	InviteToken string                 `json:"invite_token,omitempty"`
	CreatedAt   string                 `json:"created_at"`
	Members     []*GroupMemberResponse `json:"members,omitempty"`
}

// GroupMemberResponse represents the response for a group member
type GroupMemberResponse struct {
	UserID   string       `json:"user_id"`
	Username string       `json:"username,omitempty"`
	Email    string       `json:"email,omitempty"`
	Status   MemberStatus `json:"status"`
	Role     MemberRole   `json:"role"`
	JoinedAt string       `json:"joined_at"`
}

// ToResponse converts a Group model to a GroupResponse DTO
func (g *Group) ToResponse() *GroupResponse {
	return &GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		InviteToken: g.InviteToken,
		CreatedAt:   g.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponse converts a GroupMember model to a GroupMemberResponse DTO
func (m *GroupMember) ToResponse() *GroupMemberResponse {
	return &GroupMemberResponse{
		UserID:   m.UserID,
		Username: m.Username,
		Email:    m.Email,
		Status:   m.Status,
		Role:     m.Role,
		JoinedAt: m.JoinedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
