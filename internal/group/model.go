package group

import "time"

// MemberStatus represents the status of a group member
type MemberStatus string

const (
	MemberStatusInvited MemberStatus = "INVITED"
	MemberStatusJoined  MemberStatus = "JOINED"
)

// MemberRole represents the role of a group member
type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "ADMIN"
	MemberRoleMember MemberRole = "MEMBER"
)

// Group represents a group in the system. InviteToken is a UUID shared
// out of band; anyone holding it can join the group.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	InviteToken string    `json:"invite_token"`
	CreatedAt   time.Time `json:"created_at"`
}

// GroupMember represents a user's membership in a group
type GroupMember struct {
	ID       string       `json:"id"`
	GroupID  string       `json:"group_id"`
	UserID   string       `json:"user_id"`
	Status   MemberStatus `json:"status"`
	Role     MemberRole   `json:"role"`
	JoinedAt time.Time    `json:"joined_at"`

	// Populated from JOIN
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}
