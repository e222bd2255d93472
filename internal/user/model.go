package user

import "time"

// User represents a member account. The ID is an opaque UUID string;
// everything downstream (groups, expenses, the balance engine) refers
// to members by this id only.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
