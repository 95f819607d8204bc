package group

import (
	"time"

	"github.com/fkhayef/splitledger/internal/money"
)

// MemberStatus represents the status of a group member
type MemberStatus string

const (
	MemberStatusJoined MemberStatus = "JOINED"
	// MemberStatusLeft keeps the member's history; they no longer join
	// equal splits by default
	MemberStatusLeft MemberStatus = "LEFT"
)

// MemberRole represents the role of a group member
type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "ADMIN"
	MemberRoleMember MemberRole = "MEMBER"
)

// Group represents a group in the system. All of a group's expenses and
// settlements are in its currency.
type Group struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	Currency    money.Currency `json:"currency"`
	CreatedBy   int64          `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
}

// GroupMember represents a user's membership in a group
type GroupMember struct {
	ID       int64        `json:"id"`
	GroupID  int64        `json:"group_id"`
	UserID   int64        `json:"user_id"`
	Status   MemberStatus `json:"status"`
	Role     MemberRole   `json:"role"`
	JoinedAt time.Time    `json:"joined_at"`

	// Populated from JOIN
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Active reports whether the member currently belongs to the group
func (m *GroupMember) Active() bool {
	return m != nil && m.Status == MemberStatusJoined
}
