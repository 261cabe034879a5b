package domain

import "time"

type UserID string

// Numeric identifiers are assigned by the store backend
// (AUTOINCREMENT column or counter document).
type ConversationID int64
type MessageID int64
type TaskID int64

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ValidRole reports whether r is one of the two enumerated roles.
func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleAssistant
}

type Timestamp = time.Time
