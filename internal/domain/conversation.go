package domain

// Message represents one turn in a conversation (user or assistant).
// Messages are append-only: once written they are never mutated.
type Message struct {
	ID             MessageID
	ConversationID ConversationID

	// UserID is denormalized from the conversation so history queries
	// can filter by owner without a join.
	UserID UserID

	Role      Role
	Content   string
	CreatedAt Timestamp
}

// Conversation groups the messages of a single user. It is created
// lazily on the first chat request that carries no conversation id.
type Conversation struct {
	ID        ConversationID
	UserID    UserID
	CreatedAt Timestamp
	UpdatedAt Timestamp
}
