package domain

import "context"

// AgentClient defines how the core application talks to the external
// agent that produces replies and decides which task tools to invoke.
type AgentClient interface {
	GenerateReply(ctx context.Context, userMessage string, convCtx ConversationContext) (*AgentReply, error)
}

// ConversationContext gives the agent the ordered history of the
// conversation plus the identity everything must stay scoped to.
type ConversationContext struct {
	ConversationID ConversationID
	UserID         UserID
	History        []*Message // oldest first
}

// AgentReply is the final text of one turn together with the tool
// calls the agent executed while producing it.
type AgentReply struct {
	Text      string
	ToolCalls []ToolCall
}

// ToolCall records one executed tool invocation.
type ToolCall struct {
	Name   string
	Result string
}

// ConversationStore defines conversation persistence. Every lookup is
// scoped by owner: a conversation belonging to a different user is
// indistinguishable from a missing one (ErrNotFound).
type ConversationStore interface {
	CreateConversation(conv *Conversation) error
	GetConversation(owner UserID, id ConversationID) (*Conversation, error)
	TouchConversation(owner UserID, id ConversationID, at Timestamp) error
	ListConversationsByUser(owner UserID) ([]*Conversation, error)
	DeleteConversation(owner UserID, id ConversationID) error
}

// MessageStore defines message persistence. Messages are append-only.
type MessageStore interface {
	AppendMessage(msg *Message) error
	LoadHistory(conversationID ConversationID) ([]*Message, error)
}

// TaskStore defines owner-scoped task persistence. Mutating operations
// return the task as it stands after the operation so callers can
// format confirmations without a second read.
type TaskStore interface {
	CreateTask(task *Task) error
	ListTasks(owner UserID, filter TaskFilter) ([]*Task, error)
	CompleteTask(owner UserID, id TaskID) (*Task, error)
	DeleteTask(owner UserID, id TaskID) (*Task, error)
	UpdateTask(owner UserID, id TaskID, upd TaskUpdate) (*Task, error)
}

// TokenVerifier resolves a bearer token to the identity it belongs to.
// The actual identity provider is external; implementations here only
// adapt its result.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (UserID, error)
}
