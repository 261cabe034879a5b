package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/taskdeck/taskdeck/internal/domain"
	"github.com/taskdeck/taskdeck/internal/observability"
)

// ErrAgentFailure wraps any error coming back from the agent. The raw
// cause is logged, never shown to the caller.
var ErrAgentFailure = errors.New("agent failed")

const DefaultMaxMessageChars = 4000

// Service is the stateless orchestrator for one conversational turn:
// resolve the conversation, load history, persist the user turn, ask
// the agent, persist the assistant turn. It holds nothing between
// calls; every turn is rebuilt from the store.
type Service struct {
	agent     domain.AgentClient
	convStore domain.ConversationStore
	msgStore  domain.MessageStore

	maxMessageChars int
	now             func() time.Time
}

func NewService(
	agent domain.AgentClient,
	convStore domain.ConversationStore,
	msgStore domain.MessageStore,
	maxMessageChars int,
) *Service {
	if maxMessageChars <= 0 {
		maxMessageChars = DefaultMaxMessageChars
	}
	return &Service{
		agent:           agent,
		convStore:       convStore,
		msgStore:        msgStore,
		maxMessageChars: maxMessageChars,
		now:             time.Now,
	}
}

type SendMessageInput struct {
	UserID domain.UserID

	// ConversationID zero means "start a new conversation".
	ConversationID domain.ConversationID

	Message string
}

type SendMessageOutput struct {
	ConversationID   domain.ConversationID
	Reply            string
	ToolCalls        []domain.ToolCall
	UserMessage      *domain.Message
	AssistantMessage *domain.Message
}

// SendMessage runs one turn. Validation happens before any store
// write, and the user turn is persisted strictly before the agent is
// called, so a mid-turn crash leaves at worst an unanswered user
// message, never a reordered history.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, domain.ErrEmptyMessage
	}
	if utf8.RuneCountInString(in.Message) > s.maxMessageChars {
		return nil, domain.ErrMessageTooLong
	}

	conv, err := s.getOrCreateConversation(in.UserID, in.ConversationID)
	if err != nil {
		return nil, err
	}

	log := observability.LoggerFromContext(ctx).With(
		"conversation_id", int64(conv.ID),
		"user_id", in.UserID,
	)
	log.Info("processing chat turn")

	history, err := s.msgStore.LoadHistory(conv.ID)
	if err != nil {
		log.Error("failed to load history", "error", err)
		return nil, err
	}

	now := s.now()

	userMsg := &domain.Message{
		ConversationID: conv.ID,
		UserID:         in.UserID,
		Role:           domain.RoleUser,
		Content:        in.Message,
		CreatedAt:      now,
	}

	if err := s.msgStore.AppendMessage(userMsg); err != nil {
		log.Error("failed to append user message", "error", err)
		return nil, err
	}

	convCtx := domain.ConversationContext{
		ConversationID: conv.ID,
		UserID:         in.UserID,
		History:        append(history, userMsg),
	}

	reply, err := s.agent.GenerateReply(ctx, in.Message, convCtx)
	if err != nil {
		log.Error("agent failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrAgentFailure, err)
	}

	assistantMsg := &domain.Message{
		ConversationID: conv.ID,
		UserID:         in.UserID,
		Role:           domain.RoleAssistant,
		Content:        reply.Text,
		CreatedAt:      s.now(),
	}

	if err := s.msgStore.AppendMessage(assistantMsg); err != nil {
		log.Error("failed to append assistant message", "error", err)
		return nil, err
	}

	if err := s.convStore.TouchConversation(in.UserID, conv.ID, s.now()); err != nil {
		log.Error("failed to touch conversation", "error", err)
		return nil, err
	}

	log.Info("chat turn completed", "tool_calls", len(reply.ToolCalls))

	return &SendMessageOutput{
		ConversationID:   conv.ID,
		Reply:            reply.Text,
		ToolCalls:        reply.ToolCalls,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}, nil
}

// getOrCreateConversation returns the conversation with the given id
// if it exists and belongs to owner. A zero id creates a fresh one. A
// supplied id that is unknown or owned by someone else is a hard
// not-found, never a silent fallback to a new conversation.
func (s *Service) getOrCreateConversation(owner domain.UserID, id domain.ConversationID) (*domain.Conversation, error) {
	if id != 0 {
		return s.convStore.GetConversation(owner, id)
	}

	now := s.now()
	conv := &domain.Conversation{
		UserID:    owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.convStore.CreateConversation(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// ListConversations returns the owner's conversations.
func (s *Service) ListConversations(ctx context.Context, owner domain.UserID) ([]*domain.Conversation, error) {
	return s.convStore.ListConversationsByUser(owner)
}

// ConversationMessages returns the full ordered history of one of the
// owner's conversations.
func (s *Service) ConversationMessages(
	ctx context.Context,
	owner domain.UserID,
	id domain.ConversationID,
) (*domain.Conversation, []*domain.Message, error) {

	conv, err := s.convStore.GetConversation(owner, id)
	if err != nil {
		return nil, nil, err
	}

	msgs, err := s.msgStore.LoadHistory(conv.ID)
	if err != nil {
		return nil, nil, err
	}
	return conv, msgs, nil
}

// DeleteConversation removes one of the owner's conversations and its
// messages.
func (s *Service) DeleteConversation(ctx context.Context, owner domain.UserID, id domain.ConversationID) error {
	log := observability.LoggerFromContext(ctx).With(
		"conversation_id", int64(id),
		"user_id", owner,
	)

	if err := s.convStore.DeleteConversation(owner, id); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error("failed to delete conversation", "error", err)
		}
		return err
	}

	log.Info("conversation deleted")
	return nil
}
