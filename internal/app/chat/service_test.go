package chat_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/adapters/storage/memory"
	"github.com/taskdeck/taskdeck/internal/app/chat"
	"github.com/taskdeck/taskdeck/internal/domain"
)

// stubAgent is a deterministic AgentClient for the orchestration tests.
type stubAgent struct {
	reply string
	err   error

	// lastHistory captures what the agent was handed.
	lastHistory []*domain.Message
}

func (a *stubAgent) GenerateReply(
	ctx context.Context,
	userMessage string,
	convCtx domain.ConversationContext,
) (*domain.AgentReply, error) {
	a.lastHistory = convCtx.History
	if a.err != nil {
		return nil, a.err
	}
	return &domain.AgentReply{Text: a.reply}, nil
}

func newService(agent domain.AgentClient) (*chat.Service, *memory.ConversationStore, *memory.MessageStore) {
	convStore := memory.NewConversationStore()
	msgStore := memory.NewMessageStore()
	convStore.SetMessageStore(msgStore)
	return chat.NewService(agent, convStore, msgStore, 0), convStore, msgStore
}

func TestSendMessageCreatesConversation(t *testing.T) {
	svc, _, msgStore := newService(&stubAgent{reply: "hi there"})

	out, err := svc.SendMessage(context.Background(), chat.SendMessageInput{
		UserID:  "u1",
		Message: "hello",
	})
	require.NoError(t, err)
	assert.NotZero(t, out.ConversationID)
	assert.Equal(t, "hi there", out.Reply)

	history, err := msgStore.LoadHistory(out.ConversationID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)
	assert.Equal(t, "hi there", history[1].Content)
}

func TestSendMessageReusesConversation(t *testing.T) {
	agent := &stubAgent{reply: "ok"}
	svc, _, _ := newService(agent)
	ctx := context.Background()

	first, err := svc.SendMessage(ctx, chat.SendMessageInput{UserID: "u1", Message: "hello"})
	require.NoError(t, err)

	second, err := svc.SendMessage(ctx, chat.SendMessageInput{
		UserID:         "u1",
		ConversationID: first.ConversationID,
		Message:        "hello again",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	// The agent saw the whole transcript, in order, ending with the
	// new user message.
	require.Len(t, agent.lastHistory, 3)
	assert.Equal(t, "hello", agent.lastHistory[0].Content)
	assert.Equal(t, "ok", agent.lastHistory[1].Content)
	assert.Equal(t, "hello again", agent.lastHistory[2].Content)
}

func TestEachNewChatGetsOwnConversation(t *testing.T) {
	svc, _, _ := newService(&stubAgent{reply: "ok"})
	ctx := context.Background()

	a, err := svc.SendMessage(ctx, chat.SendMessageInput{UserID: "u1", Message: "one"})
	require.NoError(t, err)
	b, err := svc.SendMessage(ctx, chat.SendMessageInput{UserID: "u1", Message: "two"})
	require.NoError(t, err)

	assert.NotEqual(t, a.ConversationID, b.ConversationID)
}

func TestForeignConversationIsNotFound(t *testing.T) {
	svc, _, msgStore := newService(&stubAgent{reply: "ok"})
	ctx := context.Background()

	out, err := svc.SendMessage(ctx, chat.SendMessageInput{UserID: "u1", Message: "mine"})
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, chat.SendMessageInput{
		UserID:         "u2",
		ConversationID: out.ConversationID,
		Message:        "yours?",
	})
	require.ErrorIs(t, err, domain.ErrNotFound)

	// u1's history must not have picked up u2's attempt.
	history, err := msgStore.LoadHistory(out.ConversationID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestValidationRejectsBeforeAnyWrite(t *testing.T) {
	svc, convStore, _ := newService(&stubAgent{reply: "ok"})
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, chat.SendMessageInput{UserID: "u1", Message: "   "})
	require.ErrorIs(t, err, domain.ErrEmptyMessage)

	_, err = svc.SendMessage(ctx, chat.SendMessageInput{
		UserID:  "u1",
		Message: strings.Repeat("a", chat.DefaultMaxMessageChars+1),
	})
	require.ErrorIs(t, err, domain.ErrMessageTooLong)

	convs, err := convStore.ListConversationsByUser("u1")
	require.NoError(t, err)
	assert.Empty(t, convs, "rejected messages must not create conversations")
}

func TestAgentFailureLeavesUserMessagePersisted(t *testing.T) {
	svc, convStore, msgStore := newService(&stubAgent{err: errors.New("model exploded")})
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, chat.SendMessageInput{UserID: "u1", Message: "hello"})
	require.ErrorIs(t, err, chat.ErrAgentFailure)

	// The user turn survives as an unanswered message; the next turn's
	// history load simply shows it.
	convs, err := convStore.ListConversationsByUser("u1")
	require.NoError(t, err)
	require.Len(t, convs, 1)

	history, err := msgStore.LoadHistory(convs[0].ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.RoleUser, history[0].Role)
}

func TestDeleteConversationCascades(t *testing.T) {
	svc, _, msgStore := newService(&stubAgent{reply: "ok"})
	ctx := context.Background()

	out, err := svc.SendMessage(ctx, chat.SendMessageInput{UserID: "u1", Message: "hello"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteConversation(ctx, "u1", out.ConversationID))

	_, _, err = svc.ConversationMessages(ctx, "u1", out.ConversationID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	history, err := msgStore.LoadHistory(out.ConversationID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestDeleteForeignConversationIsNotFound(t *testing.T) {
	svc, _, _ := newService(&stubAgent{reply: "ok"})
	ctx := context.Background()

	out, err := svc.SendMessage(ctx, chat.SendMessageInput{UserID: "u1", Message: "hello"})
	require.NoError(t, err)

	err = svc.DeleteConversation(ctx, "u2", out.ConversationID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
