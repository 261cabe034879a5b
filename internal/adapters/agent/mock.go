package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/taskdeck/taskdeck/internal/app/tools"
	"github.com/taskdeck/taskdeck/internal/domain"
)

// MockAgent is a deterministic AgentClient for local mode and tests.
// It understands a handful of literal commands and routes them through
// the real tool registry; anything else gets an echo reply.
type MockAgent struct {
	registry *tools.Registry
}

func NewMockAgent(registry *tools.Registry) *MockAgent {
	return &MockAgent{registry: registry}
}

func (m *MockAgent) GenerateReply(
	ctx context.Context,
	userMessage string,
	convCtx domain.ConversationContext,
) (*domain.AgentReply, error) {

	name, input := parseCommand(userMessage)
	if name == "" || m.registry == nil {
		return &domain.AgentReply{
			Text: fmt.Sprintf("You said %q. Tell me what to do with your tasks.", userMessage),
		}, nil
	}

	tool := m.registry.Lookup(name)
	if tool == nil {
		return &domain.AgentReply{
			Text: fmt.Sprintf("You said %q. Tell me what to do with your tasks.", userMessage),
		}, nil
	}

	tctx := tools.ToolContext{
		UserID:         string(convCtx.UserID),
		ConversationID: int64(convCtx.ConversationID),
	}

	out, err := tool.Call(ctx, tctx, input)
	if err != nil {
		return nil, err
	}

	text, _ := out[tools.KeyText].(string)
	return &domain.AgentReply{
		Text:      text,
		ToolCalls: []domain.ToolCall{{Name: name, Result: text}},
	}, nil
}

// parseCommand maps literal command prefixes to a tool invocation.
func parseCommand(msg string) (string, map[string]any) {
	trimmed := strings.TrimSpace(msg)
	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(lower, "add task "):
		return "create_task", map[string]any{"title": strings.TrimSpace(trimmed[len("add task "):])}
	case strings.HasPrefix(lower, "create task "):
		return "create_task", map[string]any{"title": strings.TrimSpace(trimmed[len("create task "):])}
	case lower == "list tasks":
		return "list_tasks", map[string]any{}
	case lower == "list pending tasks":
		return "list_tasks", map[string]any{"status": "pending"}
	case lower == "list completed tasks":
		return "list_tasks", map[string]any{"status": "completed"}
	case strings.HasPrefix(lower, "complete task "):
		if id, ok := parseID(trimmed[len("complete task "):]); ok {
			return "complete_task", map[string]any{"task_id": id}
		}
	case strings.HasPrefix(lower, "delete task "):
		if id, ok := parseID(trimmed[len("delete task "):]); ok {
			return "delete_task", map[string]any{"task_id": id}
		}
	}
	return "", nil
}

func parseID(s string) (float64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	// float64 to match what a JSON-decoding agent would send.
	return float64(n), true
}
