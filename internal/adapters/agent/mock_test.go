package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/adapters/storage/memory"
	"github.com/taskdeck/taskdeck/internal/app/tools"
	"github.com/taskdeck/taskdeck/internal/domain"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		msg  string
		tool string
	}{
		{"add task Buy groceries", "create_task"},
		{"Create task walk the dog", "create_task"},
		{"list tasks", "list_tasks"},
		{"List pending tasks", "list_tasks"},
		{"complete task 3", "complete_task"},
		{"delete task 12", "delete_task"},
		{"complete task soon", ""},
		{"how are you?", ""},
	}

	for _, tc := range cases {
		name, _ := parseCommand(tc.msg)
		assert.Equal(t, tc.tool, name, "msg=%q", tc.msg)
	}
}

func TestMockAgentRunsTools(t *testing.T) {
	registry := tools.NewTaskRegistry(memory.NewTaskStore())
	mock := NewMockAgent(registry)

	convCtx := domain.ConversationContext{ConversationID: 1, UserID: "u1"}

	reply, err := mock.GenerateReply(context.Background(), "add task Buy groceries", convCtx)
	require.NoError(t, err)
	assert.Equal(t, "Created task #1: Buy groceries", reply.Text)
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, "create_task", reply.ToolCalls[0].Name)

	reply, err = mock.GenerateReply(context.Background(), "what's the weather?", convCtx)
	require.NoError(t, err)
	assert.Empty(t, reply.ToolCalls)
	assert.Contains(t, reply.Text, "what's the weather?")
}
