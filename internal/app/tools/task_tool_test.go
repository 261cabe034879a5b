package tools_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/adapters/storage/memory"
	"github.com/taskdeck/taskdeck/internal/app/tools"
	"github.com/taskdeck/taskdeck/internal/domain"
)

func newRegistry(t *testing.T) (*tools.Registry, domain.TaskStore) {
	t.Helper()
	store := memory.NewTaskStore()
	return tools.NewTaskRegistry(store), store
}

func call(t *testing.T, reg *tools.Registry, name, user string, input map[string]any) map[string]any {
	t.Helper()
	tool := reg.Lookup(name)
	require.NotNil(t, tool, "tool %s not registered", name)

	out, err := tool.Call(context.Background(), tools.ToolContext{UserID: user}, input)
	require.NoError(t, err)
	return out
}

func TestCreateThenList(t *testing.T) {
	reg, _ := newRegistry(t)

	out := call(t, reg, "create_task", "u1", map[string]any{"title": "Buy groceries"})
	assert.Equal(t, tools.StatusOK, out[tools.KeyStatus])
	assert.Equal(t, "Created task #1: Buy groceries", out[tools.KeyText])

	out = call(t, reg, "list_tasks", "u1", map[string]any{"status": "all"})
	assert.Equal(t, "[ ] #1: Buy groceries", out[tools.KeyText])
	assert.Equal(t, 1, out["count"])
}

func TestCompleteMovesBetweenFilters(t *testing.T) {
	reg, _ := newRegistry(t)

	call(t, reg, "create_task", "u1", map[string]any{"title": "Buy groceries"})

	out := call(t, reg, "complete_task", "u1", map[string]any{"task_id": float64(1)})
	assert.Equal(t, "Completed task #1: Buy groceries", out[tools.KeyText])

	out = call(t, reg, "list_tasks", "u1", map[string]any{"status": "pending"})
	assert.Equal(t, "No tasks found.", out[tools.KeyText])

	out = call(t, reg, "list_tasks", "u1", map[string]any{"status": "completed"})
	assert.Equal(t, "[x] #1: Buy groceries", out[tools.KeyText])
}

func TestForeignOwnerLooksLikeMissingTask(t *testing.T) {
	reg, store := newRegistry(t)

	call(t, reg, "create_task", "u1", map[string]any{"title": "Buy groceries"})

	out := call(t, reg, "complete_task", "u2", map[string]any{"task_id": float64(1)})
	assert.Equal(t, tools.StatusNotFound, out[tools.KeyStatus])
	assert.Equal(t, "Task #1 not found.", out[tools.KeyText])

	// u1's task must be untouched.
	tasks, err := store.ListTasks("u1", domain.FilterPending)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.False(t, tasks[0].Completed)
}

func TestDeleteRemovesFromListing(t *testing.T) {
	reg, _ := newRegistry(t)

	call(t, reg, "create_task", "u1", map[string]any{"title": "Buy groceries"})

	out := call(t, reg, "delete_task", "u1", map[string]any{"task_id": float64(1)})
	assert.Equal(t, "Deleted task #1: Buy groceries", out[tools.KeyText])

	out = call(t, reg, "list_tasks", "u1", map[string]any{})
	assert.Equal(t, "No tasks found.", out[tools.KeyText])
}

func TestUpdateTitleKeepsDescription(t *testing.T) {
	reg, store := newRegistry(t)

	call(t, reg, "create_task", "u1", map[string]any{
		"title":       "Buy groceries",
		"description": "milk and bread",
	})

	out := call(t, reg, "update_task", "u1", map[string]any{
		"task_id": float64(1),
		"title":   "Buy food",
	})
	assert.Equal(t, "Updated task #1: Buy food", out[tools.KeyText])

	tasks, err := store.ListTasks("u1", domain.FilterAll)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy food", tasks[0].Title)
	assert.Equal(t, "milk and bread", tasks[0].Description)
}

func TestInvalidInputs(t *testing.T) {
	reg, _ := newRegistry(t)

	out := call(t, reg, "create_task", "u1", map[string]any{"title": "   "})
	assert.Equal(t, tools.StatusError, out[tools.KeyStatus])

	out = call(t, reg, "complete_task", "u1", map[string]any{})
	assert.Equal(t, tools.StatusError, out[tools.KeyStatus])

	out = call(t, reg, "delete_task", "u1", map[string]any{"task_id": "one"})
	assert.Equal(t, tools.StatusError, out[tools.KeyStatus])
}
