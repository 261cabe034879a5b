package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/taskdeck/taskdeck/internal/domain"
)

// NewTaskRegistry builds the registry with the five task tools backed
// by the given store.
func NewTaskRegistry(store domain.TaskStore) *Registry {
	return NewRegistry(
		&CreateTaskTool{store: store},
		&ListTasksTool{store: store},
		&CompleteTaskTool{store: store},
		&DeleteTaskTool{store: store},
		&UpdateTaskTool{store: store},
	)
}

// ─────────────────────────────────────────────
// create_task
// ─────────────────────────────────────────────

type CreateTaskTool struct {
	store domain.TaskStore
}

func (t *CreateTaskTool) Name() string { return "create_task" }

func (t *CreateTaskTool) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Create a new task for the user.",
		Params: []Param{
			{Name: "title", Type: "string", Description: "Short title of the task.", Required: true},
			{Name: "description", Type: "string", Description: "Optional longer description."},
		},
	}
}

func (t *CreateTaskTool) Call(ctx context.Context, tctx ToolContext, input map[string]any) (map[string]any, error) {
	if tctx.UserID == "" {
		return nil, fmt.Errorf("create_task: missing UserID in ToolContext")
	}

	title := strings.TrimSpace(getString(input, "title"))
	if title == "" {
		return errResult("A task needs a title."), nil
	}

	task := &domain.Task{
		UserID:      domain.UserID(tctx.UserID),
		Title:       title,
		Description: getString(input, "description"),
	}
	if err := t.store.CreateTask(task); err != nil {
		return nil, fmt.Errorf("create_task: %w", err)
	}

	return okResult(fmt.Sprintf("Created task #%d: %s", task.ID, task.Title), task.ID), nil
}

// ─────────────────────────────────────────────
// list_tasks
// ─────────────────────────────────────────────

type ListTasksTool struct {
	store domain.TaskStore
}

func (t *ListTasksTool) Name() string { return "list_tasks" }

func (t *ListTasksTool) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "List the user's tasks, optionally filtered by status.",
		Params: []Param{
			{Name: "status", Type: "string", Description: "One of: all, pending, completed. Defaults to all."},
		},
	}
}

func (t *ListTasksTool) Call(ctx context.Context, tctx ToolContext, input map[string]any) (map[string]any, error) {
	if tctx.UserID == "" {
		return nil, fmt.Errorf("list_tasks: missing UserID in ToolContext")
	}

	filter := domain.ParseTaskFilter(getString(input, "status"))

	tasks, err := t.store.ListTasks(domain.UserID(tctx.UserID), filter)
	if err != nil {
		return nil, fmt.Errorf("list_tasks: %w", err)
	}

	if len(tasks) == 0 {
		return map[string]any{
			KeyStatus: StatusOK,
			KeyText:   "No tasks found.",
			"count":   0,
		}, nil
	}

	lines := make([]string, 0, len(tasks))
	for _, task := range tasks {
		marker := "[ ]"
		if task.Completed {
			marker = "[x]"
		}
		lines = append(lines, fmt.Sprintf("%s #%d: %s", marker, task.ID, task.Title))
	}

	return map[string]any{
		KeyStatus: StatusOK,
		KeyText:   strings.Join(lines, "\n"),
		"count":   len(tasks),
	}, nil
}

// ─────────────────────────────────────────────
// complete_task
// ─────────────────────────────────────────────

type CompleteTaskTool struct {
	store domain.TaskStore
}

func (t *CompleteTaskTool) Name() string { return "complete_task" }

func (t *CompleteTaskTool) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Mark one of the user's tasks as completed.",
		Params: []Param{
			{Name: "task_id", Type: "integer", Description: "Identifier of the task.", Required: true},
		},
	}
}

func (t *CompleteTaskTool) Call(ctx context.Context, tctx ToolContext, input map[string]any) (map[string]any, error) {
	if tctx.UserID == "" {
		return nil, fmt.Errorf("complete_task: missing UserID in ToolContext")
	}

	id, ok := getTaskID(input)
	if !ok {
		return errResult("A task id is required."), nil
	}

	task, err := t.store.CompleteTask(domain.UserID(tctx.UserID), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return notFoundResult(id), nil
		}
		return nil, fmt.Errorf("complete_task: %w", err)
	}

	return okResult(fmt.Sprintf("Completed task #%d: %s", task.ID, task.Title), task.ID), nil
}

// ─────────────────────────────────────────────
// delete_task
// ─────────────────────────────────────────────

type DeleteTaskTool struct {
	store domain.TaskStore
}

func (t *DeleteTaskTool) Name() string { return "delete_task" }

func (t *DeleteTaskTool) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Delete one of the user's tasks.",
		Params: []Param{
			{Name: "task_id", Type: "integer", Description: "Identifier of the task.", Required: true},
		},
	}
}

func (t *DeleteTaskTool) Call(ctx context.Context, tctx ToolContext, input map[string]any) (map[string]any, error) {
	if tctx.UserID == "" {
		return nil, fmt.Errorf("delete_task: missing UserID in ToolContext")
	}

	id, ok := getTaskID(input)
	if !ok {
		return errResult("A task id is required."), nil
	}

	task, err := t.store.DeleteTask(domain.UserID(tctx.UserID), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return notFoundResult(id), nil
		}
		return nil, fmt.Errorf("delete_task: %w", err)
	}

	return okResult(fmt.Sprintf("Deleted task #%d: %s", task.ID, task.Title), task.ID), nil
}

// ─────────────────────────────────────────────
// update_task
// ─────────────────────────────────────────────

type UpdateTaskTool struct {
	store domain.TaskStore
}

func (t *UpdateTaskTool) Name() string { return "update_task" }

func (t *UpdateTaskTool) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Update the title and/or description of one of the user's tasks.",
		Params: []Param{
			{Name: "task_id", Type: "integer", Description: "Identifier of the task.", Required: true},
			{Name: "title", Type: "string", Description: "New title. Omit to keep the current one."},
			{Name: "description", Type: "string", Description: "New description. Omit to keep the current one."},
		},
	}
}

func (t *UpdateTaskTool) Call(ctx context.Context, tctx ToolContext, input map[string]any) (map[string]any, error) {
	if tctx.UserID == "" {
		return nil, fmt.Errorf("update_task: missing UserID in ToolContext")
	}

	id, ok := getTaskID(input)
	if !ok {
		return errResult("A task id is required."), nil
	}

	// Only fields actually present in the input are touched,
	// so an update with just a title leaves the description alone.
	var upd domain.TaskUpdate
	if v, ok := input["title"]; ok {
		if s, ok := v.(string); ok {
			upd.Title = &s
		}
	}
	if v, ok := input["description"]; ok {
		if s, ok := v.(string); ok {
			upd.Description = &s
		}
	}

	task, err := t.store.UpdateTask(domain.UserID(tctx.UserID), id, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return notFoundResult(id), nil
		}
		return nil, fmt.Errorf("update_task: %w", err)
	}

	return okResult(fmt.Sprintf("Updated task #%d: %s", task.ID, task.Title), task.ID), nil
}

// ─────────────────────────────────────────────
// internal helpers
// ─────────────────────────────────────────────

func okResult(text string, id domain.TaskID) map[string]any {
	return map[string]any{
		KeyStatus: StatusOK,
		KeyText:   text,
		KeyTaskID: int64(id),
	}
}

func notFoundResult(id domain.TaskID) map[string]any {
	return map[string]any{
		KeyStatus: StatusNotFound,
		KeyText:   fmt.Sprintf("Task #%d not found.", id),
	}
}

func errResult(text string) map[string]any {
	return map[string]any{
		KeyStatus: StatusError,
		KeyText:   text,
	}
}

func getString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// getTaskID accepts the numeric encodings agents actually send:
// JSON numbers decode to float64, some SDKs hand over int types.
func getTaskID(m map[string]any) (domain.TaskID, bool) {
	v, ok := m["task_id"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return domain.TaskID(int64(n)), true
	case int64:
		return domain.TaskID(n), true
	case int:
		return domain.TaskID(n), true
	default:
		return 0, false
	}
}
