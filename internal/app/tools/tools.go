package tools

import (
	"context"
)

// ToolContext brings metadata of the call to the tool. The owner
// identity always comes from here, never from agent-supplied input.
type ToolContext struct {
	UserID         string
	ConversationID int64
	RequestID      string
}

// Param describes one input parameter of a tool.
type Param struct {
	Name        string
	Type        string // "string" or "integer"
	Description string
	Required    bool
}

// Definition is the agent-facing description of a tool.
type Definition struct {
	Name        string
	Description string
	Params      []Param
}

// Tool represents a tool agents can invoke.
// input/output is a generic map to maintain flexibility.
type Tool interface {
	Name() string
	Definition() Definition
	Call(ctx context.Context, tctx ToolContext, input map[string]any) (map[string]any, error)
}

// Registry holds the tools exposed to the agent, in a stable order.
type Registry struct {
	tools  []Tool
	byName map[string]Tool
}

func NewRegistry(ts ...Tool) *Registry {
	r := &Registry{byName: make(map[string]Tool, len(ts))}
	for _, t := range ts {
		r.tools = append(r.tools, t)
		r.byName[t.Name()] = t
	}
	return r
}

// All returns the registered tools in registration order.
func (r *Registry) All() []Tool {
	return r.tools
}

// Lookup returns the tool with the given name, or nil.
func (r *Registry) Lookup(name string) Tool {
	if r == nil {
		return nil
	}
	return r.byName[name]
}

// Result map keys shared by all tools. "text" is what the agent
// re-embeds into its reply; "status" keeps results machine-checkable.
const (
	KeyStatus = "status"
	KeyText   = "text"
	KeyTaskID = "task_id"

	StatusOK       = "ok"
	StatusNotFound = "not_found"
	StatusError    = "error"
)
