package agent

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/taskdeck/taskdeck/internal/app/tools"
	"github.com/taskdeck/taskdeck/internal/domain"
	"github.com/taskdeck/taskdeck/internal/observability"
)

// maxToolRounds bounds the function-calling loop so a confused model
// cannot spin forever against the store.
const maxToolRounds = 4

// GenAIClient is the production AgentClient based on Vertex AI
// (Gemini) with function calling over the task tool registry.
type GenAIClient struct {
	client    *genai.Client
	modelName string
	registry  *tools.Registry
}

// NewGenAIClient creates an AgentClient backed by Vertex AI.
func NewGenAIClient(
	ctx context.Context,
	projectID, location, modelName string,
	registry *tools.Registry,
) (*GenAIClient, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("gcp project and location must be set for the genai agent")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &GenAIClient{
		client:    client,
		modelName: modelName,
		registry:  registry,
	}, nil
}

// GenerateReply implements domain.AgentClient. It runs the model with
// the tool declarations, executes whatever function calls come back,
// feeds the results into the next round, and returns the final text.
func (c *GenAIClient) GenerateReply(
	ctx context.Context,
	userMessage string,
	convCtx domain.ConversationContext,
) (*domain.AgentReply, error) {

	log := observability.LoggerFromContext(ctx).With(
		"conversation_id", int64(convCtx.ConversationID),
		"user_id", convCtx.UserID,
	)

	// History already ends with the current user message; the service
	// persists the user turn before calling the agent.
	var contents []*genai.Content
	for _, m := range convCtx.History {
		role := genai.RoleUser
		if m.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	if len(contents) == 0 {
		contents = append(contents, genai.NewContentFromText(userMessage, genai.RoleUser))
	}

	temp := float32(0.3)
	topP := float32(0.9)
	outputTokens := int32(2048)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   outputTokens,
		Tools:             c.toolDeclarations(),
	}

	tctx := tools.ToolContext{
		UserID:         string(convCtx.UserID),
		ConversationID: int64(convCtx.ConversationID),
	}

	var executed []domain.ToolCall

	for round := 0; round < maxToolRounds; round++ {
		start := time.Now()
		res, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, cfg)
		if err != nil {
			return nil, fmt.Errorf("genai generate content: %w", err)
		}
		log.Info("model round done",
			"round", round,
			"elapsed_ms", time.Since(start).Milliseconds())

		calls := res.FunctionCalls()
		if len(calls) == 0 {
			text := res.Text()
			if text == "" {
				return nil, fmt.Errorf("genai returned empty text")
			}
			return &domain.AgentReply{Text: text, ToolCalls: executed}, nil
		}

		// Keep the model's function-call turn in the transcript before
		// answering it.
		if len(res.Candidates) > 0 && res.Candidates[0].Content != nil {
			contents = append(contents, res.Candidates[0].Content)
		}

		var responseParts []*genai.Part
		for _, call := range calls {
			result, err := c.invokeTool(ctx, tctx, call.Name, call.Args)
			if err != nil {
				return nil, err
			}

			if text, ok := result[tools.KeyText].(string); ok {
				executed = append(executed, domain.ToolCall{Name: call.Name, Result: text})
			}
			responseParts = append(responseParts,
				genai.NewPartFromFunctionResponse(call.Name, result))
		}
		contents = append(contents,
			genai.NewContentFromParts(responseParts, genai.RoleUser))
	}

	return nil, fmt.Errorf("genai agent exceeded %d tool rounds", maxToolRounds)
}

func (c *GenAIClient) invokeTool(
	ctx context.Context,
	tctx tools.ToolContext,
	name string,
	args map[string]any,
) (map[string]any, error) {

	tool := c.registry.Lookup(name)
	if tool == nil {
		// Answer the model instead of failing the turn; it may recover.
		return map[string]any{
			tools.KeyStatus: tools.StatusError,
			tools.KeyText:   fmt.Sprintf("Unknown tool %q.", name),
		}, nil
	}

	out, err := tool.Call(ctx, tctx, args)
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}
	return out, nil
}

// toolDeclarations converts the registry into genai function
// declarations.
func (c *GenAIClient) toolDeclarations() []*genai.Tool {
	if c.registry == nil {
		return nil
	}

	var decls []*genai.FunctionDeclaration
	for _, t := range c.registry.All() {
		def := t.Definition()

		props := make(map[string]*genai.Schema, len(def.Params))
		var required []string
		for _, p := range def.Params {
			schemaType := genai.TypeString
			if p.Type == "integer" {
				schemaType = genai.TypeInteger
			}
			props[p.Name] = &genai.Schema{
				Type:        schemaType,
				Description: p.Description,
			}
			if p.Required {
				required = append(required, p.Name)
			}
		}

		decls = append(decls, &genai.FunctionDeclaration{
			Name:        def.Name,
			Description: def.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   required,
			},
		})
	}

	return []*genai.Tool{{FunctionDeclarations: decls}}
}
