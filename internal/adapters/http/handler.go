package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/taskdeck/taskdeck/internal/app/chat"
	"github.com/taskdeck/taskdeck/internal/domain"
)

type Server struct {
	svc      *chat.Service
	verifier domain.TokenVerifier
}

func NewServer(svc *chat.Service, verifier domain.TokenVerifier) http.Handler {
	s := &Server{svc: svc, verifier: verifier}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)

	// /api/{user_id}/chat                            → POST: one chat turn
	// /api/{user_id}/conversations                   → GET: list
	// /api/{user_id}/conversations/{id}              → DELETE
	// /api/{user_id}/conversations/{id}/messages     → GET: full history
	mux.HandleFunc("/api/", s.handleAPI)

	return chainMiddlewares(mux, withCORS, withLogging, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type chatRequest struct {
	ConversationID int64  `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

type chatResponse struct {
	ConversationID int64              `json:"conversation_id"`
	Response       string             `json:"response"`
	ToolCalls      []toolCallResponse `json:"tool_calls"`
}

type toolCallResponse struct {
	Name   string `json:"name"`
	Result string `json:"result"`
}

type conversationResponse struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type listConversationsResponse struct {
	Conversations []conversationResponse `json:"conversations"`
}

type messageResponse struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type conversationMessagesResponse struct {
	Conversation conversationResponse `json:"conversation"`
	Messages     []messageResponse    `json:"messages"`
}

// ─────────────────────────────────────────────
// Basic routing
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}

	pathUser := domain.UserID(parts[0])

	subject, ok := s.authenticate(w, r, pathUser)
	if !ok {
		return
	}

	switch {
	case len(parts) == 2 && parts[1] == "chat":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleChat(w, r, subject)

	case parts[1] == "conversations":
		s.handleConversations(w, r, subject, parts[2:])

	default:
		http.NotFound(w, r)
	}
}

// authenticate verifies the bearer token and checks its subject
// against the user in the path. 401 for a bad token, 403 when the
// token belongs to someone else.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request, pathUser domain.UserID) (domain.UserID, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		writeError(w, http.StatusUnauthorized, "missing or malformed Authorization header")
		return "", false
	}

	subject, err := s.verifier.VerifyToken(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return "", false
	}

	if subject != pathUser {
		writeError(w, http.StatusForbidden, "token subject does not match user")
		return "", false
	}

	return subject, true
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request, owner domain.UserID, rest []string) {
	switch {
	case len(rest) == 0:
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleListConversations(w, r, owner)

	case len(rest) == 1:
		id, ok := parseConversationID(rest[0])
		if !ok {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		s.handleDeleteConversation(w, r, owner, id)

	case len(rest) == 2 && rest[1] == "messages":
		id, ok := parseConversationID(rest[0])
		if !ok {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleConversationMessages(w, r, owner, id)

	default:
		http.NotFound(w, r)
	}
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, owner domain.UserID) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	out, err := s.svc.SendMessage(r.Context(), chat.SendMessageInput{
		UserID:         owner,
		ConversationID: domain.ConversationID(req.ConversationID),
		Message:        req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyMessage):
			badRequest(w, "message is required")
		case errors.Is(err, domain.ErrMessageTooLong):
			badRequest(w, "message is too long")
		case errors.Is(err, domain.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, chat.ErrAgentFailure):
			writeError(w, http.StatusInternalServerError, "the assistant could not answer right now, please try again")
		default:
			internalError(w, err)
		}
		return
	}

	// tool_calls must be a JSON array even when empty.
	calls := make([]toolCallResponse, 0, len(out.ToolCalls))
	for _, tc := range out.ToolCalls {
		calls = append(calls, toolCallResponse{Name: tc.Name, Result: tc.Result})
	}

	writeJSON(w, http.StatusOK, chatResponse{
		ConversationID: int64(out.ConversationID),
		Response:       out.Reply,
		ToolCalls:      calls,
	})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request, owner domain.UserID) {
	convs, err := s.svc.ListConversations(r.Context(), owner)
	if err != nil {
		internalError(w, err)
		return
	}

	out := make([]conversationResponse, 0, len(convs))
	for _, c := range convs {
		out = append(out, toConversationResponse(c))
	}
	writeJSON(w, http.StatusOK, listConversationsResponse{Conversations: out})
}

func (s *Server) handleConversationMessages(w http.ResponseWriter, r *http.Request, owner domain.UserID, id domain.ConversationID) {
	conv, msgs, err := s.svc.ConversationMessages(r.Context(), owner, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}

	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, conversationMessagesResponse{
		Conversation: toConversationResponse(conv),
		Messages:     out,
	})
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request, owner domain.UserID, id domain.ConversationID) {
	if err := s.svc.DeleteConversation(r.Context(), owner, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─────────────────────────────────────────────
// Conversion helpers
// ─────────────────────────────────────────────

func toConversationResponse(c *domain.Conversation) conversationResponse {
	return conversationResponse{
		ID:        int64(c.ID),
		UserID:    string(c.UserID),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:             int64(m.ID),
		ConversationID: int64(m.ConversationID),
		Role:           string(m.Role),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

func parseConversationID(s string) (domain.ConversationID, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return domain.ConversationID(id), true
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}

func internalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
