package memory

import (
	"sync"

	"github.com/taskdeck/taskdeck/internal/domain"
)

type MessageStore struct {
	mu       sync.RWMutex
	messages map[domain.ConversationID][]*domain.Message
	nextID   int64
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make(map[domain.ConversationID][]*domain.Message),
	}
}

func (s *MessageStore) AppendMessage(msg *domain.Message) error {
	if !domain.ValidRole(msg.Role) {
		return domain.ErrInvalidRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	msg.ID = domain.MessageID(s.nextID)
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], msg)
	return nil
}

// LoadHistory returns all messages of the conversation, oldest first.
// Append order and creation-timestamp order coincide here.
func (s *MessageStore) LoadHistory(conversationID domain.ConversationID) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[conversationID]
	out := make([]*domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MessageStore) dropConversation(id domain.ConversationID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.messages, id)
}
