package memory

import (
	"sync"

	"github.com/taskdeck/taskdeck/internal/domain"
)

type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[domain.ConversationID]*domain.Conversation
	nextID        int64

	// messages lets DeleteConversation cascade when the stores are
	// wired together via SetMessageStore.
	messages *MessageStore
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		conversations: make(map[domain.ConversationID]*domain.Conversation),
	}
}

// SetMessageStore wires the message store for cascade deletes.
func (s *ConversationStore) SetMessageStore(ms *MessageStore) {
	s.messages = ms
}

func (s *ConversationStore) CreateConversation(conv *domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	conv.ID = domain.ConversationID(s.nextID)
	s.conversations[conv.ID] = conv
	return nil
}

func (s *ConversationStore) GetConversation(owner domain.UserID, id domain.ConversationID) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok || conv.UserID != owner {
		return nil, domain.ErrNotFound
	}
	return conv, nil
}

func (s *ConversationStore) TouchConversation(owner domain.UserID, id domain.ConversationID, at domain.Timestamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok || conv.UserID != owner {
		return domain.ErrNotFound
	}
	conv.UpdatedAt = at
	return nil
}

func (s *ConversationStore) ListConversationsByUser(owner domain.UserID) ([]*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Conversation
	// Iterate in id order so listings are stable.
	for id := int64(1); id <= s.nextID; id++ {
		if conv, ok := s.conversations[domain.ConversationID(id)]; ok && conv.UserID == owner {
			result = append(result, conv)
		}
	}
	return result, nil
}

func (s *ConversationStore) DeleteConversation(owner domain.UserID, id domain.ConversationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok || conv.UserID != owner {
		return domain.ErrNotFound
	}
	delete(s.conversations, id)

	if s.messages != nil {
		s.messages.dropConversation(id)
	}
	return nil
}
