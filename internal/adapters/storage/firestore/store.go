package firestore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/taskdeck/taskdeck/internal/domain"
)

// Store implements the conversation, message and task stores on
// Firestore. Numeric identifiers come from a transactional counters
// document so the integer-ID contract holds on a document database.
type Store struct {
	client *firestore.Client
	now    func() time.Time
}

// NewStore creates a Firestore store for the given project.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client, now: time.Now}, nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) conversationsCol() *firestore.CollectionRef {
	return s.client.Collection("conversations")
}

func (s *Store) conversationDoc(id domain.ConversationID) *firestore.DocumentRef {
	return s.conversationsCol().Doc(strconv.FormatInt(int64(id), 10))
}

func (s *Store) messagesCol(id domain.ConversationID) *firestore.CollectionRef {
	return s.conversationDoc(id).Collection("messages")
}

func (s *Store) tasksCol() *firestore.CollectionRef {
	return s.client.Collection("tasks")
}

func (s *Store) taskDoc(id domain.TaskID) *firestore.DocumentRef {
	return s.tasksCol().Doc(strconv.FormatInt(int64(id), 10))
}

func (s *Store) counterDoc(name string) *firestore.DocumentRef {
	return s.client.Collection("counters").Doc(name)
}

// nextID bumps the named counter inside a transaction and returns the
// allocated value.
func (s *Store) nextID(ctx context.Context, name string) (int64, error) {
	var allocated int64

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := s.counterDoc(name)

		snap, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		var next int64 = 1
		if snap != nil && snap.Exists() {
			v, err := snap.DataAt("next")
			if err != nil {
				return err
			}
			if n, ok := v.(int64); ok {
				next = n
			}
		}

		allocated = next
		return tx.Set(ref, map[string]any{"next": next + 1})
	})
	if err != nil {
		return 0, fmt.Errorf("firestore nextID(%s): %w", name, err)
	}
	return allocated, nil
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type conversationDoc struct {
	UserID    string    `firestore:"user_id"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

type messageDoc struct {
	ConversationID int64     `firestore:"conversation_id"`
	UserID         string    `firestore:"user_id"`
	Role           string    `firestore:"role"`
	Content        string    `firestore:"content"`
	CreatedAt      time.Time `firestore:"created_at"`
}

type taskDoc struct {
	UserID      string    `firestore:"user_id"`
	Title       string    `firestore:"title"`
	Description string    `firestore:"description"`
	Completed   bool      `firestore:"completed"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

// ─────────────────────────────────────────
// ConversationStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateConversation(conv *domain.Conversation) error {
	ctx := context.Background()

	id, err := s.nextID(ctx, "conversations")
	if err != nil {
		return err
	}
	conv.ID = domain.ConversationID(id)

	doc := conversationDoc{
		UserID:    string(conv.UserID),
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
	if _, err := s.conversationDoc(conv.ID).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore CreateConversation: %w", err)
	}
	return nil
}

func (s *Store) GetConversation(owner domain.UserID, id domain.ConversationID) (*domain.Conversation, error) {
	ctx := context.Background()

	snap, err := s.conversationDoc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore GetConversation: %w", err)
	}

	var doc conversationDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode conversationDoc: %w", err)
	}
	if doc.UserID != string(owner) {
		// Someone else's conversation looks exactly like no conversation.
		return nil, domain.ErrNotFound
	}

	return &domain.Conversation{
		ID:        id,
		UserID:    owner,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (s *Store) TouchConversation(owner domain.UserID, id domain.ConversationID, at domain.Timestamp) error {
	if _, err := s.GetConversation(owner, id); err != nil {
		return err
	}

	ctx := context.Background()
	_, err := s.conversationDoc(id).Update(ctx, []firestore.Update{
		{Path: "updated_at", Value: at},
	})
	if err != nil {
		return fmt.Errorf("firestore TouchConversation: %w", err)
	}
	return nil
}

func (s *Store) ListConversationsByUser(owner domain.UserID) ([]*domain.Conversation, error) {
	ctx := context.Background()

	iter := s.conversationsCol().
		Where("user_id", "==", string(owner)).
		OrderBy("created_at", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var out []*domain.Conversation
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListConversationsByUser: %w", err)
		}

		var doc conversationDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode conversationDoc: %w", err)
		}

		id, err := strconv.ParseInt(snap.Ref.ID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad conversation doc id %q: %w", snap.Ref.ID, err)
		}

		out = append(out, &domain.Conversation{
			ID:        domain.ConversationID(id),
			UserID:    owner,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		})
	}
	return out, nil
}

func (s *Store) DeleteConversation(owner domain.UserID, id domain.ConversationID) error {
	if _, err := s.GetConversation(owner, id); err != nil {
		return err
	}

	ctx := context.Background()

	// Firestore does not cascade: drop the messages subcollection first.
	iter := s.messagesCol(id).Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return fmt.Errorf("firestore DeleteConversation messages: %w", err)
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("firestore delete message: %w", err)
		}
	}

	if _, err := s.conversationDoc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore DeleteConversation: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessage(msg *domain.Message) error {
	if !domain.ValidRole(msg.Role) {
		return domain.ErrInvalidRole
	}

	ctx := context.Background()

	id, err := s.nextID(ctx, "messages")
	if err != nil {
		return err
	}
	msg.ID = domain.MessageID(id)

	doc := messageDoc{
		ConversationID: int64(msg.ConversationID),
		UserID:         string(msg.UserID),
		Role:           string(msg.Role),
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}

	ref := s.messagesCol(msg.ConversationID).Doc(strconv.FormatInt(id, 10))
	if _, err := ref.Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore AppendMessage: %w", err)
	}
	return nil
}

func (s *Store) LoadHistory(conversationID domain.ConversationID) ([]*domain.Message, error) {
	ctx := context.Background()

	iter := s.messagesCol(conversationID).OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []*domain.Message
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore LoadHistory: %w", err)
		}

		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode messageDoc: %w", err)
		}

		id, err := strconv.ParseInt(snap.Ref.ID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad message doc id %q: %w", snap.Ref.ID, err)
		}

		out = append(out, &domain.Message{
			ID:             domain.MessageID(id),
			ConversationID: conversationID,
			UserID:         domain.UserID(doc.UserID),
			Role:           domain.Role(doc.Role),
			Content:        doc.Content,
			CreatedAt:      doc.CreatedAt,
		})
	}
	return out, nil
}

// ─────────────────────────────────────────
// TaskStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateTask(task *domain.Task) error {
	if task.Title == "" {
		return domain.ErrEmptyTitle
	}

	ctx := context.Background()

	id, err := s.nextID(ctx, "tasks")
	if err != nil {
		return err
	}
	task.ID = domain.TaskID(id)

	now := s.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	doc := taskDoc{
		UserID:      string(task.UserID),
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if _, err := s.taskDoc(task.ID).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore CreateTask: %w", err)
	}
	return nil
}

func (s *Store) ListTasks(owner domain.UserID, filter domain.TaskFilter) ([]*domain.Task, error) {
	ctx := context.Background()

	q := s.tasksCol().Where("user_id", "==", string(owner))
	switch filter {
	case domain.FilterPending:
		q = q.Where("completed", "==", false)
	case domain.FilterCompleted:
		q = q.Where("completed", "==", true)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Task
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListTasks: %w", err)
		}

		task, err := taskFromSnap(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, nil
}

func (s *Store) CompleteTask(owner domain.UserID, id domain.TaskID) (*domain.Task, error) {
	return s.mutateTask(owner, id, func(task *domain.Task) {
		task.Completed = true
	})
}

func (s *Store) DeleteTask(owner domain.UserID, id domain.TaskID) (*domain.Task, error) {
	task, err := s.getTask(owner, id)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if _, err := s.taskDoc(id).Delete(ctx); err != nil {
		return nil, fmt.Errorf("firestore DeleteTask: %w", err)
	}
	return task, nil
}

func (s *Store) UpdateTask(owner domain.UserID, id domain.TaskID, upd domain.TaskUpdate) (*domain.Task, error) {
	return s.mutateTask(owner, id, func(task *domain.Task) {
		if upd.Title != nil {
			task.Title = *upd.Title
		}
		if upd.Description != nil {
			task.Description = *upd.Description
		}
	})
}

func (s *Store) mutateTask(owner domain.UserID, id domain.TaskID, fn func(*domain.Task)) (*domain.Task, error) {
	task, err := s.getTask(owner, id)
	if err != nil {
		return nil, err
	}

	fn(task)
	task.UpdatedAt = s.now()

	ctx := context.Background()
	doc := taskDoc{
		UserID:      string(task.UserID),
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if _, err := s.taskDoc(id).Set(ctx, doc); err != nil {
		return nil, fmt.Errorf("firestore mutateTask: %w", err)
	}
	return task, nil
}

func (s *Store) getTask(owner domain.UserID, id domain.TaskID) (*domain.Task, error) {
	ctx := context.Background()

	snap, err := s.taskDoc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore getTask: %w", err)
	}

	task, err := taskFromSnap(snap)
	if err != nil {
		return nil, err
	}
	if task.UserID != owner {
		return nil, domain.ErrNotFound
	}
	return task, nil
}

func taskFromSnap(snap *firestore.DocumentSnapshot) (*domain.Task, error) {
	var doc taskDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode taskDoc: %w", err)
	}

	id, err := strconv.ParseInt(snap.Ref.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad task doc id %q: %w", snap.Ref.ID, err)
	}

	return &domain.Task{
		ID:          domain.TaskID(id),
		UserID:      domain.UserID(doc.UserID),
		Title:       doc.Title,
		Description: doc.Description,
		Completed:   doc.Completed,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}
