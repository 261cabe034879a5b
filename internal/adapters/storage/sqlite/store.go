// Package sqlite is the default durable storage backend. It uses the
// pure-Go modernc driver so local mode needs no cgo, and goose-managed
// migrations embedded in the binary.
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/taskdeck/taskdeck/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements domain.ConversationStore, domain.MessageStore and
// domain.TaskStore on a single SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens (or creates) the database at path and brings the
// schema up to date.
func NewStore(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ─────────────────────────────────────────
// ConversationStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateConversation(conv *domain.Conversation) error {
	res, err := s.db.Exec(
		`INSERT INTO conversations (user_id, created_at, updated_at) VALUES (?, ?, ?)`,
		string(conv.UserID), conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite CreateConversation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite CreateConversation id: %w", err)
	}
	conv.ID = domain.ConversationID(id)
	return nil
}

func (s *Store) GetConversation(owner domain.UserID, id domain.ConversationID) (*domain.Conversation, error) {
	conv := &domain.Conversation{ID: id, UserID: owner}
	err := s.db.QueryRow(
		`SELECT created_at, updated_at FROM conversations WHERE id = ? AND user_id = ?`,
		int64(id), string(owner),
	).Scan(&conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite GetConversation: %w", err)
	}
	return conv, nil
}

func (s *Store) TouchConversation(owner domain.UserID, id domain.ConversationID, at domain.Timestamp) error {
	res, err := s.db.Exec(
		`UPDATE conversations SET updated_at = ? WHERE id = ? AND user_id = ?`,
		at, int64(id), string(owner),
	)
	if err != nil {
		return fmt.Errorf("sqlite TouchConversation: %w", err)
	}
	return requireRow(res)
}

func (s *Store) ListConversationsByUser(owner domain.UserID) ([]*domain.Conversation, error) {
	rows, err := s.db.Query(
		`SELECT id, created_at, updated_at FROM conversations WHERE user_id = ? ORDER BY id`,
		string(owner),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite ListConversationsByUser: %w", err)
	}
	defer rows.Close()

	var out []*domain.Conversation
	for rows.Next() {
		conv := &domain.Conversation{UserID: owner}
		var id int64
		if err := rows.Scan(&id, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite scan conversation: %w", err)
		}
		conv.ID = domain.ConversationID(id)
		out = append(out, conv)
	}
	return out, rows.Err()
}

func (s *Store) DeleteConversation(owner domain.UserID, id domain.ConversationID) error {
	// Messages go with it via ON DELETE CASCADE.
	res, err := s.db.Exec(
		`DELETE FROM conversations WHERE id = ? AND user_id = ?`,
		int64(id), string(owner),
	)
	if err != nil {
		return fmt.Errorf("sqlite DeleteConversation: %w", err)
	}
	return requireRow(res)
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessage(msg *domain.Message) error {
	if !domain.ValidRole(msg.Role) {
		return domain.ErrInvalidRole
	}

	res, err := s.db.Exec(
		`INSERT INTO messages (conversation_id, user_id, role, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		int64(msg.ConversationID), string(msg.UserID), string(msg.Role), msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite AppendMessage: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite AppendMessage id: %w", err)
	}
	msg.ID = domain.MessageID(id)
	return nil
}

func (s *Store) LoadHistory(conversationID domain.ConversationID) ([]*domain.Message, error) {
	// id is the tiebreaker for messages written within the same tick.
	rows, err := s.db.Query(
		`SELECT id, user_id, role, content, created_at
		 FROM messages WHERE conversation_id = ?
		 ORDER BY created_at, id`,
		int64(conversationID),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite LoadHistory: %w", err)
	}
	defer rows.Close()

	var out []*domain.Message
	for rows.Next() {
		msg := &domain.Message{ConversationID: conversationID}
		var id int64
		var userID, role string
		if err := rows.Scan(&id, &userID, &role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite scan message: %w", err)
		}
		msg.ID = domain.MessageID(id)
		msg.UserID = domain.UserID(userID)
		msg.Role = domain.Role(role)
		out = append(out, msg)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────
// TaskStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateTask(task *domain.Task) error {
	if task.Title == "" {
		return domain.ErrEmptyTitle
	}

	now := s.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	res, err := s.db.Exec(
		`INSERT INTO tasks (user_id, title, description, completed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(task.UserID), task.Title, task.Description, task.Completed, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite CreateTask: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite CreateTask id: %w", err)
	}
	task.ID = domain.TaskID(id)
	return nil
}

func (s *Store) ListTasks(owner domain.UserID, filter domain.TaskFilter) ([]*domain.Task, error) {
	query := `SELECT id, title, description, completed, created_at, updated_at
	          FROM tasks WHERE user_id = ?`
	args := []any{string(owner)}

	switch filter {
	case domain.FilterPending:
		query += ` AND completed = 0`
	case domain.FilterCompleted:
		query += ` AND completed = 1`
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite ListTasks: %w", err)
	}
	defer rows.Close()

	var out []*domain.Task
	for rows.Next() {
		task := &domain.Task{UserID: owner}
		var id int64
		if err := rows.Scan(&id, &task.Title, &task.Description, &task.Completed,
			&task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite scan task: %w", err)
		}
		task.ID = domain.TaskID(id)
		out = append(out, task)
	}
	return out, rows.Err()
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

	res, err := s.db.Exec(
		`DELETE FROM tasks WHERE id = ? AND user_id = ?`,
		int64(id), string(owner),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite DeleteTask: %w", err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
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

// mutateTask reads the owner's task, applies fn and writes it back.
func (s *Store) mutateTask(owner domain.UserID, id domain.TaskID, fn func(*domain.Task)) (*domain.Task, error) {
	task, err := s.getTask(owner, id)
	if err != nil {
		return nil, err
	}

	fn(task)
	task.UpdatedAt = s.now()

	res, err := s.db.Exec(
		`UPDATE tasks SET title = ?, description = ?, completed = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		task.Title, task.Description, task.Completed, task.UpdatedAt,
		int64(id), string(owner),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite UpdateTask: %w", err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Store) getTask(owner domain.UserID, id domain.TaskID) (*domain.Task, error) {
	task := &domain.Task{ID: id, UserID: owner}
	err := s.db.QueryRow(
		`SELECT title, description, completed, created_at, updated_at
		 FROM tasks WHERE id = ? AND user_id = ?`,
		int64(id), string(owner),
	).Scan(&task.Title, &task.Description, &task.Completed, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite getTask: %w", err)
	}
	return task, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
