package sqlite_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/adapters/storage/sqlite"
	"github.com/taskdeck/taskdeck/internal/domain"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.NewStore(filepath.Join(t.TempDir(), "taskdeck_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestConversationRoundTrip(t *testing.T) {
	store := newStore(t)
	now := time.Now().UTC()

	conv := &domain.Conversation{UserID: "u1", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.CreateConversation(conv))
	assert.Equal(t, domain.ConversationID(1), conv.ID)

	got, err := store.GetConversation("u1", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)

	_, err = store.GetConversation("u2", conv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	later := now.Add(time.Minute)
	require.NoError(t, store.TouchConversation("u1", conv.ID, later))

	got, err = store.GetConversation("u1", conv.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestHistoryOrderAndRoundTrip(t *testing.T) {
	store := newStore(t)
	now := time.Now().UTC()

	conv := &domain.Conversation{UserID: "u1", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.CreateConversation(conv))

	contents := []string{"hello", "hi!", "how are you"}
	for i, c := range contents {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		require.NoError(t, store.AppendMessage(&domain.Message{
			ConversationID: conv.ID,
			UserID:         "u1",
			Role:           role,
			Content:        c,
			CreatedAt:      now.Add(time.Duration(i) * time.Millisecond),
		}))
	}

	history, err := store.LoadHistory(conv.ID)
	require.NoError(t, err)
	require.Len(t, history, len(contents))
	for i, c := range contents {
		assert.Equal(t, c, history[i].Content)
	}
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)
}

func TestDeleteConversationCascadesMessages(t *testing.T) {
	store := newStore(t)
	now := time.Now().UTC()

	conv := &domain.Conversation{UserID: "u1", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.CreateConversation(conv))
	require.NoError(t, store.AppendMessage(&domain.Message{
		ConversationID: conv.ID,
		UserID:         "u1",
		Role:           domain.RoleUser,
		Content:        "hello",
		CreatedAt:      now,
	}))

	require.NoError(t, store.DeleteConversation("u1", conv.ID))

	_, err := store.GetConversation("u1", conv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	history, err := store.LoadHistory(conv.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestTaskLifecycle(t *testing.T) {
	store := newStore(t)

	task := &domain.Task{UserID: "u1", Title: "Buy groceries", Description: "milk"}
	require.NoError(t, store.CreateTask(task))
	assert.Equal(t, domain.TaskID(1), task.ID)

	// Foreign owner sees nothing.
	_, err := store.CompleteTask("u2", task.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	done, err := store.CompleteTask("u1", task.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.Equal(t, "Buy groceries", done.Title)

	pending, err := store.ListTasks("u1", domain.FilterPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	completed, err := store.ListTasks("u1", domain.FilterCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)

	newTitle := "Buy food"
	updated, err := store.UpdateTask("u1", task.ID, domain.TaskUpdate{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "Buy food", updated.Title)
	assert.Equal(t, "milk", updated.Description, "partial update must keep the description")

	deleted, err := store.DeleteTask("u1", task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy food", deleted.Title)

	all, err := store.ListTasks("u1", domain.FilterAll)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTaskIDsAreSequential(t *testing.T) {
	store := newStore(t)

	for i, title := range []string{"one", "two", "three"} {
		task := &domain.Task{UserID: "u1", Title: title}
		require.NoError(t, store.CreateTask(task))
		assert.Equal(t, domain.TaskID(i+1), task.ID)
	}
}
