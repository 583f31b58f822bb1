package repository

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/readly-ai/readly/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupChatTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:memdb_chat_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "failed to open in-memory database")

	err = db.AutoMigrate(&models.ChatSession{}, &models.ChatMessage{})
	require.NoError(t, err, "failed to run migrations")

	return db
}

func TestChatRepository_Sessions(t *testing.T) {
	repo := NewChatRepositoryWithDB(setupChatTestDB(t))

	session := &models.ChatSession{
		ID:         "session-1",
		DocumentID: "doc-1",
		Title:      "Quarterly report",
	}
	require.NoError(t, repo.CreateSession(session))

	t.Run("get", func(t *testing.T) {
		saved, err := repo.GetSession("session-1")
		require.NoError(t, err)
		assert.Equal(t, "Quarterly report", saved.Title)
		assert.Equal(t, "doc-1", saved.DocumentID)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := repo.GetSession("no-such-session")
		assert.ErrorIs(t, err, models.ErrSessionNotFound)
	})

	t.Run("empty id rejected", func(t *testing.T) {
		err := repo.CreateSession(&models.ChatSession{Title: "untitled"})
		assert.Error(t, err)
	})
}

func TestChatRepository_ListSessionsByDocument(t *testing.T) {
	repo := NewChatRepositoryWithDB(setupChatTestDB(t))

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreateSession(&models.ChatSession{
			ID:         fmt.Sprintf("session-%d", i),
			DocumentID: "doc-1",
			Title:      "chat",
		}))
	}
	require.NoError(t, repo.CreateSession(&models.ChatSession{
		ID:         "session-other",
		DocumentID: "doc-2",
		Title:      "chat",
	}))

	sessions, total, err := repo.ListSessions(0, 10, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, sessions, 3)

	sessions, total, err = repo.ListSessions(0, 10, "")
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, sessions, 4)
}

func TestChatRepository_Messages(t *testing.T) {
	repo := NewChatRepositoryWithDB(setupChatTestDB(t))
	require.NoError(t, repo.CreateSession(&models.ChatSession{
		ID:         "session-1",
		DocumentID: "doc-1",
		Title:      "chat",
	}))

	citations, err := json.Marshal([]map[string]interface{}{
		{"pageNumber": 5, "preview": "Key findings", "position": 21},
	})
	require.NoError(t, err)

	require.NoError(t, repo.CreateMessage(&models.ChatMessage{
		SessionID: "session-1",
		Role:      models.RoleUser,
		Content:   "What did the study find?",
	}))
	require.NoError(t, repo.CreateMessage(&models.ChatMessage{
		SessionID: "session-1",
		Role:      models.RoleAssistant,
		Content:   "The study found gains after launch.",
		Citations: datatypes.JSON(citations),
	}))

	t.Run("chronological order", func(t *testing.T) {
		messages, total, err := repo.GetMessages("session-1", 0, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, messages, 2)
		assert.Equal(t, models.RoleUser, messages[0].Role)
		assert.Equal(t, models.RoleAssistant, messages[1].Role)
		assert.NotEmpty(t, messages[1].Citations)
	})

	t.Run("count", func(t *testing.T) {
		count, err := repo.CountMessages("session-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("missing session id rejected", func(t *testing.T) {
		err := repo.CreateMessage(&models.ChatMessage{Role: models.RoleUser, Content: "hi"})
		assert.Error(t, err)
	})
}

func TestChatRepository_DeleteSessionCascades(t *testing.T) {
	repo := NewChatRepositoryWithDB(setupChatTestDB(t))
	require.NoError(t, repo.CreateSession(&models.ChatSession{
		ID: "session-1", DocumentID: "doc-1", Title: "chat",
	}))
	require.NoError(t, repo.CreateMessage(&models.ChatMessage{
		SessionID: "session-1", Role: models.RoleUser, Content: "hi",
	}))

	require.NoError(t, repo.DeleteSession("session-1"))

	_, err := repo.GetSession("session-1")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	count, err := repo.CountMessages("session-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
