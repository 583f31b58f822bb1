package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readly-ai/readly/internal/cache"
	"github.com/readly-ai/readly/internal/citation"
	"github.com/readly-ai/readly/internal/llm"
	"github.com/readly-ai/readly/internal/models"
	"github.com/readly-ai/readly/internal/repository"
)

func newTestChatService(t *testing.T, answer string) (*ChatService, repository.DocumentRepository) {
	db := newTestDB(t)
	docRepo := repository.NewDocumentRepositoryWithDB(db)
	chatRepo := repository.NewChatRepositoryWithDB(db)

	store := seededStore(t)
	embedder := &fakeEmbedder{vector: []float32{1, 0, 0}}
	rag := llm.NewRAG(&fakeLLM{answer: answer})

	answerCache, err := cache.NewMemoryCache(cache.DefaultConfig())
	require.NoError(t, err)

	qa := NewQAService(embedder, store, rag, answerCache)
	return NewChatService(qa, chatRepo, docRepo, nil), docRepo
}

func createCompletedDocument(t *testing.T, repo repository.DocumentRepository, id, fileName string) {
	require.NoError(t, repo.Create(&models.Document{
		ID:       id,
		FileName: fileName,
		FileType: "pdf",
		Status:   models.DocStatusCompleted,
	}))
}

func TestChatService_StartSession(t *testing.T) {
	svc, docRepo := newTestChatService(t, "ok")
	createCompletedDocument(t, docRepo, "doc-1", "report.pdf")

	session, err := svc.StartSession(context.Background(), "doc-1", "Q3 review")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "doc-1", session.DocumentID)
	assert.Equal(t, "Q3 review", session.Title)
}

func TestChatService_StartSessionDefaultTitle(t *testing.T) {
	svc, docRepo := newTestChatService(t, "ok")
	createCompletedDocument(t, docRepo, "doc-1", "report.pdf")

	session, err := svc.StartSession(context.Background(), "doc-1", "  ")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", session.Title)
}

func TestChatService_StartSessionDocumentNotReady(t *testing.T) {
	svc, docRepo := newTestChatService(t, "ok")
	require.NoError(t, docRepo.Create(&models.Document{
		ID:       "doc-pending",
		FileName: "pending.pdf",
		FileType: "pdf",
		Status:   models.DocStatusProcessing,
	}))

	_, err := svc.StartSession(context.Background(), "doc-pending", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready")
}

func TestChatService_StartSessionMissingDocument(t *testing.T) {
	svc, _ := newTestChatService(t, "ok")

	_, err := svc.StartSession(context.Background(), "no-such-doc", "")
	assert.ErrorIs(t, err, models.ErrDocumentNotFound)
}

func TestChatService_Ask(t *testing.T) {
	svc, docRepo := newTestChatService(t, "Revenue grew. [cite:5:gains after launch]")
	createCompletedDocument(t, docRepo, "doc-1", "report.pdf")

	session, err := svc.StartSession(context.Background(), "doc-1", "")
	require.NoError(t, err)

	answer, err := svc.Ask(context.Background(), session.ID, "How did revenue do?")
	require.NoError(t, err)
	assert.Equal(t, "Revenue grew.", answer.Text)
	require.Len(t, answer.Citations, 1)
	assert.Equal(t, 5, answer.Citations[0].PageNumber)

	// Both sides of the exchange are persisted.
	messages, total, err := svc.History(context.Background(), session.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, messages, 2)

	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, "How did revenue do?", messages[0].Content)

	assert.Equal(t, models.RoleAssistant, messages[1].Role)
	assert.Equal(t, "Revenue grew.", messages[1].Content)

	var stored []citation.Citation
	require.NoError(t, json.Unmarshal(messages[1].Citations, &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, 5, stored[0].PageNumber)
	assert.Equal(t, "gains after launch", stored[0].Preview)
}

func TestChatService_AskUnknownSession(t *testing.T) {
	svc, _ := newTestChatService(t, "ok")

	_, err := svc.Ask(context.Background(), "no-such-session", "question?")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestChatService_ListSessions(t *testing.T) {
	svc, docRepo := newTestChatService(t, "ok")
	createCompletedDocument(t, docRepo, "doc-1", "a.pdf")
	createCompletedDocument(t, docRepo, "doc-2", "b.pdf")

	_, err := svc.StartSession(context.Background(), "doc-1", "first")
	require.NoError(t, err)
	_, err = svc.StartSession(context.Background(), "doc-1", "second")
	require.NoError(t, err)
	_, err = svc.StartSession(context.Background(), "doc-2", "other")
	require.NoError(t, err)

	all, total, err := svc.ListSessions(context.Background(), 0, 10, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	scoped, total, err := svc.ListSessions(context.Background(), 0, 10, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, scoped, 2)
}

func TestChatService_DeleteSession(t *testing.T) {
	svc, docRepo := newTestChatService(t, "Some answer.")
	createCompletedDocument(t, docRepo, "doc-1", "report.pdf")

	session, err := svc.StartSession(context.Background(), "doc-1", "")
	require.NoError(t, err)
	_, err = svc.Ask(context.Background(), session.ID, "question?")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSession(context.Background(), session.ID))

	_, err = svc.GetSession(context.Background(), session.ID)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	_, _, err = svc.History(context.Background(), session.ID, 0, 10)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}
