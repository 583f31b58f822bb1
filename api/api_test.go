package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/readly-ai/readly/api/handler"
	"github.com/readly-ai/readly/api/model"
	"github.com/readly-ai/readly/internal/cache"
	"github.com/readly-ai/readly/internal/chunker"
	"github.com/readly-ai/readly/internal/embedding"
	"github.com/readly-ai/readly/internal/llm"
	"github.com/readly-ai/readly/internal/models"
	"github.com/readly-ai/readly/internal/repository"
	"github.com/readly-ai/readly/internal/retrieval"
	"github.com/readly-ai/readly/internal/services"
	"github.com/readly-ai/readly/pkg/storage"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

func (stubEmbedder) Name() string { return "stub-embedder" }

type stubLLM struct {
	answer string
}

func (s stubLLM) Generate(ctx context.Context, prompt string, options ...llm.GenerateOption) (*llm.Response, error) {
	return &llm.Response{Text: s.answer, ModelName: "stub", FinishTime: time.Now()}, nil
}

func (s stubLLM) Chat(ctx context.Context, messages []llm.Message, options ...llm.GenerateOption) (*llm.Response, error) {
	return s.Generate(ctx, "")
}

func (stubLLM) Name() string { return "stub" }

type testEnv struct {
	Router *gin.Engine
}

func setupTestEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)

	fileStorage, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	dsn := fmt.Sprintf("file:memdb_api_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Document{},
		&models.DocumentChunk{},
		&models.ChatSession{},
		&models.ChatMessage{},
	))

	store, err := retrieval.NewStore(retrieval.Config{Type: "memory", Dimension: 3})
	require.NoError(t, err)

	answerCache, err := cache.NewCache(cache.Config{
		Type:            "memory",
		DefaultTTL:      time.Hour,
		CleanupInterval: time.Minute,
	})
	require.NoError(t, err)

	docRepo := repository.NewDocumentRepositoryWithDB(db)
	chatRepo := repository.NewChatRepositoryWithDB(db)

	docService := services.NewDocumentService(
		fileStorage,
		docRepo,
		chunker.New(chunker.DefaultConfig()),
		embedding.NewBatchProcessor(stubEmbedder{}, 100, 3),
		store,
	)

	rag := llm.NewRAG(stubLLM{answer: "A stubbed answer. [cite:1:stubbed quote]"})
	qaService := services.NewQAService(stubEmbedder{}, store, rag, answerCache)
	chatService := services.NewChatService(qaService, chatRepo, docRepo, nil)

	router := SetupRouter(
		handler.NewDocumentHandler(docService),
		handler.NewChatHandler(chatService),
		handler.NewQAHandler(qaService),
	)

	return &testEnv{Router: router}
}

func (env *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req, err := http.NewRequest(method, path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	return w
}

func (env *testEnv) doJSON(t *testing.T, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	return env.do(t, method, path, body, "application/json")
}

func (env *testEnv) uploadDocument(t *testing.T, filename, content string) model.DocumentInfo {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	w := env.do(t, http.MethodPost, "/api/documents", &buf, writer.FormDataContentType())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var doc model.DocumentInfo
	decodeData(t, w, &doc)
	return doc
}

// decodeData unwraps the response envelope into out.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 0, resp.Code, resp.Message)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestDocumentLifecycle(t *testing.T) {
	env := setupTestEnv(t)

	doc := env.uploadDocument(t, "report.txt", "Quarterly revenue grew steadily across all regions this year.")
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "report.txt", doc.FileName)
	assert.Equal(t, string(models.DocStatusCompleted), doc.Status)

	// Status endpoint reflects the finished pipeline.
	w := env.do(t, http.MethodGet, "/api/documents/"+doc.ID+"/status", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var status model.DocumentStatusResponse
	decodeData(t, w, &status)
	assert.Equal(t, string(models.DocStatusCompleted), status.Status)
	assert.Equal(t, 100, status.Progress)

	// The document appears in the list.
	w = env.do(t, http.MethodGet, "/api/documents", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list model.DocumentListResponse
	decodeData(t, w, &list)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Documents, 1)
	assert.Equal(t, doc.ID, list.Documents[0].ID)

	// A signed download URL can be fetched.
	w = env.do(t, http.MethodGet, "/api/documents/"+doc.ID+"/download", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var dl model.DownloadURLResponse
	decodeData(t, w, &dl)
	assert.NotEmpty(t, dl.URL)

	// Delete it and verify it is gone.
	w = env.do(t, http.MethodDelete, "/api/documents/"+doc.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/documents/"+doc.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	env := setupTestEnv(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "data.xlsx")
	require.NoError(t, err)
	_, err = io.WriteString(part, "binary")
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	w := env.do(t, http.MethodPost, "/api/documents", &buf, writer.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported file type")
}

func TestUploadRequiresFile(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/documents", strings.NewReader(""), "multipart/form-data")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatFlow(t *testing.T) {
	env := setupTestEnv(t)

	doc := env.uploadDocument(t, "guide.txt", "The setup guide explains installation and configuration in detail.")

	// Open a session.
	w := env.doJSON(t, http.MethodPost, "/api/sessions", model.SessionCreateRequest{
		DocumentID: doc.ID,
		Title:      "setup questions",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var session model.SessionInfo
	decodeData(t, w, &session)
	assert.Equal(t, doc.ID, session.DocumentID)
	assert.Equal(t, "setup questions", session.Title)

	// Ask a question.
	w = env.doJSON(t, http.MethodPost, "/api/sessions/"+session.ID+"/messages", model.AskRequest{
		Question: "How do I install it?",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var answer model.AnswerResponse
	decodeData(t, w, &answer)
	assert.Equal(t, "A stubbed answer.", answer.Answer)
	require.Len(t, answer.Citations, 1)
	assert.Equal(t, 1, answer.Citations[0].PageNumber)
	assert.Equal(t, "stubbed quote", answer.Citations[0].Preview)

	// History holds the question and the answer.
	w = env.do(t, http.MethodGet, "/api/sessions/"+session.ID+"/messages", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var history model.HistoryResponse
	decodeData(t, w, &history)
	assert.Equal(t, int64(2), history.Total)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, string(models.RoleUser), history.Messages[0].Role)
	assert.Equal(t, string(models.RoleAssistant), history.Messages[1].Role)
	require.Len(t, history.Messages[1].Citations, 1)

	// Sessions list is scoped by document.
	w = env.do(t, http.MethodGet, "/api/sessions?document_id="+doc.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var sessions model.SessionListResponse
	decodeData(t, w, &sessions)
	assert.Equal(t, int64(1), sessions.Total)

	// Delete the session.
	w = env.do(t, http.MethodDelete, "/api/sessions/"+session.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/sessions/"+session.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOneShotQA(t *testing.T) {
	env := setupTestEnv(t)

	doc := env.uploadDocument(t, "notes.txt", "Meeting notes: the launch is scheduled for March.")

	w := env.doJSON(t, http.MethodPost, "/api/qa", model.QARequest{
		DocumentID: doc.ID,
		Question:   "When is the launch?",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var answer model.AnswerResponse
	decodeData(t, w, &answer)
	assert.Equal(t, "A stubbed answer.", answer.Answer)
	require.Len(t, answer.Citations, 1)
	assert.NotEmpty(t, answer.Sources)
}

func TestChatSessionOnMissingDocument(t *testing.T) {
	env := setupTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/sessions", model.SessionCreateRequest{
		DocumentID: "no-such-doc",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAskRequiresQuestion(t *testing.T) {
	env := setupTestEnv(t)

	doc := env.uploadDocument(t, "doc.txt", "Some indexed content for a session.")

	w := env.doJSON(t, http.MethodPost, "/api/sessions", model.SessionCreateRequest{DocumentID: doc.ID})
	require.Equal(t, http.StatusOK, w.Code)
	var session model.SessionInfo
	decodeData(t, w, &session)

	w = env.doJSON(t, http.MethodPost, "/api/sessions/"+session.ID+"/messages", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
