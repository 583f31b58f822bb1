package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/readly-ai/readly/internal/models"
	"github.com/readly-ai/readly/internal/repository"
)

// ChatService manages chat sessions over documents and persists the
// question/answer exchange produced by the QA service.
type ChatService struct {
	qa       *QAService
	chatRepo repository.ChatRepository
	docRepo  repository.DocumentRepository
	logger   *logrus.Logger
}

// NewChatService creates the chat service.
func NewChatService(
	qa *QAService,
	chatRepo repository.ChatRepository,
	docRepo repository.DocumentRepository,
	logger *logrus.Logger,
) *ChatService {
	if logger == nil {
		logger = logrus.New()
	}
	return &ChatService{
		qa:       qa,
		chatRepo: chatRepo,
		docRepo:  docRepo,
		logger:   logger,
	}
}

// StartSession opens a chat session over a document. An empty title
// defaults to the document's filename.
func (s *ChatService) StartSession(ctx context.Context, documentID, title string) (*models.ChatSession, error) {
	doc, err := s.docRepo.GetByID(documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.DocStatusCompleted {
		return nil, fmt.Errorf("document %s is not ready for chat (status: %s)", documentID, doc.Status)
	}

	if strings.TrimSpace(title) == "" {
		title = doc.FileName
	}

	session := &models.ChatSession{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		Title:      title,
	}
	if err := s.chatRepo.CreateSession(session); err != nil {
		return nil, err
	}
	return session, nil
}

// Ask answers a question within a session, persisting both the user
// message and the assistant's cited answer.
func (s *ChatService) Ask(ctx context.Context, sessionID, question string) (*Answer, error) {
	session, err := s.chatRepo.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.chatRepo.CreateMessage(&models.ChatMessage{
		SessionID: sessionID,
		Role:      models.RoleUser,
		Content:   question,
	}); err != nil {
		return nil, fmt.Errorf("failed to record question: %w", err)
	}

	answer, err := s.qa.Answer(ctx, session.DocumentID, question)
	if err != nil {
		return nil, err
	}

	message := &models.ChatMessage{
		SessionID: sessionID,
		Role:      models.RoleAssistant,
		Content:   answer.Text,
	}
	if len(answer.Citations) > 0 {
		citationsJSON, err := json.Marshal(answer.Citations)
		if err == nil {
			message.Citations = datatypes.JSON(citationsJSON)
		} else {
			s.logger.WithError(err).Warn("failed to serialize citations")
		}
	}
	if err := s.chatRepo.CreateMessage(message); err != nil {
		return nil, fmt.Errorf("failed to record answer: %w", err)
	}

	return answer, nil
}

// GetSession fetches a session.
func (s *ChatService) GetSession(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	return s.chatRepo.GetSession(sessionID)
}

// ListSessions returns sessions, optionally scoped to a document.
func (s *ChatService) ListSessions(ctx context.Context, offset, limit int, documentID string) ([]*models.ChatSession, int64, error) {
	return s.chatRepo.ListSessions(offset, limit, documentID)
}

// History returns a session's messages in chronological order.
func (s *ChatService) History(ctx context.Context, sessionID string, offset, limit int) ([]*models.ChatMessage, int64, error) {
	if _, err := s.chatRepo.GetSession(sessionID); err != nil {
		return nil, 0, err
	}
	return s.chatRepo.GetMessages(sessionID, offset, limit)
}

// DeleteSession removes a session and its messages.
func (s *ChatService) DeleteSession(ctx context.Context, sessionID string) error {
	return s.chatRepo.DeleteSession(sessionID)
}
