package repository

import "github.com/readly-ai/readly/internal/models"

// DocumentRepository stores document metadata and chunk rows.
type DocumentRepository interface {
	// Create inserts a document record.
	Create(doc *models.Document) error

	// Update saves a document record.
	Update(doc *models.Document) error

	// GetByID fetches a document by ID.
	GetByID(id string) (*models.Document, error)

	// List returns documents with pagination and optional filters.
	List(offset, limit int, filters map[string]interface{}) ([]*models.Document, int64, error)

	// Delete removes a document and its chunks.
	Delete(id string) error

	// UpdateStatus moves a document to a new pipeline status.
	UpdateStatus(id string, status models.DocumentStatus, errorMsg string) error

	// UpdateProgress sets the processing progress (0-100).
	UpdateProgress(id string, progress int, stage models.ProcessStage) error

	// SaveChunks inserts chunk rows in bulk.
	SaveChunks(chunks []*models.DocumentChunk) error

	// GetChunks returns a document's chunks ordered by chunk index.
	GetChunks(docID string) ([]*models.DocumentChunk, error)

	// CountChunks counts a document's chunks.
	CountChunks(docID string) (int, error)

	// DeleteChunks removes all chunk rows for a document.
	DeleteChunks(docID string) error
}

// ChatRepository stores chat sessions and messages.
type ChatRepository interface {
	// CreateSession inserts a session record.
	CreateSession(session *models.ChatSession) error

	// GetSession fetches a session by ID.
	GetSession(id string) (*models.ChatSession, error)

	// ListSessions returns sessions with pagination, optionally scoped
	// to a document.
	ListSessions(offset, limit int, documentID string) ([]*models.ChatSession, int64, error)

	// UpdateSession saves a session record.
	UpdateSession(session *models.ChatSession) error

	// DeleteSession removes a session and its messages.
	DeleteSession(id string) error

	// CreateMessage appends a message to a session.
	CreateMessage(message *models.ChatMessage) error

	// GetMessages returns a session's messages in chronological order.
	GetMessages(sessionID string, offset, limit int) ([]*models.ChatMessage, int64, error)

	// CountMessages counts a session's messages.
	CountMessages(sessionID string) (int64, error)
}
