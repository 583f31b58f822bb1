package model

import (
	"encoding/json"
	"time"

	"github.com/readly-ai/readly/internal/models"
	"github.com/readly-ai/readly/internal/services"
)

// Response is the envelope every endpoint answers with. Code 0 means
// success.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// NewSuccessResponse wraps data in a success envelope.
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse builds an error envelope.
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// DocumentInfo describes one document.
type DocumentInfo struct {
	ID          string     `json:"id"`
	FileName    string     `json:"filename"`
	FileType    string     `json:"file_type"`
	FileSize    int64      `json:"file_size"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	Stage       string     `json:"stage,omitempty"`
	PageCount   int        `json:"page_count,omitempty"`
	ChunkCount  int        `json:"chunk_count,omitempty"`
	Error       string     `json:"error,omitempty"`
	UploadedAt  time.Time  `json:"uploaded_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// ToDocumentInfo converts a document record to its API shape.
func ToDocumentInfo(doc *models.Document) DocumentInfo {
	return DocumentInfo{
		ID:          doc.ID,
		FileName:    doc.FileName,
		FileType:    doc.FileType,
		FileSize:    doc.FileSize,
		Status:      string(doc.Status),
		Progress:    doc.Progress,
		Stage:       string(doc.CurrentStage),
		PageCount:   doc.PageCount,
		ChunkCount:  doc.ChunkCount,
		Error:       doc.Error,
		UploadedAt:  doc.UploadedAt,
		UpdatedAt:   doc.UpdatedAt,
		ProcessedAt: doc.ProcessedAt,
	}
}

// DocumentListResponse pages documents.
type DocumentListResponse struct {
	Total     int64          `json:"total"`
	Page      int            `json:"page"`
	PageSize  int            `json:"page_size"`
	Documents []DocumentInfo `json:"documents"`
}

// DocumentStatusResponse reports ingestion progress.
type DocumentStatusResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Stage    string `json:"stage,omitempty"`
	Error    string `json:"error,omitempty"`
}

// DeleteResponse acknowledges a deletion.
type DeleteResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// DownloadURLResponse carries a signed download URL.
type DownloadURLResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CitationInfo is one citation of an answer.
type CitationInfo struct {
	PageNumber int    `json:"page_number"`
	Preview    string `json:"preview"`
	Position   int    `json:"position"`
}

// SourceInfo is one retrieved chunk an answer drew on.
type SourceInfo struct {
	ChunkID    string  `json:"chunk_id"`
	PageNumber int     `json:"page_number"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float32 `json:"score"`
}

// AnswerResponse is a grounded answer with its citations and sources.
type AnswerResponse struct {
	Answer    string         `json:"answer"`
	Citations []CitationInfo `json:"citations"`
	Sources   []SourceInfo   `json:"sources"`
	Cached    bool           `json:"cached"`
}

// ToAnswerResponse converts a service answer to its API shape.
func ToAnswerResponse(answer *services.Answer) AnswerResponse {
	resp := AnswerResponse{
		Answer:    answer.Text,
		Citations: make([]CitationInfo, len(answer.Citations)),
		Sources:   make([]SourceInfo, len(answer.Sources)),
		Cached:    answer.Cached,
	}
	for i, c := range answer.Citations {
		resp.Citations[i] = CitationInfo{
			PageNumber: c.PageNumber,
			Preview:    c.Preview,
			Position:   c.Position,
		}
	}
	for i, s := range answer.Sources {
		resp.Sources[i] = SourceInfo{
			ChunkID:    s.Record.ID,
			PageNumber: s.Record.PageNumber,
			ChunkIndex: s.Record.ChunkIndex,
			Text:       s.Record.Text,
			Score:      s.Score,
		}
	}
	return resp
}

// SessionInfo describes one chat session.
type SessionInfo struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ToSessionInfo converts a session record to its API shape.
func ToSessionInfo(session *models.ChatSession) SessionInfo {
	return SessionInfo{
		ID:         session.ID,
		DocumentID: session.DocumentID,
		Title:      session.Title,
		CreatedAt:  session.CreatedAt,
		UpdatedAt:  session.UpdatedAt,
	}
}

// SessionListResponse pages chat sessions.
type SessionListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Sessions []SessionInfo `json:"sessions"`
}

// MessageInfo is one message of a session's history.
type MessageInfo struct {
	ID        uint           `json:"id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Citations []CitationInfo `json:"citations,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ToMessageInfo converts a message record, decoding stored citations.
func ToMessageInfo(message *models.ChatMessage) MessageInfo {
	info := MessageInfo{
		ID:        message.ID,
		Role:      string(message.Role),
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
	}
	if len(message.Citations) > 0 {
		_ = json.Unmarshal(message.Citations, &info.Citations)
	}
	return info
}

// HistoryResponse pages a session's messages.
type HistoryResponse struct {
	SessionID string        `json:"session_id"`
	Total     int64         `json:"total"`
	Page      int           `json:"page"`
	PageSize  int           `json:"page_size"`
	Messages  []MessageInfo `json:"messages"`
}
