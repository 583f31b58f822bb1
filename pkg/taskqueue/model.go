package taskqueue

import (
	"encoding/json"
	"time"
)

// TaskType identifies what a task does.
type TaskType string

const (
	// TaskDocumentIngest runs the full ingestion pipeline for one
	// document: parse, chunk, embed, index.
	TaskDocumentIngest TaskType = "document_ingest"
	// TaskDocumentDelete removes a document's chunks and vectors.
	TaskDocumentDelete TaskType = "document_delete"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// Task is one queued unit of work.
type Task struct {
	ID          string          `json:"id"`
	Type        TaskType        `json:"type"`
	DocumentID  string          `json:"document_id"`
	Status      TaskStatus      `json:"status"`
	Payload     json.RawMessage `json:"payload"`
	Result      json.RawMessage `json:"result"`
	Error       string          `json:"error"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	StartedAt   *time.Time      `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at"`
	Attempts    int             `json:"attempts"`
	MaxRetries  int             `json:"max_retries"`
}

// IngestPayload describes a document ingestion task.
type IngestPayload struct {
	DocumentID string `json:"document_id"`
	FileID     string `json:"file_id"`   // storage ID of the uploaded file
	FileName   string `json:"file_name"` // original filename, determines the parser
}

// IngestResult is the outcome of a completed ingestion task.
type IngestResult struct {
	DocumentID string `json:"document_id"`
	PageCount  int    `json:"page_count"`
	ChunkCount int    `json:"chunk_count"`
	Dimension  int    `json:"dimension"`
}

// DeletePayload describes a document deletion task.
type DeletePayload struct {
	DocumentID string `json:"document_id"`
}
