package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DocumentStatus tracks a document through the ingestion pipeline.
type DocumentStatus string

const (
	DocStatusUploaded   DocumentStatus = "uploaded"
	DocStatusProcessing DocumentStatus = "processing"
	DocStatusCompleted  DocumentStatus = "completed"
	DocStatusFailed     DocumentStatus = "failed"
)

// ProcessStage is the pipeline step currently running for a document.
type ProcessStage string

const (
	StageParsing   ProcessStage = "parsing"
	StageChunking  ProcessStage = "chunking"
	StageEmbedding ProcessStage = "embedding"
	StageIndexing  ProcessStage = "indexing"
	StageCompleted ProcessStage = "completed"
)

// Document stores metadata for one uploaded file.
type Document struct {
	ID            string         `gorm:"primaryKey"`
	FileName      string         `gorm:"not null"`
	FileType      string         `gorm:"not null"`
	FilePath      string         `gorm:"not null"`
	FileSize      int64          `gorm:"not null"`
	Status        DocumentStatus `gorm:"not null;index"`
	UploadedAt    time.Time      `gorm:"not null;index"`
	ProcessedAt   *time.Time     `gorm:"index"`
	UpdatedAt     time.Time      `gorm:"not null;index"`
	Progress      int            `gorm:"not null;default:0"` // 0-100
	Error         string         `gorm:"type:text"`
	PageCount     int            `gorm:"not null;default:0"`
	ChunkCount    int            `gorm:"not null;default:0"`
	CurrentStage  ProcessStage   `gorm:"size:20"`
	CurrentTaskID string         `gorm:"size:50;index"`
	RetryCount    int            `gorm:"default:0"`
	Metadata      datatypes.JSON `gorm:"type:json"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) (err error) {
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now()
	}
	d.UpdatedAt = time.Now()
	return nil
}

func (d *Document) BeforeUpdate(tx *gorm.DB) (err error) {
	d.UpdatedAt = time.Now()
	return nil
}

func (Document) TableName() string {
	return "documents"
}

// DocumentChunk tracks one text chunk of a document. The offsets point
// into the document's extracted full text, so Content always equals
// fullText[StartIndex:EndIndex].
type DocumentChunk struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	DocumentID string    `gorm:"not null;index"`
	ChunkID    string    `gorm:"not null;uniqueIndex"` // ID shared with the vector store
	ChunkIndex int       `gorm:"not null"`             // position within the document
	PageNumber int       `gorm:"not null"`             // 1-based page the chunk starts on
	StartIndex int       `gorm:"not null"`
	EndIndex   int       `gorm:"not null"`
	Content    string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (dc *DocumentChunk) BeforeCreate(tx *gorm.DB) (err error) {
	now := time.Now()
	dc.CreatedAt = now
	dc.UpdatedAt = now
	return nil
}

func (dc *DocumentChunk) BeforeUpdate(tx *gorm.DB) (err error) {
	dc.UpdatedAt = time.Now()
	return nil
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
