package model

import (
	"mime/multipart"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("docstatus", validDocumentStatus)
	}
}

// validDocumentStatus accepts the document status values the pipeline
// produces.
func validDocumentStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "uploaded", "processing", "completed", "failed":
		return true
	}
	return false
}

// PaginationRequest holds common paging parameters.
type PaginationRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1"`
}

// GetPage returns the page number, defaulting to 1.
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize returns the page size, defaulting to 10 and capped at 100.
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 10
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// Offset returns the record offset for the requested page.
func (p *PaginationRequest) Offset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// DocumentUploadRequest is a multipart document upload.
type DocumentUploadRequest struct {
	File *multipart.FileHeader `form:"file" binding:"required"`
}

// DocumentIDRequest addresses one document by path parameter.
type DocumentIDRequest struct {
	ID string `uri:"id" binding:"required"`
}

// DocumentListRequest filters and pages the document list.
type DocumentListRequest struct {
	PaginationRequest
	Status    string     `form:"status" json:"status" binding:"omitempty,docstatus"`
	FileName  string     `form:"filename" json:"filename" binding:"omitempty"`
	StartTime *time.Time `form:"start_time" json:"start_time" time_format:"2006-01-02T15:04:05Z07:00" binding:"omitempty"`
	EndTime   *time.Time `form:"end_time" json:"end_time" time_format:"2006-01-02T15:04:05Z07:00" binding:"omitempty"`
}

// SessionCreateRequest opens a chat session over a document.
type SessionCreateRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	Title      string `json:"title" binding:"omitempty,max=200"`
}

// SessionIDRequest addresses one session by path parameter.
type SessionIDRequest struct {
	ID string `uri:"id" binding:"required"`
}

// SessionListRequest pages sessions, optionally scoped to a document.
type SessionListRequest struct {
	PaginationRequest
	DocumentID string `form:"document_id" json:"document_id" binding:"omitempty"`
}

// AskRequest asks a question within a session.
type AskRequest struct {
	Question string `json:"question" binding:"required,max=2000"`
}

// QARequest asks a one-shot question about a document.
type QARequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	Question   string `json:"question" binding:"required,max=2000"`
}
