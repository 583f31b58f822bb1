package taskqueue

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Ingester runs the document ingestion pipeline. Implemented by the
// document service; declared here so the queue package does not depend
// on it.
type Ingester interface {
	// IngestDocument parses, chunks, embeds and indexes a stored file.
	IngestDocument(ctx context.Context, documentID, fileID, fileName string) error

	// RemoveDocument drops a document's chunks and vectors.
	RemoveDocument(ctx context.Context, documentID string) error
}

// DocumentHandler executes document tasks against an Ingester.
type DocumentHandler struct {
	ingester Ingester
	logger   *logrus.Logger
}

// NewDocumentHandler creates a handler for document tasks.
func NewDocumentHandler(ingester Ingester, logger *logrus.Logger) *DocumentHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &DocumentHandler{
		ingester: ingester,
		logger:   logger,
	}
}

// TaskTypes returns the task types this handler serves.
func (h *DocumentHandler) TaskTypes() []TaskType {
	return []TaskType{TaskDocumentIngest, TaskDocumentDelete}
}

// ProcessTask dispatches a task to the ingester.
func (h *DocumentHandler) ProcessTask(ctx context.Context, task *Task) error {
	log := h.logger.WithFields(logrus.Fields{
		"task_id":     task.ID,
		"task_type":   task.Type,
		"document_id": task.DocumentID,
	})

	switch task.Type {
	case TaskDocumentIngest:
		var payload IngestPayload
		if err := UnmarshalPayload(task.Payload, &payload); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if payload.DocumentID == "" || payload.FileID == "" {
			return ErrInvalidPayload
		}

		log.Info("starting document ingestion")
		if err := h.ingester.IngestDocument(ctx, payload.DocumentID, payload.FileID, payload.FileName); err != nil {
			log.WithError(err).Error("document ingestion failed")
			return err
		}
		log.Info("document ingestion completed")
		return nil

	case TaskDocumentDelete:
		var payload DeletePayload
		if err := UnmarshalPayload(task.Payload, &payload); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if payload.DocumentID == "" {
			return ErrInvalidPayload
		}

		if err := h.ingester.RemoveDocument(ctx, payload.DocumentID); err != nil {
			log.WithError(err).Error("document removal failed")
			return err
		}
		log.Info("document removed")
		return nil

	default:
		return fmt.Errorf("unsupported task type: %s", task.Type)
	}
}
