package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/readly-ai/readly/internal/chunker"
	"github.com/readly-ai/readly/internal/document"
	"github.com/readly-ai/readly/internal/embedding"
	"github.com/readly-ai/readly/internal/models"
	"github.com/readly-ai/readly/internal/repository"
	"github.com/readly-ai/readly/internal/retrieval"
	"github.com/readly-ai/readly/pkg/storage"
	"github.com/readly-ai/readly/pkg/taskqueue"
)

// DocumentService runs the ingestion pipeline: store the upload, parse
// it to text, chunk, embed, and index the chunks for retrieval.
type DocumentService struct {
	storage   storage.Storage
	repo      repository.DocumentRepository
	chunker   *chunker.Chunker
	embedder  *embedding.BatchProcessor
	store     retrieval.Store
	queue     taskqueue.Queue
	urlCache  *storage.URLCache
	logger    *logrus.Logger
	async     bool
	urlExpiry time.Duration
}

// DocumentOption mutates a DocumentService.
type DocumentOption func(*DocumentService)

// WithTaskQueue enables asynchronous ingestion through the queue.
func WithTaskQueue(queue taskqueue.Queue) DocumentOption {
	return func(s *DocumentService) {
		s.queue = queue
		s.async = queue != nil
	}
}

// WithDocumentLogger sets the logger.
func WithDocumentLogger(logger *logrus.Logger) DocumentOption {
	return func(s *DocumentService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithURLExpiry sets how long signed download URLs stay valid.
func WithURLExpiry(expiry time.Duration) DocumentOption {
	return func(s *DocumentService) { s.urlExpiry = expiry }
}

// NewDocumentService creates the document service.
func NewDocumentService(
	fileStorage storage.Storage,
	repo repository.DocumentRepository,
	textChunker *chunker.Chunker,
	embedder *embedding.BatchProcessor,
	store retrieval.Store,
	opts ...DocumentOption,
) *DocumentService {
	s := &DocumentService{
		storage:   fileStorage,
		repo:      repo,
		chunker:   textChunker,
		embedder:  embedder,
		store:     store,
		logger:    logrus.New(),
		urlExpiry: time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.urlCache = storage.NewURLCache(fileStorage, s.urlExpiry)
	return s
}

// Upload stores the file, records the document, and kicks off
// ingestion. With a task queue configured ingestion runs in the
// background; otherwise it runs before Upload returns.
func (s *DocumentService) Upload(ctx context.Context, reader io.Reader, filename string) (*models.Document, error) {
	if _, err := document.ParserFactory(filename); err != nil {
		return nil, err
	}

	info, err := s.storage.Save(reader, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	doc := &models.Document{
		ID:       uuid.New().String(),
		FileName: filename,
		FileType: string(detectFileType(filename)),
		FilePath: info.Path,
		FileSize: info.Size,
		Status:   models.DocStatusUploaded,
		Metadata: nil,
	}
	if err := s.repo.Create(doc); err != nil {
		return nil, fmt.Errorf("failed to record document: %w", err)
	}

	if s.async {
		taskID, err := s.queue.Enqueue(ctx, taskqueue.TaskDocumentIngest, doc.ID, taskqueue.IngestPayload{
			DocumentID: doc.ID,
			FileID:     info.ID,
			FileName:   filename,
		})
		if err != nil {
			s.failDocument(doc.ID, fmt.Sprintf("failed to enqueue ingestion: %v", err))
			return nil, err
		}
		doc.CurrentTaskID = taskID
		if err := s.repo.Update(doc); err != nil {
			s.logger.WithError(err).WithField("document_id", doc.ID).Warn("failed to record task id")
		}
		return doc, nil
	}

	if err := s.IngestDocument(ctx, doc.ID, info.ID, filename); err != nil {
		return nil, err
	}
	return s.repo.GetByID(doc.ID)
}

// IngestDocument runs the pipeline for a stored file. It satisfies
// taskqueue.Ingester so queue workers can invoke it.
func (s *DocumentService) IngestDocument(ctx context.Context, documentID, fileID, fileName string) error {
	log := s.logger.WithField("document_id", documentID)

	if err := s.repo.UpdateStatus(documentID, models.DocStatusProcessing, ""); err != nil {
		return err
	}

	// A retried task must not stack on top of a partially-ingested
	// attempt, so earlier chunk rows and vectors are dropped first.
	if err := s.RemoveDocument(ctx, documentID); err != nil {
		s.failDocument(documentID, fmt.Sprintf("failed to clear previous ingestion state: %v", err))
		return err
	}

	// Parse.
	s.updateProgress(documentID, 10, models.StageParsing)
	fullText, pageCount, err := s.parseFile(fileID, fileName)
	if err != nil {
		s.failDocument(documentID, err.Error())
		return err
	}
	log.WithField("pages", pageCount).Info("document parsed")

	// Chunk.
	s.updateProgress(documentID, 30, models.StageChunking)
	chunks := s.chunker.Chunk(fullText)
	if len(chunks) == 0 {
		err := fmt.Errorf("document produced no chunks")
		s.failDocument(documentID, err.Error())
		return err
	}

	chunkRows := make([]*models.DocumentChunk, len(chunks))
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		chunkRows[i] = &models.DocumentChunk{
			DocumentID: documentID,
			ChunkID:    uuid.New().String(),
			ChunkIndex: c.ChunkIndex,
			PageNumber: c.PageNumber,
			StartIndex: c.StartIndex,
			EndIndex:   c.EndIndex,
			Content:    c.Content,
		}
		texts[i] = c.Content
	}
	if err := s.repo.SaveChunks(chunkRows); err != nil {
		s.failDocument(documentID, err.Error())
		return err
	}
	log.WithField("chunks", len(chunks)).Info("document chunked")

	// Embed. A failed batch fails the whole document; partial vectors
	// are never indexed.
	s.updateProgress(documentID, 60, models.StageEmbedding)
	vectors, err := s.embedder.Process(ctx, texts)
	if err != nil {
		s.failDocument(documentID, fmt.Sprintf("embedding failed: %v", err))
		return err
	}

	// Index.
	s.updateProgress(documentID, 90, models.StageIndexing)
	records := make([]retrieval.Record, len(chunks))
	now := time.Now()
	for i, c := range chunks {
		records[i] = retrieval.Record{
			ID:         chunkRows[i].ChunkID,
			DocumentID: documentID,
			ChunkIndex: c.ChunkIndex,
			PageNumber: c.PageNumber,
			StartIndex: c.StartIndex,
			EndIndex:   c.EndIndex,
			Text:       c.Content,
			Vector:     vectors[i],
			CreatedAt:  now,
		}
	}
	if err := s.store.AddBatch(ctx, records); err != nil {
		s.failDocument(documentID, fmt.Sprintf("indexing failed: %v", err))
		return err
	}

	// Finish.
	doc, err := s.repo.GetByID(documentID)
	if err != nil {
		return err
	}
	doc.PageCount = pageCount
	doc.ChunkCount = len(chunks)
	doc.Status = models.DocStatusCompleted
	doc.Progress = 100
	doc.CurrentStage = models.StageCompleted
	processedAt := time.Now()
	doc.ProcessedAt = &processedAt
	if err := s.repo.Update(doc); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"pages":  pageCount,
		"chunks": len(chunks),
	}).Info("document ingestion completed")
	return nil
}

// RemoveDocument drops a document's chunks and vectors, keeping the
// stored file and metadata row. Satisfies taskqueue.Ingester.
func (s *DocumentService) RemoveDocument(ctx context.Context, documentID string) error {
	if err := s.store.DeleteByDocumentID(ctx, documentID); err != nil {
		return err
	}
	return s.repo.DeleteChunks(documentID)
}

// DeleteDocument removes the document entirely: vectors, chunk rows,
// metadata, and the stored file.
func (s *DocumentService) DeleteDocument(ctx context.Context, documentID string) error {
	doc, err := s.repo.GetByID(documentID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteByDocumentID(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	if err := s.repo.Delete(documentID); err != nil {
		return fmt.Errorf("failed to delete document record: %w", err)
	}

	fileID := fileIDFromPath(doc.FilePath)
	if fileID != "" {
		if err := s.storage.Delete(fileID); err != nil {
			s.logger.WithError(err).WithField("document_id", documentID).Warn("failed to delete stored file")
		}
		s.urlCache.Evict(fileID)
	}

	return nil
}

// GetDocument fetches a document's metadata.
func (s *DocumentService) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	return s.repo.GetByID(documentID)
}

// ListDocuments returns documents with pagination and filters.
func (s *DocumentService) ListDocuments(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Document, int64, error) {
	return s.repo.List(offset, limit, filters)
}

// DownloadURL returns a signed URL for the document's source file.
func (s *DocumentService) DownloadURL(ctx context.Context, documentID string) (string, error) {
	doc, err := s.repo.GetByID(documentID)
	if err != nil {
		return "", err
	}
	fileID := fileIDFromPath(doc.FilePath)
	if fileID == "" {
		return "", storage.ErrFileNotFound
	}
	return s.urlCache.Get(fileID)
}

// WaitForIngestion blocks until the document leaves the processing
// states or the timeout passes. Useful for tests and synchronous
// clients of the async pipeline.
func (s *DocumentService) WaitForIngestion(ctx context.Context, documentID string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		doc, err := s.repo.GetByID(documentID)
		if err != nil {
			return err
		}
		switch doc.Status {
		case models.DocStatusCompleted:
			return nil
		case models.DocStatusFailed:
			return fmt.Errorf("ingestion failed: %s", doc.Error)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *DocumentService) parseFile(fileID, fileName string) (string, int, error) {
	parser, err := document.ParserFactory(fileName)
	if err != nil {
		return "", 0, err
	}

	reader, err := s.storage.Get(fileID)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open stored file: %w", err)
	}
	defer reader.Close()

	fullText, err := parser.ParseReader(reader, fileName)
	if err != nil {
		return "", 0, fmt.Errorf("failed to parse document: %w", err)
	}

	return fullText, chunker.PageCount(fullText), nil
}

func (s *DocumentService) updateProgress(documentID string, progress int, stage models.ProcessStage) {
	if err := s.repo.UpdateProgress(documentID, progress, stage); err != nil {
		s.logger.WithError(err).WithField("document_id", documentID).Warn("failed to update progress")
	}
}

func (s *DocumentService) failDocument(documentID, errorMsg string) {
	if err := s.repo.UpdateStatus(documentID, models.DocStatusFailed, errorMsg); err != nil {
		s.logger.WithError(err).WithField("document_id", documentID).Error("failed to mark document failed")
	}
}

func detectFileType(filename string) document.ContentType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return document.PDF
	case ".md", ".markdown":
		return document.Markdown
	case ".txt":
		return document.PlainText
	default:
		return document.Unknown
	}
}

// fileIDFromPath extracts the storage file ID from a stored path like
// 2026/08/30/<id>.pdf.
func fileIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
