package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/readly-ai/readly/api/middleware"
	"github.com/readly-ai/readly/api/model"
	"github.com/readly-ai/readly/internal/services"
)

// QAHandler serves one-shot question answering, outside any session.
type QAHandler struct {
	qaService *services.QAService
	logger    *logrus.Logger
}

// NewQAHandler creates the QA handler.
func NewQAHandler(qaService *services.QAService) *QAHandler {
	return &QAHandler{
		qaService: qaService,
		logger:    middleware.GetLogger(),
	}
}

// AnswerQuestion answers a question about a document without opening a
// session; nothing is persisted.
// POST /api/qa
func (h *QAHandler) AnswerQuestion(c *gin.Context) {
	var req model.QARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"invalid request: document_id and question are required",
		))
		return
	}

	answer, err := h.qaService.Answer(c.Request.Context(), req.DocumentID, req.Question)
	if err != nil {
		h.logger.WithError(err).WithField("document_id", req.DocumentID).Error("Failed to answer question")
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.ToAnswerResponse(answer)))
}
