package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/readly-ai/readly/api/middleware"
	"github.com/readly-ai/readly/api/model"
	"github.com/readly-ai/readly/internal/services"
)

// ChatHandler serves the chat session and question answering endpoints.
type ChatHandler struct {
	chatService *services.ChatService
	logger      *logrus.Logger
}

// NewChatHandler creates the chat handler.
func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      middleware.GetLogger(),
	}
}

// CreateSession opens a chat session over a completed document.
// POST /api/sessions
func (h *ChatHandler) CreateSession(c *gin.Context) {
	var req model.SessionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"invalid request: document_id is required",
		))
		return
	}

	session, err := h.chatService.StartSession(c.Request.Context(), req.DocumentID, req.Title)
	if err != nil {
		h.logger.WithError(err).WithField("document_id", req.DocumentID).Warn("Failed to start chat session")
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.ToSessionInfo(session)))
}

// ListSessions pages sessions, optionally scoped to a document.
// GET /api/sessions
func (h *ChatHandler) ListSessions(c *gin.Context) {
	var req model.SessionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid query parameters"))
		return
	}

	sessions, total, err := h.chatService.ListSessions(c.Request.Context(), req.Offset(), req.GetPageSize(), req.DocumentID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	resp := model.SessionListResponse{
		Total:    total,
		Page:     req.GetPage(),
		PageSize: req.GetPageSize(),
		Sessions: make([]model.SessionInfo, len(sessions)),
	}
	for i, session := range sessions {
		resp.Sessions[i] = model.ToSessionInfo(session)
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// GetSession returns one session's metadata.
// GET /api/sessions/:id
func (h *ChatHandler) GetSession(c *gin.Context) {
	var req model.SessionIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid session id"))
		return
	}

	session, err := h.chatService.GetSession(c.Request.Context(), req.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.ToSessionInfo(session)))
}

// Ask answers a question within a session.
// POST /api/sessions/:id/messages
func (h *ChatHandler) Ask(c *gin.Context) {
	var uriReq model.SessionIDRequest
	if err := c.ShouldBindUri(&uriReq); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid session id"))
		return
	}

	var req model.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"invalid request: question is required",
		))
		return
	}

	answer, err := h.chatService.Ask(c.Request.Context(), uriReq.ID, req.Question)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"session_id": uriReq.ID,
		}).Error("Failed to answer question")
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.ToAnswerResponse(answer)))
}

// History pages a session's messages in chronological order.
// GET /api/sessions/:id/messages
func (h *ChatHandler) History(c *gin.Context) {
	var uriReq model.SessionIDRequest
	if err := c.ShouldBindUri(&uriReq); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid session id"))
		return
	}

	var req model.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid query parameters"))
		return
	}

	messages, total, err := h.chatService.History(c.Request.Context(), uriReq.ID, req.Offset(), req.GetPageSize())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	resp := model.HistoryResponse{
		SessionID: uriReq.ID,
		Total:     total,
		Page:      req.GetPage(),
		PageSize:  req.GetPageSize(),
		Messages:  make([]model.MessageInfo, len(messages)),
	}
	for i, message := range messages {
		resp.Messages[i] = model.ToMessageInfo(message)
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// DeleteSession removes a session and its messages.
// DELETE /api/sessions/:id
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	var req model.SessionIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid session id"))
		return
	}

	if err := h.chatService.DeleteSession(c.Request.Context(), req.ID); err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.DeleteResponse{
		Success: true,
		ID:      req.ID,
	}))
}
