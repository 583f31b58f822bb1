package api

import (
	"github.com/gin-gonic/gin"

	"github.com/readly-ai/readly/api/handler"
	"github.com/readly-ai/readly/api/middleware"
)

// SetupRouter wires the API endpoints and global middleware.
func SetupRouter(
	docHandler *handler.DocumentHandler,
	chatHandler *handler.ChatHandler,
	qaHandler *handler.QAHandler,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetTraceID())

	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestBodyLog())
	}

	api := router.Group("/api")
	{
		docGroup := api.Group("/documents")
		{
			// Upload a document - POST /api/documents
			docGroup.POST("", docHandler.UploadDocument)

			// List documents - GET /api/documents
			docGroup.GET("", docHandler.ListDocuments)

			// Fetch document metadata - GET /api/documents/:id
			docGroup.GET("/:id", docHandler.GetDocument)

			// Check ingestion progress - GET /api/documents/:id/status
			docGroup.GET("/:id/status", docHandler.GetDocumentStatus)

			// Signed download URL - GET /api/documents/:id/download
			docGroup.GET("/:id/download", docHandler.GetDownloadURL)

			// Delete a document - DELETE /api/documents/:id
			docGroup.DELETE("/:id", docHandler.DeleteDocument)
		}

		sessionGroup := api.Group("/sessions")
		{
			// Open a chat session - POST /api/sessions
			sessionGroup.POST("", chatHandler.CreateSession)

			// List sessions - GET /api/sessions
			sessionGroup.GET("", chatHandler.ListSessions)

			// Fetch a session - GET /api/sessions/:id
			sessionGroup.GET("/:id", chatHandler.GetSession)

			// Ask a question - POST /api/sessions/:id/messages
			sessionGroup.POST("/:id/messages", chatHandler.Ask)

			// Message history - GET /api/sessions/:id/messages
			sessionGroup.GET("/:id/messages", chatHandler.History)

			// Delete a session - DELETE /api/sessions/:id
			sessionGroup.DELETE("/:id", chatHandler.DeleteSession)
		}

		// One-shot QA without a session - POST /api/qa
		api.POST("/qa", qaHandler.AnswerQuestion)

		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})
	}

	return router
}

// Cors allows cross-origin requests when a browser frontend is served
// from another origin.
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
