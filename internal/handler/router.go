package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// Route paths.
const (
	PathForward     = "/v1/udfs/chatgpt/forward"
	PathDescriptors = "/v1/udfs"
	PathModels      = "/v1/models"
	PathHealth      = "/health"
)

// NewRouter builds the gin engine with middleware and routes registered.
func NewRouter(h *UDFHandler, logger *slog.Logger) *gin.Engine {
	router := gin.New()

	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(CORSMiddleware())
	router.Use(StripAuthHeadersMiddleware())
	router.Use(LoggingMiddleware(logger, h.console))

	router.POST(PathForward, h.HandleForward)
	router.GET(PathDescriptors, h.HandleDescriptors)
	router.GET(PathModels, h.HandleModels)
	router.GET(PathHealth, h.HandleHealth)

	return router
}
