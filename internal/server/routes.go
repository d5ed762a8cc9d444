package server

import (
	"github.com/labstack/echo/v4"

	"github.com/conceptlab/genea/internal/server/middleware"
	"github.com/conceptlab/genea/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Document routes
	apiRoutes.POST("/documents", routes.UploadDocumentHandler)
	apiRoutes.GET("/documents", routes.GetDocumentsHandler)
	apiRoutes.DELETE("/documents/:id", routes.DeleteDocumentHandler)
	apiRoutes.POST("/documents/:id/process", routes.ProcessDocumentHandler)

	// Concept routes
	apiRoutes.GET("/concepts", routes.GetConceptsHandler)
	apiRoutes.POST("/concepts/:id/analyze", routes.AnalyzeConceptHandler)

	// Graph routes
	apiRoutes.POST("/cluster", routes.ClusterHandler)
	apiRoutes.POST("/query", routes.QueryHandler)
}
