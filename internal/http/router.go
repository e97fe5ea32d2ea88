package http

import (
	"github.com/gin-gonic/gin"

	"github.com/alexmk/bookshelf/internal/auth"
	"github.com/alexmk/bookshelf/internal/database"
)

// RouterConfig carries all dependencies the router needs, improving
// testability and reducing parameter count.
type RouterConfig struct {
	Database      *database.Database
	BookStore     BookStore
	ProgressStore ProgressStore
	SessionStore  SessionStore
	Catalog       CatalogSearcher
	Version       string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(RequestLogMiddleware())

	// Create controllers with appropriate interfaces
	health := NewHealthController(cfg.Database, cfg.Catalog != nil, cfg.Version)
	booksController := NewBooksController(cfg.BookStore)
	progressController := NewProgressController(cfg.ProgressStore)
	sessionsController := NewSessionsController(cfg.SessionStore)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Everything under /api requires the upstream identity header
	api := router.Group("/api")
	api.Use(auth.RequireUser())

	// Books API endpoints
	api.GET("/books", booksController.ListBooks)
	api.POST("/books", booksController.CreateBook)
	api.GET("/books/stats", booksController.GetStats)
	api.GET("/books/:id", booksController.GetBook)
	api.PATCH("/books/:id", booksController.UpdateBook)
	api.DELETE("/books/:id", booksController.DeleteBook)

	// Catalog search proxy
	if cfg.Catalog != nil {
		catalogController := NewCatalogController(cfg.Catalog)
		api.GET("/books/search", catalogController.SearchBooks)
	}

	// Reading progress endpoints
	api.GET("/reading-progress", progressController.ListProgress)
	api.POST("/reading-progress", progressController.UpsertProgress)

	// Reading session endpoints
	api.GET("/reading-sessions", sessionsController.ListSessions)
	api.POST("/reading-sessions", sessionsController.RecordSession)

	return router
}
