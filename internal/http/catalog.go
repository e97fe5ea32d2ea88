package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alexmk/bookshelf/internal/catalog"
)

// CatalogSearcher is the external book-catalog lookup used by the
// add-book flow.
type CatalogSearcher interface {
	Search(ctx context.Context, query string) ([]catalog.Book, error)
}

type CatalogController struct {
	searcher CatalogSearcher
}

func NewCatalogController(searcher CatalogSearcher) *CatalogController {
	return &CatalogController{searcher: searcher}
}

// SearchBooks handles GET /api/books/search?q=. Upstream failures are
// logged and surface as a generic 500; the caller retries if it wants to.
func (controller *CatalogController) SearchBooks(c *gin.Context) {
	query := c.Query("q")
	if strings.TrimSpace(query) == "" {
		respondBadRequest(c, "Search query is required")
		return
	}

	results, err := controller.searcher.Search(c.Request.Context(), query)
	if err != nil {
		respondInternalError(c, err, "search books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": results})
}
