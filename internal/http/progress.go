package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexmk/bookshelf/internal/database/progress"
)

type ProgressController struct {
	store ProgressStore
}

func NewProgressController(store ProgressStore) *ProgressController {
	return &ProgressController{store: store}
}

// ListProgress handles GET /api/reading-progress, returning every progress
// row for the caller joined with book title, author, and cover.
func (controller *ProgressController) ListProgress(c *gin.Context) {
	userID := GetUserID(c)

	rows, err := controller.store.ListProgressForUser(userID)
	if err != nil {
		respondInternalError(c, err, "fetch progress")
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": rows})
}

type upsertProgressRequest struct {
	BookID               uint       `json:"book_id"`
	CurrentPage          *int       `json:"current_page"`
	TotalPages           *int       `json:"total_pages"`
	TargetCompletionDate *time.Time `json:"target_completion_date"`
}

// UpsertProgress handles POST /api/reading-progress. A partial update of
// the caller's single progress row for the book; creates it when absent.
func (controller *ProgressController) UpsertProgress(c *gin.Context) {
	userID := GetUserID(c)

	var req upsertProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.BookID == 0 {
		respondBadRequest(c, "book_id is required")
		return
	}
	if req.CurrentPage != nil && *req.CurrentPage < 0 {
		respondBadRequest(c, "current_page must not be negative")
		return
	}
	if req.TotalPages != nil && *req.TotalPages < 0 {
		respondBadRequest(c, "total_pages must not be negative")
		return
	}

	row, err := controller.store.UpsertProgress(req.BookID, userID, progress.ProgressPatch{
		CurrentPage:          req.CurrentPage,
		TotalPages:           req.TotalPages,
		TargetCompletionDate: req.TargetCompletionDate,
	})
	if err != nil {
		if errors.Is(err, progress.ErrBookRequired) {
			respondBadRequest(c, "book_id is required")
			return
		}
		respondInternalError(c, err, "update progress")
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": row})
}
