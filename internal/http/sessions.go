package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexmk/bookshelf/internal/database/progress"
)

type SessionsController struct {
	store SessionStore
}

func NewSessionsController(store SessionStore) *SessionsController {
	return &SessionsController{store: store}
}

// ListSessions handles GET /api/reading-sessions. An optional book_id
// query parameter scopes the history to one book; without it the listing
// is capped to the most recent entries.
func (controller *SessionsController) ListSessions(c *gin.Context) {
	userID := GetUserID(c)

	var bookID uint
	if raw := c.Query("book_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondBadRequest(c, "invalid book_id")
			return
		}
		bookID = uint(parsed)
	}

	sessions, err := controller.store.ListSessions(userID, bookID)
	if err != nil {
		respondInternalError(c, err, "fetch sessions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

type recordSessionRequest struct {
	BookID    uint       `json:"book_id"`
	StartPage *int       `json:"start_page"`
	EndPage   *int       `json:"end_page"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Notes     string     `json:"notes"`
}

// RecordSession handles POST /api/reading-sessions, appending one
// immutable session row and chaining into the progress upsert when an end
// page is supplied.
func (controller *SessionsController) RecordSession(c *gin.Context) {
	userID := GetUserID(c)

	var req recordSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.BookID == 0 {
		respondBadRequest(c, "book_id is required")
		return
	}
	if req.StartPage != nil && *req.StartPage < 0 {
		respondBadRequest(c, "start_page must not be negative")
		return
	}
	if req.EndPage != nil && *req.EndPage < 0 {
		respondBadRequest(c, "end_page must not be negative")
		return
	}

	session, err := controller.store.RecordSession(req.BookID, userID, progress.SessionInput{
		StartPage: req.StartPage,
		EndPage:   req.EndPage,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Notes:     req.Notes,
	})
	if err != nil {
		if errors.Is(err, progress.ErrBookRequired) {
			respondBadRequest(c, "book_id is required")
			return
		}
		respondInternalError(c, err, "create session")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}
