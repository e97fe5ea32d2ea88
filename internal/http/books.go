package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/alexmk/bookshelf/internal/database/books"
	"github.com/alexmk/bookshelf/internal/entities"
)

type BooksController struct {
	store BookStore
}

func NewBooksController(store BookStore) *BooksController {
	return &BooksController{store: store}
}

// ListBooks handles GET /api/books with optional status, search, and sort
// query parameters.
func (controller *BooksController) ListBooks(c *gin.Context) {
	userID := GetUserID(c)

	filter := books.ListFilter{
		Status:    c.Query("status"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	list, err := controller.store.ListBooks(userID, filter)
	if err != nil {
		respondInternalError(c, err, "fetch books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": list})
}

type createBookRequest struct {
	Title            string     `json:"title"`
	Author           string     `json:"author"`
	ISBN             string     `json:"isbn"`
	Publisher        string     `json:"publisher"`
	PublicationYear  int        `json:"publication_year"`
	Genre            string     `json:"genre"`
	CoverImageURL    string     `json:"cover_image_url"`
	PageCount        int        `json:"page_count"`
	Description      string     `json:"description"`
	Language         string     `json:"language"`
	Format           string     `json:"format"`
	Condition        string     `json:"condition"`
	PhysicalLocation string     `json:"physical_location"`
	DateAcquired     *time.Time `json:"date_acquired"`
	Status           string     `json:"status"`
	Tags             []string   `json:"tags"`
}

// CreateBook handles POST /api/books.
func (controller *BooksController) CreateBook(c *gin.Context) {
	userID := GetUserID(c)

	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respondBadRequest(c, "Title is required")
		return
	}

	book := entities.Book{
		UserID:           userID,
		Title:            req.Title,
		Author:           req.Author,
		ISBN:             req.ISBN,
		Publisher:        req.Publisher,
		PublicationYear:  req.PublicationYear,
		Genre:            req.Genre,
		CoverImageURL:    req.CoverImageURL,
		PageCount:        req.PageCount,
		Description:      req.Description,
		Language:         req.Language,
		Format:           req.Format,
		Condition:        req.Condition,
		PhysicalLocation: req.PhysicalLocation,
		DateAcquired:     req.DateAcquired,
		Status:           entities.BookStatus(req.Status),
	}

	created, err := controller.store.CreateBook(&book, req.Tags)
	if err != nil {
		if errors.Is(err, books.ErrInvalidStatus) {
			respondBadRequest(c, "invalid book status")
			return
		}
		respondInternalError(c, err, "create book")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"book": created})
}

// GetBook handles GET /api/books/:id, returning the book with its tags and
// progress attached.
func (controller *BooksController) GetBook(c *gin.Context) {
	userID := GetUserID(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.store.GetBookByID(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "Book")
			return
		}
		respondInternalError(c, err, "fetch book")
		return
	}
	c.JSON(http.StatusOK, gin.H{"book": book})
}

type updateBookRequest struct {
	Title            *string    `json:"title"`
	Author           *string    `json:"author"`
	ISBN             *string    `json:"isbn"`
	Publisher        *string    `json:"publisher"`
	PublicationYear  *int       `json:"publication_year"`
	Genre            *string    `json:"genre"`
	CoverImageURL    *string    `json:"cover_image_url"`
	PageCount        *int       `json:"page_count"`
	Description      *string    `json:"description"`
	Language         *string    `json:"language"`
	Format           *string    `json:"format"`
	Condition        *string    `json:"condition"`
	PhysicalLocation *string    `json:"physical_location"`
	DateAcquired     *time.Time `json:"date_acquired"`
	Status           *string    `json:"status"`
	IsFavorite       *bool      `json:"is_favorite"`
	Tags             *[]string  `json:"tags"`
}

// UpdateBook handles PATCH /api/books/:id. Only supplied fields change; a
// supplied tag list replaces the whole tag set.
func (controller *BooksController) UpdateBook(c *gin.Context) {
	userID := GetUserID(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	patch := books.BookPatch{
		Title:            req.Title,
		Author:           req.Author,
		ISBN:             req.ISBN,
		Publisher:        req.Publisher,
		PublicationYear:  req.PublicationYear,
		Genre:            req.Genre,
		CoverImageURL:    req.CoverImageURL,
		PageCount:        req.PageCount,
		Description:      req.Description,
		Language:         req.Language,
		Format:           req.Format,
		Condition:        req.Condition,
		PhysicalLocation: req.PhysicalLocation,
		DateAcquired:     req.DateAcquired,
		IsFavorite:       req.IsFavorite,
		Tags:             req.Tags,
	}
	if req.Status != nil {
		status := entities.BookStatus(*req.Status)
		patch.Status = &status
	}

	updated, err := controller.store.UpdateBook(id, userID, patch)
	if err != nil {
		switch {
		case errors.Is(err, books.ErrNoFields):
			respondBadRequest(c, "No fields to update")
		case errors.Is(err, books.ErrInvalidStatus):
			respondBadRequest(c, "invalid book status")
		case errors.Is(err, gorm.ErrRecordNotFound):
			respondNotFound(c, "Book")
		default:
			respondInternalError(c, err, "update book")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"book": updated})
}

// DeleteBook handles DELETE /api/books/:id.
func (controller *BooksController) DeleteBook(c *gin.Context) {
	userID := GetUserID(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.store.DeleteBook(id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "Book")
			return
		}
		respondInternalError(c, err, "delete book")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// GetStats handles GET /api/books/stats.
func (controller *BooksController) GetStats(c *gin.Context) {
	userID := GetUserID(c)

	stats, err := controller.store.GetStats(userID)
	if err != nil {
		respondInternalError(c, err, "fetch stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
