// Package books provides database operations for book and tag management.
//
// This package implements the BookStore interface defined in
// internal/http/stores.go.
//
// # Interface Implementation
//
//	var _ http.BookStore = (*Repository)(nil)
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBookByID(123, userID)
package books

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/alexmk/bookshelf/internal/entities"
)

// ErrNoFields is returned when an update patch contains nothing to change.
var ErrNoFields = errors.New("no fields to update")

// ErrInvalidStatus is returned when a patch carries an unknown book status
// or a transition the policy table rejects.
var ErrInvalidStatus = errors.New("invalid book status")

// Repository handles all book and tag database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListFilter narrows and orders a book listing.
type ListFilter struct {
	Status    string
	Search    string
	SortBy    string
	SortOrder string
}

// sortColumns is the allow-list for dynamic ordering. Anything else falls
// back to the default so user input never reaches the ORDER BY clause.
var sortColumns = map[string]bool{
	"title":      true,
	"author":     true,
	"date_added": true,
	"status":     true,
	"updated_at": true,
}

func (f ListFilter) orderClause() string {
	column := f.SortBy
	if !sortColumns[column] {
		column = "date_added"
	}
	order := "DESC"
	if strings.EqualFold(f.SortOrder, "ASC") {
		order = "ASC"
	}
	return column + " " + order
}

// ListBooks retrieves all books owned by a user, filtered and ordered.
// The search filter is a case-insensitive substring match on title or
// author; the status filter is an exact match.
func (r *Repository) ListBooks(userID string, filter ListFilter) ([]entities.Book, error) {
	query := r.db.Where("user_id = ?", userID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?)", pattern, pattern)
	}

	var books []entities.Book
	err := query.Order(filter.orderClause()).Find(&books).Error
	return books, err
}

// CreateBook inserts a book with its tags in one transaction. A blank
// title is replaced with the default. When the book arrives already in
// reading status with a known page count, an initial progress row is
// created alongside it.
func (r *Repository) CreateBook(book *entities.Book, tags []string) (*entities.Book, error) {
	if strings.TrimSpace(book.Title) == "" {
		book.Title = entities.DefaultTitle
	}
	if book.Status == "" {
		book.Status = entities.StatusUnread
	}
	if !book.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if book.Language == "" {
		book.Language = "en"
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(book).Error; err != nil {
			return err
		}
		for _, tag := range tags {
			if err := tx.Create(&entities.BookTag{BookID: book.ID, Tag: tag}).Error; err != nil {
				return err
			}
		}
		if book.Status == entities.StatusReading && book.PageCount > 0 {
			now := time.Now()
			progress := entities.ReadingProgress{
				BookID:     book.ID,
				UserID:     book.UserID,
				TotalPages: book.PageCount,
				StartedAt:  &now,
			}
			if err := tx.Create(&progress).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	book.Tags = tags
	return book, nil
}

// GetBookByID retrieves a book owned by the user with its tags and
// progress attached. Returns gorm.ErrRecordNotFound when the book does
// not exist or belongs to someone else.
func (r *Repository) GetBookByID(id uint, userID string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&book).Error
	if err != nil {
		return nil, err
	}

	tags, err := r.tagsForBook(r.db, id)
	if err != nil {
		return nil, err
	}
	book.Tags = tags

	var progress entities.ReadingProgress
	err = r.db.Where("book_id = ? AND user_id = ?", id, userID).First(&progress).Error
	if err == nil {
		book.Progress = &progress
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return &book, nil
}

// BookPatch is a typed partial update: only non-nil fields change.
type BookPatch struct {
	Title            *string
	Author           *string
	ISBN             *string
	Publisher        *string
	PublicationYear  *int
	Genre            *string
	CoverImageURL    *string
	PageCount        *int
	Description      *string
	Language         *string
	Format           *string
	Condition        *string
	PhysicalLocation *string
	DateAcquired     *time.Time
	Status           *entities.BookStatus
	IsFavorite       *bool

	// Tags, when non-nil, replaces the whole tag set for the book.
	Tags *[]string
}

// fields translates the patch into a column map for a single parameterized
// UPDATE. Column names are fixed here; values only ever travel as bindings.
func (p BookPatch) fields() map[string]any {
	updates := make(map[string]any)
	if p.Title != nil {
		updates["title"] = *p.Title
	}
	if p.Author != nil {
		updates["author"] = *p.Author
	}
	if p.ISBN != nil {
		updates["isbn"] = *p.ISBN
	}
	if p.Publisher != nil {
		updates["publisher"] = *p.Publisher
	}
	if p.PublicationYear != nil {
		updates["publication_year"] = *p.PublicationYear
	}
	if p.Genre != nil {
		updates["genre"] = *p.Genre
	}
	if p.CoverImageURL != nil {
		updates["cover_image_url"] = *p.CoverImageURL
	}
	if p.PageCount != nil {
		updates["page_count"] = *p.PageCount
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.Language != nil {
		updates["language"] = *p.Language
	}
	if p.Format != nil {
		updates["format"] = *p.Format
	}
	if p.Condition != nil {
		updates["condition"] = *p.Condition
	}
	if p.PhysicalLocation != nil {
		updates["physical_location"] = *p.PhysicalLocation
	}
	if p.DateAcquired != nil {
		updates["date_acquired"] = *p.DateAcquired
	}
	if p.Status != nil {
		updates["status"] = *p.Status
	}
	if p.IsFavorite != nil {
		updates["is_favorite"] = *p.IsFavorite
	}
	return updates
}

// UpdateBook applies a partial update to a book owned by the user. Field
// changes and tag replacement run in the same transaction so a failure
// cannot leave the tag set out of sync with the book. Returns the updated
// book with tags attached.
func (r *Repository) UpdateBook(id uint, userID string, patch BookPatch) (*entities.Book, error) {
	updates := patch.fields()
	if len(updates) == 0 && patch.Tags == nil {
		return nil, ErrNoFields
	}

	var book entities.Book
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&book).Error; err != nil {
			return err
		}

		if patch.Status != nil {
			if !patch.Status.IsValid() || !entities.CanTransition(book.Status, *patch.Status) {
				return ErrInvalidStatus
			}
		}

		if len(updates) > 0 {
			updates["updated_at"] = time.Now()
			if err := tx.Model(&entities.Book{}).
				Where("id = ? AND user_id = ?", id, userID).
				Updates(updates).Error; err != nil {
				return err
			}
		}

		if patch.Tags != nil {
			if err := tx.Where("book_id = ?", id).Delete(&entities.BookTag{}).Error; err != nil {
				return err
			}
			for _, tag := range *patch.Tags {
				if err := tx.Create(&entities.BookTag{BookID: id, Tag: tag}).Error; err != nil {
					return err
				}
			}
		}

		return tx.Where("id = ?", id).First(&book).Error
	})
	if err != nil {
		return nil, err
	}

	tags, err := r.tagsForBook(r.db, id)
	if err != nil {
		return nil, err
	}
	book.Tags = tags
	return &book, nil
}

// SetBookStatus moves a book to a new status outside the page-progress
// pipeline (manual "start reading", "mark as lent"). Only the status field
// changes; the transition table is consulted like any other status update.
func (r *Repository) SetBookStatus(id uint, userID string, status entities.BookStatus) (*entities.Book, error) {
	return r.UpdateBook(id, userID, BookPatch{Status: &status})
}

// DeleteBook removes a book and, in the same transaction, its tags,
// progress, and sessions. The schema enforces no cascade; the cleanup is
// explicit here.
func (r *Repository) DeleteBook(id uint, userID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&book).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.BookTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.ReadingProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.ReadingSession{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Book{}, id).Error
	})
}

func (r *Repository) tagsForBook(db *gorm.DB, bookID uint) ([]string, error) {
	var rows []entities.BookTag
	if err := db.Where("book_id = ?", bookID).Order("tag ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(rows))
	for _, row := range rows {
		tags = append(tags, row.Tag)
	}
	return tags, nil
}

// NameCount pairs a grouped column value with its occurrence count.
type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// LibraryStats aggregates a user's library for the dashboard.
type LibraryStats struct {
	Total            int64                         `json:"total"`
	ByStatus         map[entities.BookStatus]int64 `json:"by_status"`
	CurrentlyReading []entities.Book               `json:"currently_reading"`
	RecentBooks      []entities.Book               `json:"recent_books"`
	FavoriteBooks    []entities.Book               `json:"favorite_books"`
	TopGenres        []NameCount                   `json:"top_genres"`
	TopAuthors       []NameCount                   `json:"top_authors"`
}

// GetStats computes aggregate library statistics for a user: counts by
// status (zero-filled for every known status), the five most recently
// updated currently-reading books with progress attached, recent
// additions, favorites, and top genres and authors.
func (r *Repository) GetStats(userID string) (*LibraryStats, error) {
	stats := &LibraryStats{
		ByStatus: make(map[entities.BookStatus]int64, len(entities.AllStatuses)),
	}
	for _, status := range entities.AllStatuses {
		stats.ByStatus[status] = 0
	}

	if err := r.db.Model(&entities.Book{}).Where("user_id = ?", userID).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	var counts []struct {
		Status entities.BookStatus
		Count  int64
	}
	err := r.db.Model(&entities.Book{}).
		Select("status, COUNT(*) as count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		stats.ByStatus[c.Status] = c.Count
	}

	err = r.db.Table("books").
		Select("books.*").
		Joins("LEFT JOIN reading_progress ON reading_progress.book_id = books.id AND reading_progress.user_id = books.user_id").
		Where("books.user_id = ? AND books.status = ?", userID, entities.StatusReading).
		Order("reading_progress.updated_at DESC").
		Limit(5).
		Find(&stats.CurrentlyReading).Error
	if err != nil {
		return nil, err
	}
	for i := range stats.CurrentlyReading {
		var progress entities.ReadingProgress
		err := r.db.Where("book_id = ? AND user_id = ?", stats.CurrentlyReading[i].ID, userID).
			First(&progress).Error
		if err == nil {
			stats.CurrentlyReading[i].Progress = &progress
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	err = r.db.Where("user_id = ?", userID).
		Order("date_added DESC").
		Limit(5).
		Find(&stats.RecentBooks).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Where("user_id = ? AND is_favorite = ?", userID, true).
		Order("updated_at DESC").
		Limit(5).
		Find(&stats.FavoriteBooks).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&entities.Book{}).
		Select("genre as name, COUNT(*) as count").
		Where("user_id = ? AND genre <> ''", userID).
		Group("genre").
		Order("count DESC").
		Limit(5).
		Scan(&stats.TopGenres).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&entities.Book{}).
		Select("author as name, COUNT(*) as count").
		Where("user_id = ? AND author <> ''", userID).
		Group("author").
		Order("count DESC").
		Limit(5).
		Scan(&stats.TopAuthors).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}
