// Package progress implements the reading-progress engine: it keeps
// books.status, reading_progress, and reading_sessions mutually consistent
// under partial, idempotent client updates.
//
// This package implements the ProgressStore and SessionStore interfaces
// defined in internal/http/stores.go.
//
// # Invariants
//
//   - progress_percentage = clamp(0, 100, 100*current_page/total_pages),
//     0 when total_pages is zero. When the client never supplies
//     total_pages, it falls back to the parent book's page_count.
//   - At most one reading_progress row per (book_id, user_id); the second
//     upsert updates the first.
//   - completed_at is set exactly once, on the first crossing of 100%.
//   - First progress creation moves the book to "reading"; the first
//     crossing of 100% moves it to "read".
//
// Both the progress write and the book-status side effect run inside one
// transaction, so a failure cannot leave the status stale relative to the
// progress row.
package progress

import (
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/alexmk/bookshelf/internal/entities"
)

// ErrBookRequired is returned when an operation is missing its book id.
var ErrBookRequired = errors.New("book_id is required")

// Repository handles reading progress and session database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new progress repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ComputePercentage derives the completion percentage from a page position.
// The result is clamped to [0, 100]; a zero or negative total yields 0.
// A current page beyond the total is accepted, only the output is clamped.
func ComputePercentage(currentPage, totalPages int) float64 {
	if totalPages <= 0 {
		return 0
	}
	pct := float64(currentPage) / float64(totalPages) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// DurationMinutes returns the whole-minute duration between two times,
// rounded to nearest, or nil when either time is missing.
func DurationMinutes(start, end *time.Time) *int {
	if start == nil || end == nil {
		return nil
	}
	minutes := int(math.Round(end.Sub(*start).Minutes()))
	return &minutes
}

// ProgressPatch is a typed partial update for a progress row: only non-nil
// fields change, unsupplied fields retain their prior values.
type ProgressPatch struct {
	CurrentPage          *int
	TotalPages           *int
	TargetCompletionDate *time.Time
}

// UpsertProgress creates or partially updates the single progress row for
// (bookID, userID).
//
// When no row exists, one is created with current_page defaulting to 0 and
// started_at set to now, and the parent book moves to "reading". When a row
// exists, only supplied fields change, the percentage is recomputed from
// the resulting page values, and on the first crossing of 100% the row's
// completed_at is stamped and the parent book moves to "read". An update
// for a pair with no row takes the create path rather than erroring.
//
// A total_pages that resolves to zero falls back to the parent book's
// page_count, so progress against a book with a known length works without
// the client repeating the length on every write.
func (r *Repository) UpsertProgress(bookID uint, userID string, patch ProgressPatch) (*entities.ReadingProgress, error) {
	if bookID == 0 {
		return nil, ErrBookRequired
	}

	var row entities.ReadingProgress
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("book_id = ? AND user_id = ?", bookID, userID).First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return r.createProgress(tx, bookID, userID, patch, &row)
		case err != nil:
			return err
		default:
			return r.updateProgress(tx, patch, &row)
		}
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) createProgress(tx *gorm.DB, bookID uint, userID string, patch ProgressPatch, row *entities.ReadingProgress) error {
	now := time.Now()
	*row = entities.ReadingProgress{
		BookID:               bookID,
		UserID:               userID,
		StartedAt:            &now,
		TargetCompletionDate: patch.TargetCompletionDate,
	}
	if patch.CurrentPage != nil {
		row.CurrentPage = *patch.CurrentPage
	}
	if patch.TotalPages != nil {
		row.TotalPages = *patch.TotalPages
	}
	if row.TotalPages <= 0 {
		pageCount, err := bookPageCount(tx, bookID, userID)
		if err != nil {
			return err
		}
		row.TotalPages = pageCount
	}
	row.ProgressPercentage = ComputePercentage(row.CurrentPage, row.TotalPages)

	if err := tx.Create(row).Error; err != nil {
		return err
	}
	return r.setBookStatus(tx, bookID, userID, entities.StatusReading)
}

func (r *Repository) updateProgress(tx *gorm.DB, patch ProgressPatch, row *entities.ReadingProgress) error {
	if patch.CurrentPage != nil {
		row.CurrentPage = *patch.CurrentPage
	}
	if patch.TotalPages != nil {
		row.TotalPages = *patch.TotalPages
	}
	if patch.TargetCompletionDate != nil {
		row.TargetCompletionDate = patch.TargetCompletionDate
	}
	if row.TotalPages <= 0 {
		pageCount, err := bookPageCount(tx, row.BookID, row.UserID)
		if err != nil {
			return err
		}
		row.TotalPages = pageCount
	}
	row.ProgressPercentage = ComputePercentage(row.CurrentPage, row.TotalPages)
	row.UpdatedAt = time.Now()

	completed := false
	if row.ProgressPercentage >= 100 && row.CompletedAt == nil {
		now := time.Now()
		row.CompletedAt = &now
		completed = true
	}

	if err := tx.Save(row).Error; err != nil {
		return err
	}
	if completed {
		return r.setBookStatus(tx, row.BookID, row.UserID, entities.StatusRead)
	}
	return nil
}

// bookPageCount reads the parent book's page count inside the transaction,
// 0 when the book is unknown.
func bookPageCount(tx *gorm.DB, bookID uint, userID string) (int, error) {
	var book entities.Book
	err := tx.Select("page_count").Where("id = ? AND user_id = ?", bookID, userID).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return book.PageCount, nil
}

func (r *Repository) setBookStatus(tx *gorm.DB, bookID uint, userID string, status entities.BookStatus) error {
	return tx.Model(&entities.Book{}).
		Where("id = ? AND user_id = ?", bookID, userID).
		Updates(map[string]any{"status": status, "updated_at": time.Now()}).Error
}

// SessionInput carries the optional fields of a new reading session.
type SessionInput struct {
	StartPage *int
	EndPage   *int
	StartTime *time.Time
	EndTime   *time.Time
	Notes     string
}

// RecordSession appends one immutable session row. When both times are
// present the duration is derived in whole minutes, otherwise it stays
// null. When an end page is supplied and the book has a known page count,
// the session chains into UpsertProgress with the end page as the current
// page, producing the usual status side effects; otherwise progress is
// left untouched.
func (r *Repository) RecordSession(bookID uint, userID string, input SessionInput) (*entities.ReadingSession, error) {
	if bookID == 0 {
		return nil, ErrBookRequired
	}

	session := entities.ReadingSession{
		BookID:          bookID,
		UserID:          userID,
		StartPage:       input.StartPage,
		EndPage:         input.EndPage,
		StartTime:       input.StartTime,
		EndTime:         input.EndTime,
		DurationMinutes: DurationMinutes(input.StartTime, input.EndTime),
		Notes:           input.Notes,
	}
	if err := r.db.Create(&session).Error; err != nil {
		return nil, err
	}

	if input.EndPage != nil {
		var book entities.Book
		err := r.db.Where("id = ? AND user_id = ?", bookID, userID).First(&book).Error
		if err == nil && book.PageCount > 0 {
			endPage := *input.EndPage
			totalPages := book.PageCount
			_, err = r.UpsertProgress(bookID, userID, ProgressPatch{
				CurrentPage: &endPage,
				TotalPages:  &totalPages,
			})
			if err != nil {
				return nil, err
			}
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return &session, nil
}

// GetProgress retrieves the progress row for one (book, user) pair.
func (r *Repository) GetProgress(bookID uint, userID string) (*entities.ReadingProgress, error) {
	var row entities.ReadingProgress
	err := r.db.Where("book_id = ? AND user_id = ?", bookID, userID).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListProgressForUser retrieves all progress rows for a user, most recently
// updated first, with the book's title, author, and cover attached.
func (r *Repository) ListProgressForUser(userID string) ([]entities.ReadingProgress, error) {
	var rows []entities.ReadingProgress
	err := r.db.Where("user_id = ?", userID).Order("updated_at DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	books, err := r.booksByID(collectBookIDs(rowsBookIDs(rows)))
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if book, ok := books[rows[i].BookID]; ok {
			rows[i].Title = book.Title
			rows[i].Author = book.Author
			rows[i].CoverImageURL = book.CoverImageURL
		}
	}
	return rows, nil
}

// unscopedSessionLimit caps the session listing when no book filter is given.
const unscopedSessionLimit = 50

// ListSessions retrieves a user's session history newest-first, scoped to
// one book when bookID is non-zero and capped otherwise. Book title and
// author are attached to each row.
func (r *Repository) ListSessions(userID string, bookID uint) ([]entities.ReadingSession, error) {
	query := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if bookID != 0 {
		query = query.Where("book_id = ?", bookID)
	} else {
		query = query.Limit(unscopedSessionLimit)
	}

	var sessions []entities.ReadingSession
	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.BookID)
	}
	books, err := r.booksByID(collectBookIDs(ids))
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if book, ok := books[sessions[i].BookID]; ok {
			sessions[i].Title = book.Title
			sessions[i].Author = book.Author
		}
	}
	return sessions, nil
}

func rowsBookIDs(rows []entities.ReadingProgress) []uint {
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.BookID)
	}
	return ids
}

func collectBookIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	unique := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return unique
}

func (r *Repository) booksByID(ids []uint) (map[uint]entities.Book, error) {
	books := make(map[uint]entities.Book, len(ids))
	if len(ids) == 0 {
		return books, nil
	}
	var rows []entities.Book
	if err := r.db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, book := range rows {
		books[book.ID] = book
	}
	return books, nil
}
