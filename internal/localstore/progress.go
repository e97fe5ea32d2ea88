package localstore

import (
	"database/sql"
	"time"

	"github.com/alexmk/bookshelf/internal/database/progress"
	"github.com/alexmk/bookshelf/internal/entities"
)

// ProgressPatch mirrors the server engine's partial progress update.
type ProgressPatch struct {
	CurrentPage          *int
	TotalPages           *int
	TargetCompletionDate *time.Time
}

// UpsertProgress creates or partially updates the single progress row for
// (bookID, userID) using an INSERT ... ON CONFLICT keyed on the pair's
// unique index. Status side effects follow the server engine: creation
// moves the book to reading, the first crossing of 100% stamps
// completed_at and moves the book to read, and a total_pages resolving to
// zero falls back to the book's page_count. Everything runs in one
// transaction.
func (s *Store) UpsertProgress(bookID uint, userID string, patch ProgressPatch) (*entities.ReadingProgress, error) {
	if bookID == 0 {
		return nil, progress.ErrBookRequired
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	existing, err := getProgressTx(tx, bookID, userID)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	creating := err == sql.ErrNoRows

	now := time.Now()
	row := entities.ReadingProgress{BookID: bookID, UserID: userID}
	if !creating {
		row = *existing
	} else {
		row.StartedAt = &now
	}
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
		var pageCount int
		err := tx.QueryRow(`SELECT page_count FROM books WHERE id = ? AND user_id = ?`, bookID, userID).
			Scan(&pageCount)
		if err != nil && err != sql.ErrNoRows {
			return nil, err
		}
		row.TotalPages = pageCount
	}
	row.ProgressPercentage = progress.ComputePercentage(row.CurrentPage, row.TotalPages)

	completed := false
	if !creating && row.ProgressPercentage >= 100 && row.CompletedAt == nil {
		row.CompletedAt = &now
		completed = true
	}

	_, err = tx.Exec(`
		INSERT INTO reading_progress (
			book_id, user_id, current_page, total_pages, progress_percentage,
			started_at, target_completion_date, completed_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(book_id, user_id) DO UPDATE SET
			current_page = excluded.current_page,
			total_pages = excluded.total_pages,
			progress_percentage = excluded.progress_percentage,
			target_completion_date = excluded.target_completion_date,
			completed_at = excluded.completed_at,
			updated_at = excluded.updated_at`,
		bookID, userID, row.CurrentPage, row.TotalPages, row.ProgressPercentage,
		row.StartedAt, row.TargetCompletionDate, row.CompletedAt, now,
	)
	if err != nil {
		return nil, err
	}

	if creating {
		err = setBookStatusTx(tx, bookID, userID, entities.StatusReading)
	} else if completed {
		err = setBookStatusTx(tx, bookID, userID, entities.StatusRead)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetProgress(bookID, userID)
}

func setBookStatusTx(tx *sql.Tx, bookID uint, userID string, status entities.BookStatus) error {
	_, err := tx.Exec(`UPDATE books SET status = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		string(status), time.Now(), bookID, userID)
	return err
}

const progressColumns = `id, book_id, user_id, current_page, total_pages, progress_percentage,
	started_at, target_completion_date, completed_at, created_at, updated_at`

func scanProgress(row rowScanner) (*entities.ReadingProgress, error) {
	var p entities.ReadingProgress
	var startedAt, targetDate, completedAt sql.NullTime
	err := row.Scan(
		&p.ID, &p.BookID, &p.UserID, &p.CurrentPage, &p.TotalPages,
		&p.ProgressPercentage, &startedAt, &targetDate, &completedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if startedAt.Valid {
		p.StartedAt = &startedAt.Time
	}
	if targetDate.Valid {
		p.TargetCompletionDate = &targetDate.Time
	}
	if completedAt.Valid {
		p.CompletedAt = &completedAt.Time
	}
	return &p, nil
}

// GetProgress retrieves the progress row for one (book, user) pair.
func (s *Store) GetProgress(bookID uint, userID string) (*entities.ReadingProgress, error) {
	row := s.db.QueryRow(`SELECT `+progressColumns+` FROM reading_progress WHERE book_id = ? AND user_id = ?`,
		bookID, userID)
	return scanProgress(row)
}

func getProgressTx(tx *sql.Tx, bookID uint, userID string) (*entities.ReadingProgress, error) {
	row := tx.QueryRow(`SELECT `+progressColumns+` FROM reading_progress WHERE book_id = ? AND user_id = ?`,
		bookID, userID)
	return scanProgress(row)
}

// SessionInput mirrors the server engine's session fields.
type SessionInput struct {
	StartPage *int
	EndPage   *int
	StartTime *time.Time
	EndTime   *time.Time
	Notes     string
}

// RecordSession appends one immutable session row, then, when an end page
// is supplied and the book has a page count, chains into UpsertProgress.
func (s *Store) RecordSession(bookID uint, userID string, input SessionInput) (*entities.ReadingSession, error) {
	if bookID == 0 {
		return nil, progress.ErrBookRequired
	}

	duration := progress.DurationMinutes(input.StartTime, input.EndTime)
	result, err := s.db.Exec(`
		INSERT INTO reading_sessions (
			book_id, user_id, start_page, end_page, start_time, end_time,
			duration_minutes, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		bookID, userID, input.StartPage, input.EndPage, input.StartTime,
		input.EndTime, duration, input.Notes,
	)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	if input.EndPage != nil {
		var pageCount int
		err := s.db.QueryRow(`SELECT page_count FROM books WHERE id = ? AND user_id = ?`, bookID, userID).
			Scan(&pageCount)
		if err == nil && pageCount > 0 {
			endPage := *input.EndPage
			if _, err := s.UpsertProgress(bookID, userID, ProgressPatch{
				CurrentPage: &endPage,
				TotalPages:  &pageCount,
			}); err != nil {
				return nil, err
			}
		} else if err != nil && err != sql.ErrNoRows {
			return nil, err
		}
	}

	return s.getSession(uint(id))
}

const sessionColumns = `id, book_id, user_id, start_page, end_page, start_time, end_time,
	duration_minutes, notes, created_at`

func scanSession(row rowScanner) (*entities.ReadingSession, error) {
	var sess entities.ReadingSession
	var startPage, endPage, duration sql.NullInt64
	var startTime, endTime sql.NullTime
	err := row.Scan(
		&sess.ID, &sess.BookID, &sess.UserID, &startPage, &endPage,
		&startTime, &endTime, &duration, &sess.Notes, &sess.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if startPage.Valid {
		v := int(startPage.Int64)
		sess.StartPage = &v
	}
	if endPage.Valid {
		v := int(endPage.Int64)
		sess.EndPage = &v
	}
	if startTime.Valid {
		sess.StartTime = &startTime.Time
	}
	if endTime.Valid {
		sess.EndTime = &endTime.Time
	}
	if duration.Valid {
		v := int(duration.Int64)
		sess.DurationMinutes = &v
	}
	return &sess, nil
}

func (s *Store) getSession(id uint) (*entities.ReadingSession, error) {
	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM reading_sessions WHERE id = ?`, id)
	return scanSession(row)
}

// ListSessions retrieves a user's session history newest-first, scoped to
// one book when bookID is non-zero.
func (s *Store) ListSessions(userID string, bookID uint) ([]entities.ReadingSession, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if bookID != 0 {
		rows, err = s.db.Query(`SELECT `+sessionColumns+` FROM reading_sessions
			WHERE user_id = ? AND book_id = ? ORDER BY created_at DESC`, userID, bookID)
	} else {
		rows, err = s.db.Query(`SELECT `+sessionColumns+` FROM reading_sessions
			WHERE user_id = ? ORDER BY created_at DESC LIMIT 50`, userID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []entities.ReadingSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}
