package localstore

import (
	"database/sql"
	"strings"
	"time"

	"github.com/alexmk/bookshelf/internal/database/books"
	"github.com/alexmk/bookshelf/internal/entities"
)

const bookColumns = `id, user_id, title, author, isbn, publisher, publication_year,
	genre, cover_image_url, page_count, description, language, format, condition,
	physical_location, date_acquired, status, is_favorite, date_added, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*entities.Book, error) {
	var book entities.Book
	var dateAcquired sql.NullTime
	err := row.Scan(
		&book.ID, &book.UserID, &book.Title, &book.Author, &book.ISBN,
		&book.Publisher, &book.PublicationYear, &book.Genre, &book.CoverImageURL,
		&book.PageCount, &book.Description, &book.Language, &book.Format,
		&book.Condition, &book.PhysicalLocation, &dateAcquired, &book.Status,
		&book.IsFavorite, &book.DateAdded, &book.CreatedAt, &book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if dateAcquired.Valid {
		book.DateAcquired = &dateAcquired.Time
	}
	return &book, nil
}

// CreateBook inserts a book with its tags in one transaction, applying the
// same defaults as the server store. When the book arrives in reading
// status with a known page count an initial progress row is created.
func (s *Store) CreateBook(book *entities.Book, tags []string) (*entities.Book, error) {
	if strings.TrimSpace(book.Title) == "" {
		book.Title = entities.DefaultTitle
	}
	if book.Status == "" {
		book.Status = entities.StatusUnread
	}
	if book.Language == "" {
		book.Language = "en"
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO books (
			user_id, title, author, isbn, publisher, publication_year, genre,
			cover_image_url, page_count, description, language, format,
			condition, physical_location, date_acquired, status, is_favorite
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.UserID, book.Title, book.Author, book.ISBN, book.Publisher,
		book.PublicationYear, book.Genre, book.CoverImageURL, book.PageCount,
		book.Description, book.Language, book.Format, book.Condition,
		book.PhysicalLocation, book.DateAcquired, book.Status, book.IsFavorite,
	)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	book.ID = uint(id)

	for _, tag := range tags {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO book_tags (book_id, tag) VALUES (?, ?)`, book.ID, tag); err != nil {
			return nil, err
		}
	}

	if book.Status == entities.StatusReading && book.PageCount > 0 {
		_, err = tx.Exec(`
			INSERT INTO reading_progress (book_id, user_id, total_pages, started_at)
			VALUES (?, ?, ?, ?)`,
			book.ID, book.UserID, book.PageCount, time.Now())
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetBook(book.ID, book.UserID)
}

// GetBook retrieves a book owned by the user with tags and progress
// attached. Returns sql.ErrNoRows when absent or owned by someone else.
func (s *Store) GetBook(id uint, userID string) (*entities.Book, error) {
	row := s.db.QueryRow(`SELECT `+bookColumns+` FROM books WHERE id = ? AND user_id = ?`, id, userID)
	book, err := scanBook(row)
	if err != nil {
		return nil, err
	}

	tags, err := s.TagsForBook(id)
	if err != nil {
		return nil, err
	}
	book.Tags = tags

	progress, err := s.GetProgress(id, userID)
	if err == nil {
		book.Progress = progress
	} else if err != sql.ErrNoRows {
		return nil, err
	}
	return book, nil
}

// ListBooks retrieves all books owned by a user, ordered by title.
func (s *Store) ListBooks(userID string) ([]entities.Book, error) {
	rows, err := s.db.Query(`SELECT `+bookColumns+` FROM books WHERE user_id = ? ORDER BY title ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []entities.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *book)
	}
	return books, rows.Err()
}

// BookPatch is the local store's typed partial update: only non-nil fields
// change. Tags, when non-nil, replaces the whole tag set.
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
	Tags             *[]string
}

// assignments translates the patch into SET clauses with bound values.
// Column names come only from this fixed list; values travel as bindings.
func (p BookPatch) assignments() ([]string, []any) {
	var set []string
	var args []any
	add := func(column string, value any) {
		set = append(set, column+" = ?")
		args = append(args, value)
	}
	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Author != nil {
		add("author", *p.Author)
	}
	if p.ISBN != nil {
		add("isbn", *p.ISBN)
	}
	if p.Publisher != nil {
		add("publisher", *p.Publisher)
	}
	if p.PublicationYear != nil {
		add("publication_year", *p.PublicationYear)
	}
	if p.Genre != nil {
		add("genre", *p.Genre)
	}
	if p.CoverImageURL != nil {
		add("cover_image_url", *p.CoverImageURL)
	}
	if p.PageCount != nil {
		add("page_count", *p.PageCount)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Language != nil {
		add("language", *p.Language)
	}
	if p.Format != nil {
		add("format", *p.Format)
	}
	if p.Condition != nil {
		add("condition", *p.Condition)
	}
	if p.PhysicalLocation != nil {
		add("physical_location", *p.PhysicalLocation)
	}
	if p.DateAcquired != nil {
		add("date_acquired", *p.DateAcquired)
	}
	if p.Status != nil {
		add("status", string(*p.Status))
	}
	if p.IsFavorite != nil {
		add("is_favorite", *p.IsFavorite)
	}
	return set, args
}

// UpdateBook applies a partial update; field changes and tag replacement
// run in the same transaction. Returns sql.ErrNoRows when the book is
// absent or not owned by the user, and the same error as the server store
// when the patch carries nothing to change.
func (s *Store) UpdateBook(id uint, userID string, patch BookPatch) (*entities.Book, error) {
	set, args := patch.assignments()
	if len(set) == 0 && patch.Tags == nil {
		return nil, books.ErrNoFields
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var exists uint
	if err := tx.QueryRow(`SELECT id FROM books WHERE id = ? AND user_id = ?`, id, userID).Scan(&exists); err != nil {
		return nil, err
	}

	if len(set) > 0 {
		set = append(set, "updated_at = ?")
		args = append(args, time.Now())
		args = append(args, id, userID)
		query := `UPDATE books SET ` + strings.Join(set, ", ") + ` WHERE id = ? AND user_id = ?`
		if _, err := tx.Exec(query, args...); err != nil {
			return nil, err
		}
	}

	if patch.Tags != nil {
		if _, err := tx.Exec(`DELETE FROM book_tags WHERE book_id = ?`, id); err != nil {
			return nil, err
		}
		for _, tag := range *patch.Tags {
			if _, err := tx.Exec(`INSERT OR IGNORE INTO book_tags (book_id, tag) VALUES (?, ?)`, id, tag); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetBook(id, userID)
}

// DeleteBook removes a book and its tags, progress, and sessions in one
// transaction.
func (s *Store) DeleteBook(id uint, userID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists uint
	if err := tx.QueryRow(`SELECT id FROM books WHERE id = ? AND user_id = ?`, id, userID).Scan(&exists); err != nil {
		return err
	}

	for _, stmt := range []string{
		`DELETE FROM book_tags WHERE book_id = ?`,
		`DELETE FROM reading_progress WHERE book_id = ?`,
		`DELETE FROM reading_sessions WHERE book_id = ?`,
		`DELETE FROM books WHERE id = ?`,
	} {
		if _, err := tx.Exec(stmt, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// TagsForBook retrieves a book's tags, ordered by name.
func (s *Store) TagsForBook(bookID uint) ([]string, error) {
	rows, err := s.db.Query(`SELECT tag FROM book_tags WHERE book_id = ? ORDER BY tag ASC`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
