package http

import (
	"github.com/alexmk/bookshelf/internal/database/books"
	"github.com/alexmk/bookshelf/internal/database/progress"
	"github.com/alexmk/bookshelf/internal/entities"
)

// This file consolidates the store interface definitions used by HTTP
// controllers. Each controller depends only on the operations it needs;
// the gorm repositories implement all of them.

// BookStore provides book and tag CRUD plus library statistics.
type BookStore interface {
	ListBooks(userID string, filter books.ListFilter) ([]entities.Book, error)
	CreateBook(book *entities.Book, tags []string) (*entities.Book, error)
	GetBookByID(id uint, userID string) (*entities.Book, error)
	UpdateBook(id uint, userID string, patch books.BookPatch) (*entities.Book, error)
	DeleteBook(id uint, userID string) error
	GetStats(userID string) (*books.LibraryStats, error)
}

// ProgressStore provides the reading-progress engine operations.
type ProgressStore interface {
	UpsertProgress(bookID uint, userID string, patch progress.ProgressPatch) (*entities.ReadingProgress, error)
	ListProgressForUser(userID string) ([]entities.ReadingProgress, error)
}

// SessionStore provides the session log operations. Sessions are
// append-only: there is deliberately no update or delete.
type SessionStore interface {
	RecordSession(bookID uint, userID string, input progress.SessionInput) (*entities.ReadingSession, error)
	ListSessions(userID string, bookID uint) ([]entities.ReadingSession, error)
}
