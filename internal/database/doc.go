// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── books/           # Book and tag CRUD, filtering, stats
//	└── progress/        # Reading progress and session operations
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./bookshelf.db")
//
//	// Create domain-specific repositories
//	booksRepo := books.NewRepository(db.DB)
//	progressRepo := progress.NewRepository(db.DB)
//
//	// Use repositories
//	book, err := booksRepo.GetBookByID(123, userID)
//	row, err := progressRepo.UpsertProgress(bookID, userID, patch)
//
// # Interface Implementations
//
// Each sub-package implements specific interfaces:
//
//   - books.Repository: implements http.BookStore
//   - progress.Repository: implements http.ProgressStore and http.SessionStore
//
// Repositories take the gorm handle through their constructor; there is no
// package-level connection state.
package database
