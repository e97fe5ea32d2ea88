package entities

import (
	"time"
)

// BookStatus is the lifecycle state of a book in a user's library.
type BookStatus string

const (
	StatusUnread   BookStatus = "unread"
	StatusReading  BookStatus = "reading"
	StatusRead     BookStatus = "read"
	StatusLent     BookStatus = "lent"
	StatusBorrowed BookStatus = "borrowed"
	StatusNew      BookStatus = "new"
	StatusSold     BookStatus = "sold"
)

// AllStatuses lists every valid book status.
var AllStatuses = []BookStatus{
	StatusUnread,
	StatusReading,
	StatusRead,
	StatusLent,
	StatusBorrowed,
	StatusNew,
	StatusSold,
}

// IsValid reports whether s is one of the known statuses.
func (s BookStatus) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// statusTransitions is the explicit transition table for book statuses.
// Every pair of valid statuses is currently allowed: restricting a
// transition is a policy decision to be made here, not by omission.
var statusTransitions = buildTransitions()

func buildTransitions() map[BookStatus]map[BookStatus]bool {
	table := make(map[BookStatus]map[BookStatus]bool, len(AllStatuses))
	for _, from := range AllStatuses {
		table[from] = make(map[BookStatus]bool, len(AllStatuses))
		for _, to := range AllStatuses {
			table[from][to] = true
		}
	}
	return table
}

// CanTransition reports whether a book may move from one status to another.
func CanTransition(from, to BookStatus) bool {
	allowed, ok := statusTransitions[from]
	if !ok {
		return false
	}
	return allowed[to]
}

// DefaultTitle is used when a book is created with a blank title.
const DefaultTitle = "Unknown Title"

type User struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Email     string    `gorm:"uniqueIndex;size:255" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Book struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           string     `gorm:"index;size:64" json:"user_id"`
	Title            string     `gorm:"index;size:512" json:"title"`
	Author           string     `gorm:"index;size:256" json:"author,omitempty"`
	ISBN             string     `gorm:"index;size:20" json:"isbn,omitempty"`
	Publisher        string     `gorm:"size:256" json:"publisher,omitempty"`
	PublicationYear  int        `json:"publication_year,omitempty"`
	Genre            string     `gorm:"size:256" json:"genre,omitempty"`
	CoverImageURL    string     `gorm:"size:2048" json:"cover_image_url,omitempty"`
	PageCount        int        `json:"page_count,omitempty"`
	Description      string     `gorm:"type:text" json:"description,omitempty"`
	Language         string     `gorm:"size:10;default:'en'" json:"language,omitempty"`
	Format           string     `gorm:"size:50" json:"format,omitempty"`
	Condition        string     `gorm:"size:50" json:"condition,omitempty"`
	PhysicalLocation string     `gorm:"size:256" json:"physical_location,omitempty"`
	DateAcquired     *time.Time `json:"date_acquired,omitempty"`
	Status           BookStatus `gorm:"index;size:20;default:'unread'" json:"status"`
	IsFavorite       bool       `gorm:"default:false" json:"is_favorite"`
	DateAdded        time.Time  `gorm:"index;autoCreateTime" json:"date_added"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Populated on single-book reads. Never written through the Book model.
	Tags     []string         `gorm:"-" json:"tags,omitempty"`
	Progress *ReadingProgress `gorm:"-" json:"progress,omitempty"`
}

// BookTag is one (book, tag) pair. The set of tags for a book is replaced
// wholesale on update, so rows carry no ordering or identity significance.
type BookTag struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	BookID uint   `gorm:"uniqueIndex:idx_book_tag" json:"book_id"`
	Tag    string `gorm:"uniqueIndex:idx_book_tag;size:100" json:"tag"`
}

// ReadingProgress tracks page position for one (book, user) pair.
// The composite unique index is the upsert key: a pair never has two rows.
type ReadingProgress struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	BookID               uint       `gorm:"uniqueIndex:idx_progress_book_user" json:"book_id"`
	UserID               string     `gorm:"uniqueIndex:idx_progress_book_user;size:64" json:"user_id"`
	CurrentPage          int        `json:"current_page"`
	TotalPages           int        `json:"total_pages,omitempty"`
	ProgressPercentage   float64    `json:"progress_percentage"`
	StartedAt            *time.Time `json:"started_at,omitempty"`
	TargetCompletionDate *time.Time `json:"target_completion_date,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	// Populated by joined reads for the progress listing.
	Title         string `gorm:"-" json:"title,omitempty"`
	Author        string `gorm:"-" json:"author,omitempty"`
	CoverImageURL string `gorm:"-" json:"cover_image_url,omitempty"`
}

// ReadingSession is one immutable logged reading interval. Rows are only
// ever inserted; there is no update or delete path.
type ReadingSession struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	BookID          uint       `gorm:"index" json:"book_id"`
	UserID          string     `gorm:"index;size:64" json:"user_id"`
	StartPage       *int       `json:"start_page,omitempty"`
	EndPage         *int       `json:"end_page,omitempty"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes *int       `json:"duration_minutes"`
	Notes           string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`

	// Populated by joined reads for the session listing.
	Title  string `gorm:"-" json:"title,omitempty"`
	Author string `gorm:"-" json:"author,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (Book) TableName() string {
	return "books"
}

func (BookTag) TableName() string {
	return "book_tags"
}

func (ReadingProgress) TableName() string {
	return "reading_progress"
}

func (ReadingSession) TableName() string {
	return "reading_sessions"
}
