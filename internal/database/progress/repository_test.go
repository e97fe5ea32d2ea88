package progress

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/alexmk/bookshelf/internal/entities"
)

const testUserID = "user-1"

func setupTestDB(t *testing.T) (*gorm.DB, *Repository, func()) {
	dbPath := "./test_progress_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Book{},
		&entities.BookTag{},
		&entities.ReadingProgress{},
		&entities.ReadingSession{},
	)
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, repo, cleanup
}

func createTestBook(t *testing.T, db *gorm.DB, title string, pageCount int) *entities.Book {
	book := &entities.Book{
		UserID:    testUserID,
		Title:     title,
		Author:    "Test Author",
		PageCount: pageCount,
		Status:    entities.StatusUnread,
	}
	require.NoError(t, db.Create(book).Error)
	return book
}

func bookStatus(t *testing.T, db *gorm.DB, id uint) entities.BookStatus {
	var book entities.Book
	require.NoError(t, db.First(&book, id).Error)
	return book.Status
}

func intPtr(v int) *int { return &v }

func TestComputePercentage(t *testing.T) {
	tests := []struct {
		name        string
		currentPage int
		totalPages  int
		want        float64
	}{
		{"halfway", 150, 300, 50},
		{"start", 0, 300, 0},
		{"finished", 300, 300, 100},
		{"beyond total clamps to 100", 350, 300, 100},
		{"negative page clamps to 0", -10, 300, 0},
		{"zero total", 50, 0, 0},
		{"negative total", 50, -5, 0},
		{"fractional", 1, 3, 100.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComputePercentage(tt.currentPage, tt.totalPages), 1e-9)
		})
	}
}

func TestDurationMinutes(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(45*time.Minute + 29*time.Second)

	got := DurationMinutes(&start, &end)
	require.NotNil(t, got)
	assert.Equal(t, 45, *got)

	// 30 seconds rounds up
	end = start.Add(45*time.Minute + 30*time.Second)
	got = DurationMinutes(&start, &end)
	require.NotNil(t, got)
	assert.Equal(t, 46, *got)

	assert.Nil(t, DurationMinutes(nil, &end))
	assert.Nil(t, DurationMinutes(&start, nil))
}

func TestRepository_UpsertProgress_CreatesRow(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Fresh Start", 300)

	row, err := repo.UpsertProgress(book.ID, testUserID, ProgressPatch{
		TotalPages: intPtr(300),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, row.CurrentPage)
	assert.Equal(t, 300, row.TotalPages)
	assert.Zero(t, row.ProgressPercentage)
	assert.NotNil(t, row.StartedAt)
	assert.Nil(t, row.CompletedAt)

	assert.Equal(t, entities.StatusReading, bookStatus(t, db, book.ID))
}

func TestRepository_UpsertProgress_RequiresBook(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.UpsertProgress(0, testUserID, ProgressPatch{})
	assert.ErrorIs(t, err, ErrBookRequired)
}

func TestRepository_UpsertProgress_SingleRowPerPair(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "One Row", 200)

	first, err := repo.UpsertProgress(book.ID, testUserID, ProgressPatch{
		CurrentPage: intPtr(20), TotalPages: intPtr(200),
	})
	require.NoError(t, err)

	second, err := repo.UpsertProgress(book.ID, testUserID, ProgressPatch{
		CurrentPage: intPtr(40),
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 40, second.CurrentPage)
	assert.Equal(t, 200, second.TotalPages)
	assert.InDelta(t, 20.0, second.ProgressPercentage, 1e-9)

	var count int64
	db.Model(&entities.ReadingProgress{}).Where("book_id = ? AND user_id = ?", book.ID, testUserID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRepository_UpsertProgress_PartialUpdateKeepsTotal(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Keep Total", 400)

	_, err := repo.UpsertProgress(book.ID, testUserID, ProgressPatch{
		CurrentPage: intPtr(100), TotalPages: intPtr(400),
	})
	require.NoError(t, err)

	row, err := repo.UpsertProgress(book.ID, testUserID, ProgressPatch{
		CurrentPage: intPtr(200),
	})
	require.NoError(t, err)

	assert.Equal(t, 400, row.TotalPages)
	assert.InDelta(t, 50.0, row.ProgressPercentage, 1e-9)
}

func TestRepository_UpsertProgress_CompletionStampsOnce(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Finish Line", 100)

	_, err := repo.UpsertProgress(book.ID, testUserID, ProgressPatch{
		CurrentPage: intPtr(50), TotalPages: intPtr(100),
	})
	require.NoError(t, err)
	assert.Equal(t, entities.StatusReading, bookStatus(t, db, book.ID))

	row, err := repo.UpsertProgress(book.ID, testUserID, ProgressPatch{
		CurrentPage: intPtr(100),
	})
	require.NoError(t, err)
	require.NotNil(t, row.CompletedAt)
	assert.InDelta(t, 100.0, row.ProgressPercentage, 1e-9)
	assert.Equal(t, entities.StatusRead, bookStatus(t, db, book.ID))

	firstCompleted := *row.CompletedAt

	// A later update past 100% must not move the completion timestamp
	time.Sleep(10 * time.Millisecond)
	row, err = repo.UpsertProgress(book.ID, testUserID, ProgressPatch{
		CurrentPage: intPtr(110),
	})
	require.NoError(t, err)
	require.NotNil(t, row.CompletedAt)
	assert.True(t, row.CompletedAt.Equal(firstCompleted))
	assert.InDelta(t, 100.0, row.ProgressPercentage, 1e-9)
}

func TestRepository_UpsertProgress_CreateNeverCompletes(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Instant Finish", 100)

	// Even a create that lands at 100% leaves completed_at unset; only an
	// update crossing marks completion.
	row, err := repo.UpsertProgress(book.ID, testUserID, ProgressPatch{
		CurrentPage: intPtr(100), TotalPages: intPtr(100),
	})
	require.NoError(t, err)

	assert.InDelta(t, 100.0, row.ProgressPercentage, 1e-9)
	assert.Nil(t, row.CompletedAt)
	assert.Equal(t, entities.StatusReading, bookStatus(t, db, book.ID))
}

func TestRepository_UpsertProgress_FallsBackToBookPageCount(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Halfway There", 200)

	// Client never supplies total_pages; the book's page count fills in
	row, err := repo.UpsertProgress(book.ID, testUserID, ProgressPatch{
		CurrentPage: intPtr(100),
	})
	require.NoError(t, err)
	assert.Equal(t, 200, row.TotalPages)
	assert.InDelta(t, 50.0, row.ProgressPercentage, 1e-9)
	assert.Nil(t, row.CompletedAt)
	assert.Equal(t, entities.StatusReading, bookStatus(t, db, book.ID))

	row, err = repo.UpsertProgress(book.ID, testUserID, ProgressPatch{
		CurrentPage: intPtr(200),
	})
	require.NoError(t, err)
	assert.InDelta(t, 100.0, row.ProgressPercentage, 1e-9)
	require.NotNil(t, row.CompletedAt)
	assert.Equal(t, entities.StatusRead, bookStatus(t, db, book.ID))
}

func TestRepository_UpsertProgress_ZeroTotalPages(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Unknown Length", 0)

	row, err := repo.UpsertProgress(book.ID, testUserID, ProgressPatch{
		CurrentPage: intPtr(50),
	})
	require.NoError(t, err)

	assert.Equal(t, 50, row.CurrentPage)
	assert.Zero(t, row.ProgressPercentage)
	assert.Nil(t, row.CompletedAt)
}

func TestRepository_RecordSession_DerivesDuration(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Timed Read", 0)

	start := time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC)
	end := start.Add(42 * time.Minute)

	session, err := repo.RecordSession(book.ID, testUserID, SessionInput{
		StartTime: &start,
		EndTime:   &end,
		Notes:     "evening chapter",
	})
	require.NoError(t, err)

	require.NotNil(t, session.DurationMinutes)
	assert.Equal(t, 42, *session.DurationMinutes)
	assert.Equal(t, "evening chapter", session.Notes)
}

func TestRepository_RecordSession_NoTimesNilDuration(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Untimed", 0)

	session, err := repo.RecordSession(book.ID, testUserID, SessionInput{
		StartPage: intPtr(10),
	})
	require.NoError(t, err)
	assert.Nil(t, session.DurationMinutes)
}

func TestRepository_RecordSession_ChainsIntoProgress(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Chained", 200)

	_, err := repo.RecordSession(book.ID, testUserID, SessionInput{
		StartPage: intPtr(1),
		EndPage:   intPtr(50),
	})
	require.NoError(t, err)

	row, err := repo.GetProgress(book.ID, testUserID)
	require.NoError(t, err)

	assert.Equal(t, 50, row.CurrentPage)
	assert.Equal(t, 200, row.TotalPages)
	assert.InDelta(t, 25.0, row.ProgressPercentage, 1e-9)
	assert.Equal(t, entities.StatusReading, bookStatus(t, db, book.ID))
}

func TestRepository_RecordSession_NoChainWithoutPageCount(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Pageless", 0)

	_, err := repo.RecordSession(book.ID, testUserID, SessionInput{
		EndPage: intPtr(50),
	})
	require.NoError(t, err)

	_, err = repo.GetProgress(book.ID, testUserID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Equal(t, entities.StatusUnread, bookStatus(t, db, book.ID))
}

func TestRepository_RecordSession_FinishingSessionCompletesBook(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Last Session", 120)

	_, err := repo.UpsertProgress(book.ID, testUserID, ProgressPatch{
		CurrentPage: intPtr(100), TotalPages: intPtr(120),
	})
	require.NoError(t, err)

	_, err = repo.RecordSession(book.ID, testUserID, SessionInput{
		StartPage: intPtr(100),
		EndPage:   intPtr(120),
	})
	require.NoError(t, err)

	row, err := repo.GetProgress(book.ID, testUserID)
	require.NoError(t, err)
	require.NotNil(t, row.CompletedAt)
	assert.Equal(t, entities.StatusRead, bookStatus(t, db, book.ID))
}

func TestRepository_ListProgressForUser_AttachesBookFields(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Visible Title", 100)
	_, err := repo.UpsertProgress(book.ID, testUserID, ProgressPatch{CurrentPage: intPtr(10)})
	require.NoError(t, err)

	rows, err := repo.ListProgressForUser(testUserID)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "Visible Title", rows[0].Title)
	assert.Equal(t, "Test Author", rows[0].Author)
}

func TestRepository_ListSessions_ScopedToBook(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	first := createTestBook(t, db, "First", 0)
	second := createTestBook(t, db, "Second", 0)

	_, err := repo.RecordSession(first.ID, testUserID, SessionInput{Notes: "a"})
	require.NoError(t, err)
	_, err = repo.RecordSession(second.ID, testUserID, SessionInput{Notes: "b"})
	require.NoError(t, err)

	sessions, err := repo.ListSessions(testUserID, first.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "a", sessions[0].Notes)
	assert.Equal(t, "First", sessions[0].Title)

	all, err := repo.ListSessions(testUserID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
