package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const volumesResponse = `{
	"items": [
		{
			"id": "abc123",
			"volumeInfo": {
				"title": "The Left Hand of Darkness",
				"authors": ["Ursula K. Le Guin"],
				"publisher": "Ace Books",
				"publishedDate": "1969-03-01",
				"description": "A stranger on the planet Gethen.",
				"industryIdentifiers": [
					{"type": "ISBN_10", "identifier": "0441478123"},
					{"type": "ISBN_13", "identifier": "9780441478125"}
				],
				"pageCount": 304,
				"categories": ["Fiction", "Science Fiction"],
				"imageLinks": {
					"smallThumbnail": "http://example.com/small.jpg",
					"thumbnail": "http://example.com/thumb.jpg"
				},
				"language": "en",
				"printType": "BOOK"
			}
		},
		{
			"id": "def456",
			"volumeInfo": {
				"title": "Sparse Volume",
				"industryIdentifiers": [
					{"type": "ISBN_10", "identifier": "1111111111"}
				],
				"imageLinks": {
					"smallThumbnail": "http://example.com/only-small.jpg"
				}
			}
		}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*GoogleBooksClient, func()) {
	server := httptest.NewServer(handler)
	client := NewGoogleBooksClient(server.URL, 10, 5*time.Second)
	return client, server.Close
}

func TestGoogleBooksClient_Search(t *testing.T) {
	var gotPath, gotQuery string
	client, closeServer := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(volumesResponse))
	})
	defer closeServer()

	books, err := client.Search(context.Background(), "left hand of darkness")
	require.NoError(t, err)
	require.Len(t, books, 2)

	assert.Equal(t, "/volumes", gotPath)
	assert.Equal(t, "left hand of darkness", gotQuery)

	book := books[0]
	assert.Equal(t, "abc123", book.GoogleID)
	assert.Equal(t, "The Left Hand of Darkness", book.Title)
	assert.Equal(t, "Ursula K. Le Guin", book.Author)
	assert.Equal(t, "9780441478125", book.ISBN, "ISBN-13 wins over ISBN-10")
	assert.Equal(t, 1969, book.PublicationYear)
	assert.Equal(t, 304, book.PageCount)
	assert.Equal(t, "Fiction, Science Fiction", book.Genre)
	assert.Equal(t, "http://example.com/thumb.jpg", book.CoverImageURL)
	assert.Equal(t, "BOOK", book.Format)
	assert.Equal(t, "new", book.Condition)
	assert.Equal(t, "unread", book.Status)

	sparse := books[1]
	assert.Equal(t, "1111111111", sparse.ISBN, "falls back to ISBN-10")
	assert.Equal(t, "http://example.com/only-small.jpg", sparse.CoverImageURL)
	assert.Equal(t, "en", sparse.Language)
	assert.Zero(t, sparse.PublicationYear)
}

func TestGoogleBooksClient_Search_BlankQuery(t *testing.T) {
	client := NewGoogleBooksClient("http://unused", 10, time.Second)

	_, err := client.Search(context.Background(), "   ")
	assert.Error(t, err)
}

func TestGoogleBooksClient_Search_UpstreamError(t *testing.T) {
	client, closeServer := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	defer closeServer()

	_, err := client.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGoogleBooksClient_Search_EmptyResults(t *testing.T) {
	client, closeServer := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	defer closeServer()

	books, err := client.Search(context.Background(), "nothing matches")
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2018-06-15", 2018},
		{"1969", 1969},
		{"", 0},
		{"not-a-year", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, extractYear(tt.date), "date %q", tt.date)
	}
}
