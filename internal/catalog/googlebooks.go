// Package catalog provides third-party book-catalog search for the
// add-book flow, normalizing external results to the internal book shape.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Book is one normalized catalog search result, shaped like an internal
// book plus the external identifier.
type Book struct {
	GoogleID         string `json:"google_id"`
	Title            string `json:"title"`
	Author           string `json:"author"`
	ISBN             string `json:"isbn"`
	Publisher        string `json:"publisher"`
	PublicationYear  int    `json:"publication_year,omitempty"`
	PageCount        int    `json:"page_count,omitempty"`
	Description      string `json:"description"`
	Genre            string `json:"genre"`
	CoverImageURL    string `json:"cover_image_url"`
	Language         string `json:"language"`
	Format           string `json:"format"`
	Condition        string `json:"condition"`
	PhysicalLocation string `json:"physical_location"`
	Status           string `json:"status"`
	IsFavorite       bool   `json:"is_favorite"`
}

// GoogleBooksClient searches the Google Books volumes API.
type GoogleBooksClient struct {
	httpClient  *http.Client
	baseURL     string
	maxResults  int
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		time.Sleep(r.interval - since)
	}
	r.lastCall = time.Now()
}

// NewGoogleBooksClient creates a new Google Books API client with rate
// limiting.
func NewGoogleBooksClient(baseURL string, maxResults int, timeout time.Duration) *GoogleBooksClient {
	if maxResults <= 0 {
		maxResults = 10
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleBooksClient{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		maxResults:  maxResults,
		rateLimiter: newRateLimiter(time.Second), // 1 request per second
	}
}

type googleVolumeList struct {
	Items []googleVolume `json:"items"`
}

type googleVolume struct {
	ID         string           `json:"id"`
	VolumeInfo googleVolumeInfo `json:"volumeInfo"`
}

type googleVolumeInfo struct {
	Title               string             `json:"title"`
	Authors             []string           `json:"authors"`
	Publisher           string             `json:"publisher"`
	PublishedDate       string             `json:"publishedDate"`
	Description         string             `json:"description"`
	IndustryIdentifiers []googleIdentifier `json:"industryIdentifiers"`
	PageCount           int                `json:"pageCount"`
	Categories          []string           `json:"categories"`
	ImageLinks          googleImageLinks   `json:"imageLinks"`
	Language            string             `json:"language"`
	PrintType           string             `json:"printType"`
}

type googleIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type googleImageLinks struct {
	Thumbnail      string `json:"thumbnail"`
	SmallThumbnail string `json:"smallThumbnail"`
}

// Search queries the volumes endpoint and normalizes the results. A non-2xx
// response is returned as an error; callers shape it for the client.
func (c *GoogleBooksClient) Search(ctx context.Context, query string) ([]Book, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is required")
	}

	c.rateLimiter.wait()

	searchURL := fmt.Sprintf("%s/volumes?q=%s&maxResults=%d",
		c.baseURL, url.QueryEscape(query), c.maxResults)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Bookshelf/1.0 (https://github.com/alexmk/bookshelf)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog API error: status %d", resp.StatusCode)
	}

	var list googleVolumeList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	books := make([]Book, 0, len(list.Items))
	for _, item := range list.Items {
		books = append(books, normalizeVolume(item))
	}
	return books, nil
}

// normalizeVolume maps one API volume to the internal book shape, with the
// same defaults a freshly added book gets.
func normalizeVolume(item googleVolume) Book {
	info := item.VolumeInfo

	cover := info.ImageLinks.Thumbnail
	if cover == "" {
		cover = info.ImageLinks.SmallThumbnail
	}

	language := info.Language
	if language == "" {
		language = "en"
	}

	return Book{
		GoogleID:        item.ID,
		Title:           info.Title,
		Author:          strings.Join(info.Authors, ", "),
		ISBN:            pickISBN(info.IndustryIdentifiers),
		Publisher:       info.Publisher,
		PublicationYear: extractYear(info.PublishedDate),
		PageCount:       info.PageCount,
		Description:     info.Description,
		Genre:           strings.Join(info.Categories, ", "),
		CoverImageURL:   cover,
		Language:        language,
		Format:          info.PrintType,
		Condition:       "new",
		Status:          "unread",
	}
}

// pickISBN prefers ISBN-13 over ISBN-10.
func pickISBN(identifiers []googleIdentifier) string {
	var isbn10 string
	for _, id := range identifiers {
		switch id.Type {
		case "ISBN_13":
			return id.Identifier
		case "ISBN_10":
			isbn10 = id.Identifier
		}
	}
	return isbn10
}

// extractYear parses the leading year of a publishedDate like "2018-06-15".
func extractYear(date string) int {
	if date == "" {
		return 0
	}
	year, err := strconv.Atoi(strings.SplitN(date, "-", 2)[0])
	if err != nil {
		return 0
	}
	return year
}
