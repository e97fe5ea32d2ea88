package cli

import (
	"github.com/alexmk/bookshelf/internal/entities"
)

type sampleBook struct {
	book        entities.Book
	tags        []string
	currentPage int
}

func sampleBooks(userID string) []sampleBook {
	return []sampleBook{
		{
			book: entities.Book{
				UserID:          userID,
				Title:           "Moby-Dick",
				Author:          "Herman Melville",
				ISBN:            "9781503280786",
				Genre:           "Fiction",
				PublicationYear: 1851,
				PageCount:       635,
				Language:        "en",
				Status:          entities.StatusReading,
				Description:     "The voyage of the whaling ship Pequod.",
			},
			tags:        []string{"classics", "sea"},
			currentPage: 120,
		},
		{
			book: entities.Book{
				UserID:          userID,
				Title:           "Pride and Prejudice",
				Author:          "Jane Austen",
				ISBN:            "9781503290563",
				Genre:           "Fiction",
				PublicationYear: 1813,
				PageCount:       279,
				Language:        "en",
				Status:          entities.StatusRead,
				IsFavorite:      true,
			},
			tags: []string{"classics", "romance"},
		},
		{
			book: entities.Book{
				UserID:          userID,
				Title:           "Walden",
				Author:          "Henry David Thoreau",
				ISBN:            "9781505297720",
				Genre:           "Philosophy",
				PublicationYear: 1854,
				PageCount:       352,
				Language:        "en",
				Status:          entities.StatusUnread,
			},
			tags: []string{"nature", "philosophy"},
		},
		{
			book: entities.Book{
				UserID:          userID,
				Title:           "The Art of War",
				Author:          "Sun Tzu",
				ISBN:            "9781599869773",
				Genre:           "Philosophy",
				PublicationYear: -500,
				PageCount:       68,
				Language:        "en",
				Status:          entities.StatusLent,
			},
			tags: []string{"strategy"},
		},
		{
			book: entities.Book{
				UserID:          userID,
				Title:           "Frankenstein",
				Author:          "Mary Shelley",
				ISBN:            "9781503262423",
				Genre:           "Horror",
				PublicationYear: 1818,
				PageCount:       280,
				Language:        "en",
				Status:          entities.StatusReading,
			},
			tags:        []string{"classics", "gothic"},
			currentPage: 45,
		},
	}
}
