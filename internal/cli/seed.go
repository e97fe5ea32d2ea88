package cli

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/alexmk/bookshelf/internal/config"
	"github.com/alexmk/bookshelf/internal/localstore"
)

type SeedCommand struct {
	DatabasePath string
	UserID       string
	Fresh        bool
}

func NewSeedCommand() *SeedCommand {
	return &SeedCommand{}
}

func (cmd *SeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultLocalDatabasePath, "Path to the local database file")
	fs.StringVar(&cmd.UserID, "user", "demo-user", "User ID to own the seeded books")
	fs.BoolVar(&cmd.Fresh, "fresh", false, "Delete the database file before seeding")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Populate the local database with sample public domain books.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s seed\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s seed -db ./demo.db -fresh\n", os.Args[0])
	}

	return fs.Parse(args)
}

func (cmd *SeedCommand) Run() error {
	if cmd.Fresh {
		if err := os.Remove(cmd.DatabasePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove existing database: %w", err)
		}
	}

	store, err := localstore.Open(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open local database: %w", err)
	}
	defer store.Close()

	log.Printf("Seeding sample books into %s for user %s", cmd.DatabasePath, cmd.UserID)

	for _, sample := range sampleBooks(cmd.UserID) {
		created, err := store.CreateBook(&sample.book, sample.tags)
		if err != nil {
			log.Printf("Failed to seed %q: %v", sample.book.Title, err)
			continue
		}
		log.Printf("Seeded: %s by %s (id=%d)", created.Title, created.Author, created.ID)

		if sample.currentPage > 0 {
			page := sample.currentPage
			if _, err := store.UpsertProgress(created.ID, cmd.UserID, localstore.ProgressPatch{
				CurrentPage: &page,
			}); err != nil {
				log.Printf("Failed to seed progress for %q: %v", created.Title, err)
			}
		}
	}

	log.Printf("Seeding complete")
	return nil
}
