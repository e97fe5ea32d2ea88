package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./bookshelf.db"

	// DefaultLocalDatabasePath is the default path for the local embedded store
	DefaultLocalDatabasePath = "./bookshelf-local.db"
)
