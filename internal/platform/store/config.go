package store

// Config aggregates embedded database configuration
type Config struct {
	AppName string

	SQLite SQLiteConfig
}

// SQLiteConfig configures the embedded database file and its pragmas
type SQLiteConfig struct {
	// Path is the database file, ":memory:" for tests
	Path string

	// MaxConns caps the connection pool; WAL allows concurrent readers
	// alongside the single writer. 0 means a sane default
	MaxConns int

	// BusyTimeoutMs is how long a connection waits on a locked database
	BusyTimeoutMs int

	LogSQL      bool
	SlowQueryMs int
}
