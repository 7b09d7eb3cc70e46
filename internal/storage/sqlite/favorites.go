package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/avolkov/towertune/pkg/logger"
	_ "modernc.org/sqlite"
)

// Import logger functions
var (
	String = logger.String
	Int    = logger.Int
	Error  = logger.Error
)

// lastUsedFormat is RFC3339 with a fixed-width millisecond fraction so
// that lexicographic ordering in SQL matches chronological ordering.
const lastUsedFormat = "2006-01-02T15:04:05.000Z07:00"

// FavoriteEntry is one usage-ranked favorite channel
type FavoriteEntry struct {
	ICAO               string
	ChannelDescription string
	PlayCount          int
	LastUsed           time.Time
}

// FavoritesStore is a SQLite-backed bounded shortlist of previously
// resolved channels, ranked by play count and recency. It holds at most
// maxEntries entries; the lowest-ranked overflow is evicted on write.
type FavoritesStore struct {
	db         *sql.DB
	maxEntries int
	logger     *logger.Logger
}

// NewFavoritesStore opens or creates the favorites database at dbPath
func NewFavoritesStore(dbPath string, maxEntries int, log *logger.Logger) (*FavoritesStore, error) {
	storeLogger := log.Named("favorites")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create favorites directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool limits
	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)

	// Set pragmas for better performance and concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	store := &FavoritesStore{
		db:         db,
		maxEntries: maxEntries,
		logger:     storeLogger,
	}

	if err := store.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initDB initializes the database tables
func (s *FavoritesStore) initDB() error {
	// play_count and last_used stay nullable so store files written by
	// older revisions still load; reads default them.
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS favorites (
			icao TEXT NOT NULL,
			channel_description TEXT NOT NULL,
			play_count INTEGER,
			last_used TEXT,
			PRIMARY KEY (icao, channel_description)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create favorites table: %w", err)
	}
	return nil
}

// Record upserts one favorite: a new (icao, channel) pair starts at play
// count 1, an existing one is incremented and its timestamp refreshed.
// The table is then trimmed to maxEntries by (play_count, last_used).
func (s *FavoritesStore) Record(icao, channelDescription string) error {
	now := time.Now().UTC().Format(lastUsedFormat)

	_, err := s.db.Exec(`
		INSERT INTO favorites (icao, channel_description, play_count, last_used)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(icao, channel_description)
		DO UPDATE SET play_count = COALESCE(play_count, 1) + 1, last_used = excluded.last_used
	`, icao, channelDescription, now)
	if err != nil {
		return fmt.Errorf("failed to record favorite: %w", err)
	}

	_, err = s.db.Exec(`
		DELETE FROM favorites WHERE rowid NOT IN (
			SELECT rowid FROM favorites
			ORDER BY COALESCE(play_count, 1) DESC, COALESCE(last_used, '') DESC
			LIMIT ?
		)
	`, s.maxEntries)
	if err != nil {
		return fmt.Errorf("failed to trim favorites: %w", err)
	}

	s.logger.Debug("Recorded favorite",
		String("icao", icao),
		String("channel", channelDescription),
	)
	return nil
}

// List returns all favorites ordered by play count, then recency.
// Missing play counts default to 1 and missing timestamps to now.
func (s *FavoritesStore) List() ([]FavoriteEntry, error) {
	rows, err := s.db.Query(`
		SELECT icao, channel_description, play_count, last_used
		FROM favorites
		ORDER BY COALESCE(play_count, 1) DESC, COALESCE(last_used, '') DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	var entries []FavoriteEntry
	for rows.Next() {
		var (
			entry     FavoriteEntry
			playCount sql.NullInt64
			lastUsed  sql.NullString
		)
		if err := rows.Scan(&entry.ICAO, &entry.ChannelDescription, &playCount, &lastUsed); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}

		entry.PlayCount = 1
		if playCount.Valid {
			entry.PlayCount = int(playCount.Int64)
		}
		entry.LastUsed = time.Now().UTC()
		if lastUsed.Valid {
			if ts, err := time.Parse(time.RFC3339, lastUsed.String); err == nil {
				entry.LastUsed = ts
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read favorites: %w", err)
	}
	return entries, nil
}

// Close closes the database connection
func (s *FavoritesStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
