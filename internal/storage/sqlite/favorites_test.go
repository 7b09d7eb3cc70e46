package sqlite

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/avolkov/towertune/pkg/logger"
)

func newTestStore(t *testing.T, maxEntries int) *FavoritesStore {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	store, err := NewFavoritesStore(filepath.Join(t.TempDir(), "favorites.db"), maxEntries, log)
	if err != nil {
		t.Fatalf("failed to open favorites store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func setLastUsed(t *testing.T, store *FavoritesStore, icao, channel string, ts time.Time) {
	t.Helper()
	_, err := store.db.Exec(
		`UPDATE favorites SET last_used = ? WHERE icao = ? AND channel_description = ?`,
		ts.UTC().Format(lastUsedFormat), icao, channel,
	)
	if err != nil {
		t.Fatalf("failed to set last_used: %v", err)
	}
}

func TestRecordInsertsThenIncrements(t *testing.T) {
	store := newTestStore(t, 10)

	if err := store.Record("KJFK", "Tower"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	entries, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].PlayCount != 1 {
		t.Fatalf("expected one entry with play count 1, got %+v", entries)
	}

	if err := store.Record("KJFK", "Tower"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	entries, err = store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected upsert, got %d entries", len(entries))
	}
	if entries[0].PlayCount != 2 {
		t.Errorf("expected play count 2, got %d", entries[0].PlayCount)
	}
}

func TestListRankedByCountThenRecency(t *testing.T) {
	store := newTestStore(t, 10)

	for i := 0; i < 3; i++ {
		if err := store.Record("EDDF", "Tower"); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := store.Record("KJFK", "Tower"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record("CYYZ", "Ground"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	// Same play count, KJFK used more recently than CYYZ
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	setLastUsed(t, store, "CYYZ", "Ground", base)
	setLastUsed(t, store, "KJFK", "Tower", base.Add(time.Hour))

	entries, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].ICAO != "EDDF" {
		t.Errorf("expected EDDF first (play count 3), got %s", entries[0].ICAO)
	}
	if entries[1].ICAO != "KJFK" || entries[2].ICAO != "CYYZ" {
		t.Errorf("expected recency tie-break KJFK before CYYZ, got %s then %s",
			entries[1].ICAO, entries[2].ICAO)
	}
}

func TestRecordEvictsLowestRanked(t *testing.T) {
	store := newTestStore(t, 3)

	for i := 0; i < 3; i++ {
		if err := store.Record("EDDF", "Tower"); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		if err := store.Record("KJFK", "Tower"); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := store.Record("CYYZ", "Ground"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	// Make the count-1 entry stale so the incoming one outranks it
	setLastUsed(t, store, "CYYZ", "Ground", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	if err := store.Record("LEMD", "Approach"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected store trimmed to 3 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.ICAO == "CYYZ" {
			t.Errorf("expected stale count-1 entry evicted, still present: %+v", e)
		}
	}
}

func TestListNeverExceedsMaxEntries(t *testing.T) {
	store := newTestStore(t, 10)

	for i := 0; i < 25; i++ {
		icao := fmt.Sprintf("A%03d", i)
		if err := store.Record(icao, "Tower"); err != nil {
			t.Fatalf("Record %s: %v", icao, err)
		}
		entries, err := store.List()
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(entries) > 10 {
			t.Fatalf("store grew past maxEntries after %d records: %d", i+1, len(entries))
		}
		for j := 1; j < len(entries); j++ {
			prev, cur := entries[j-1], entries[j]
			if cur.PlayCount > prev.PlayCount {
				t.Fatalf("entries not sorted by play count: %+v before %+v", prev, cur)
			}
			if cur.PlayCount == prev.PlayCount && cur.LastUsed.After(prev.LastUsed) {
				t.Fatalf("entries not sorted by recency within count: %+v before %+v", prev, cur)
			}
		}
	}
}

func TestSchemaTolerantDefaults(t *testing.T) {
	store := newTestStore(t, 10)

	_, err := store.db.Exec(
		`INSERT INTO favorites (icao, channel_description, play_count, last_used) VALUES (?, ?, NULL, NULL)`,
		"LOWW", "Tower",
	)
	if err != nil {
		t.Fatalf("failed to insert legacy row: %v", err)
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].PlayCount != 1 {
		t.Errorf("expected missing play count to default to 1, got %d", entries[0].PlayCount)
	}
	if time.Since(entries[0].LastUsed) > time.Minute {
		t.Errorf("expected missing timestamp to default to now, got %v", entries[0].LastUsed)
	}
}

func TestFavoritesSurviveReopen(t *testing.T) {
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	path := filepath.Join(t.TempDir(), "favorites.db")

	store, err := NewFavoritesStore(path, 10, log)
	if err != nil {
		t.Fatalf("failed to open favorites store: %v", err)
	}
	if err := store.Record("KJFK", "Tower"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewFavoritesStore(path, 10, log)
	if err != nil {
		t.Fatalf("failed to reopen favorites store: %v", err)
	}
	defer reopened.Close()

	entries, err := reopened.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].ICAO != "KJFK" {
		t.Fatalf("expected persisted favorite after reopen, got %+v", entries)
	}
}
