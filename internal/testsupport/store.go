package testsupport

import (
	"context"
	"testing"
	"time"

	"retitle/internal/config"
	"retitle/internal/db"
)

// MustOpenDB opens the database for a test config and closes it on cleanup.
func MustOpenDB(t testing.TB, cfg *config.Config) *db.DB {
	t.Helper()

	database, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	})
	return database
}

// SeedEntry inserts a catalog entry and returns its id. Catalog writes are
// out of scope for the resolution core, so tests seed rows directly.
func SeedEntry(t testing.TB, database *db.DB, title, filename string) int64 {
	t.Helper()

	res, err := database.SQL().ExecContext(context.Background(),
		`INSERT INTO predb (title, filename, source) VALUES (?, ?, 'test')`,
		title, nullable(filename))
	if err != nil {
		t.Fatalf("seed predb entry: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("seed predb entry id: %v", err)
	}
	return id
}

// SeedRelease inserts a release created by upstream ingestion: unresolved,
// with name and search name set to the given value.
func SeedRelease(t testing.TB, database *db.DB, searchName string) int64 {
	t.Helper()
	return SeedReleaseFull(t, database, searchName, 0, time.Now().UTC())
}

// SeedReleaseFull inserts a release with an explicit category and add date.
func SeedReleaseFull(t testing.TB, database *db.DB, searchName string, category int64, addDate time.Time) int64 {
	t.Helper()

	res, err := database.SQL().ExecContext(context.Background(),
		`INSERT INTO releases (name, search_name, categories_id, adddate) VALUES (?, ?, ?, ?)`,
		searchName, searchName, category, addDate.Format(time.RFC3339Nano))
	if err != nil {
		t.Fatalf("seed release: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("seed release id: %v", err)
	}
	return id
}

// SeedNFO records precomputed NFO evidence text for a release.
func SeedNFO(t testing.TB, database *db.DB, releaseID int64, nfo string) {
	t.Helper()

	if _, err := database.SQL().ExecContext(context.Background(),
		`INSERT INTO release_nfos (releases_id, nfo) VALUES (?, ?)`, releaseID, nfo); err != nil {
		t.Fatalf("seed nfo: %v", err)
	}
}

// SeedFiles records member-file names for a release.
func SeedFiles(t testing.TB, database *db.DB, releaseID int64, names ...string) {
	t.Helper()

	for _, name := range names {
		if _, err := database.SQL().ExecContext(context.Background(),
			`INSERT INTO release_files (releases_id, name) VALUES (?, ?)`, releaseID, name); err != nil {
			t.Fatalf("seed file name: %v", err)
		}
	}
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
