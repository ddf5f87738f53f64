package release_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"retitle/internal/release"
	"retitle/internal/testsupport"
)

func TestSelectFiltersAndOrders(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	database := testsupport.MustOpenDB(t, cfg)
	store := release.NewStore(database)
	ctx := context.Background()

	first := testsupport.SeedRelease(t, database, "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4")
	second := testsupport.SeedRelease(t, database, "Well.Named.Release.720p-GRP")
	third := testsupport.SeedRelease(t, database, "short name")

	selected, err := store.Select(ctx, release.Selection{
		UnmatchedOnly: true,
		Heuristics:    &release.Heuristics{},
	})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(selected) != 2 {
		t.Fatalf("expected 2 poorly-named releases, got %d", len(selected))
	}
	// Newest first.
	if selected[0].ID != third || selected[1].ID != first {
		t.Fatalf("unexpected order: %d, %d", selected[0].ID, selected[1].ID)
	}
	_ = second
}

func TestSelectRespectsLimitAndCategory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	database := testsupport.MustOpenDB(t, cfg)
	store := release.NewStore(database)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		testsupport.SeedReleaseFull(t, database, fmt.Sprintf("cat7-%d", i), 7, time.Now().UTC())
	}
	testsupport.SeedReleaseFull(t, database, "cat9-a", 9, time.Now().UTC())

	selected, err := store.Select(ctx, release.Selection{Category: 7, Limit: 3})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(selected) != 3 {
		t.Fatalf("expected limit of 3, got %d", len(selected))
	}
	for _, rel := range selected {
		if rel.CategoriesID != 7 {
			t.Fatalf("category filter leaked release %+v", rel)
		}
	}
}

func TestLinkMatchNeverOverwrites(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	database := testsupport.MustOpenDB(t, cfg)
	store := release.NewStore(database)
	ctx := context.Background()

	id := testsupport.SeedRelease(t, database, "Obscure.Name")
	entryA := testsupport.SeedEntry(t, database, "Canonical.Title-A", "")
	entryB := testsupport.SeedEntry(t, database, "Canonical.Title-B", "")

	linked, err := store.LinkMatch(ctx, id, entryA, "Canonical.Title-A")
	if err != nil {
		t.Fatalf("LinkMatch failed: %v", err)
	}
	if !linked {
		t.Fatal("expected first link to apply")
	}

	linked, err = store.LinkMatch(ctx, id, entryB, "Canonical.Title-B")
	if err != nil {
		t.Fatalf("LinkMatch failed: %v", err)
	}
	if linked {
		t.Fatal("expected second link to be a no-op")
	}

	rel, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if rel.PredbID != entryA || rel.SearchName != "Canonical.Title-A" {
		t.Fatalf("existing link was overwritten: %+v", rel)
	}
}

func TestBulkLinkAppliesBatchConditionally(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	database := testsupport.MustOpenDB(t, cfg)
	store := release.NewStore(database)
	ctx := context.Background()

	entry := testsupport.SeedEntry(t, database, "Batch.Title", "")
	var pairs []release.LinkPair
	for i := 0; i < 4; i++ {
		id := testsupport.SeedRelease(t, database, fmt.Sprintf("Batch.Release.%d", i))
		pairs = append(pairs, release.LinkPair{ReleaseID: id, PredbID: entry})
	}

	// Pre-link one release; the guard must skip it without failing the batch.
	other := testsupport.SeedEntry(t, database, "Other.Title", "")
	if _, err := store.LinkMatch(ctx, pairs[1].ReleaseID, other, "Other.Title"); err != nil {
		t.Fatalf("pre-link failed: %v", err)
	}

	linked, err := store.BulkLink(ctx, pairs)
	if err != nil {
		t.Fatalf("BulkLink failed: %v", err)
	}
	if linked != 3 {
		t.Fatalf("expected 3 links applied, got %d", linked)
	}

	rel, err := store.GetByID(ctx, pairs[1].ReleaseID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if rel.PredbID != other {
		t.Fatalf("guarded release was overwritten: %+v", rel)
	}
}

func TestIncrementAttemptsSaturates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	database := testsupport.MustOpenDB(t, cfg)
	store := release.NewStore(database)
	ctx := context.Background()

	id := testsupport.SeedRelease(t, database, "Counter.Release")
	if _, err := database.SQL().ExecContext(ctx,
		`UPDATE releases SET proc_nfo_attempts = 254 WHERE id = ?`, id); err != nil {
		t.Fatalf("prime counter: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := store.IncrementAttempts(ctx, id, release.SourceNFO, release.SourceFiles); err != nil {
			t.Fatalf("IncrementAttempts failed: %v", err)
		}
	}

	rel, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if rel.NFOAttempts != 255 {
		t.Fatalf("expected nfo counter saturated at 255, got %d", rel.NFOAttempts)
	}
	if rel.FilesAttempts != 3 {
		t.Fatalf("expected files counter 3, got %d", rel.FilesAttempts)
	}
}

func TestResetProcessingZeroesFlagsAndCounters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	database := testsupport.MustOpenDB(t, cfg)
	store := release.NewStore(database)
	ctx := context.Background()

	id := testsupport.SeedRelease(t, database, "Reset.Release")
	if _, err := database.SQL().ExecContext(ctx,
		`UPDATE releases SET proc_nfo = 1, proc_files = 1, proc_nfo_attempts = 9, proc_files_attempts = 4 WHERE id = ?`, id); err != nil {
		t.Fatalf("prime flags: %v", err)
	}

	count, err := store.ResetProcessing(ctx, release.Selection{UnmatchedOnly: true})
	if err != nil {
		t.Fatalf("ResetProcessing failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 release reset, got %d", count)
	}

	rel, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if rel.ProcNFO || rel.ProcFiles || rel.NFOAttempts != 0 || rel.FilesAttempts != 0 {
		t.Fatalf("flags or counters not reset: %+v", rel)
	}
}

func TestEvidenceReads(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	database := testsupport.MustOpenDB(t, cfg)
	store := release.NewStore(database)
	ctx := context.Background()

	id := testsupport.SeedRelease(t, database, "Evidence.Release")
	testsupport.SeedNFO(t, database, id, "Canonical.Title.720p-GRP release notes")
	testsupport.SeedFiles(t, database, id, "short.bin", "a.much.longer.member.file.name.mkv")

	nfo, err := store.NFOText(ctx, id)
	if err != nil {
		t.Fatalf("NFOText failed: %v", err)
	}
	if nfo == "" {
		t.Fatal("expected nfo text")
	}

	names, err := store.FileNames(ctx, id)
	if err != nil {
		t.Fatalf("FileNames failed: %v", err)
	}
	if len(names) != 2 || names[0] != "a.much.longer.member.file.name.mkv" {
		t.Fatalf("expected longest-first ordering, got %v", names)
	}

	missing, err := store.NFOText(ctx, id+100)
	if err != nil {
		t.Fatalf("NFOText for missing release failed: %v", err)
	}
	if missing != "" {
		t.Fatalf("expected empty text for missing nfo, got %q", missing)
	}
}

func TestUnresolvedTitleMatchesSinceDaysMixedPrecision(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	database := testsupport.MustOpenDB(t, cfg)
	store := release.NewStore(database)
	ctx := context.Background()

	testsupport.SeedEntry(t, database, "Whole.Second.Title-GRP", "")
	testsupport.SeedEntry(t, database, "Sub.Second.Title-GRP", "")
	testsupport.SeedEntry(t, database, "Ancient.Title-GRP", "")

	// adddate strings carry mixed sub-second precision; both recent rows
	// must clear the cutoff regardless of how the timestamp was formatted.
	now := time.Now().UTC()
	wholeSecond := testsupport.SeedReleaseFull(t, database, "Whole.Second.Title-GRP", 0, now.Truncate(time.Second))
	subSecond := testsupport.SeedReleaseFull(t, database, "Sub.Second.Title-GRP", 0, now.Truncate(time.Second).Add(500*time.Millisecond))
	testsupport.SeedReleaseFull(t, database, "Ancient.Title-GRP", 0, now.AddDate(0, 0, -30))

	pairs, err := store.UnresolvedTitleMatches(ctx, 7)
	if err != nil {
		t.Fatalf("UnresolvedTitleMatches failed: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %+v", pairs)
	}
	if pairs[0].ReleaseID != wholeSecond || pairs[1].ReleaseID != subSecond {
		t.Fatalf("unexpected pairs: %+v", pairs)
	}
}
