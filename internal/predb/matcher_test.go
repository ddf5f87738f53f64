package predb_test

import (
	"context"
	"testing"

	"retitle/internal/predb"
)

// stubCatalog is an in-memory Catalog that counts fuzzy pool queries so tests
// can assert the cascade short-circuits.
type stubCatalog struct {
	entries    []predb.Entry
	poolCalls  int
	titleCalls int
}

func (s *stubCatalog) FindByTitle(_ context.Context, title string) (*predb.Entry, error) {
	s.titleCalls++
	for i := range s.entries {
		if s.entries[i].Title == title {
			return &s.entries[i], nil
		}
	}
	return nil, nil
}

func (s *stubCatalog) FindByFilename(_ context.Context, name string) (*predb.Entry, error) {
	for i := range s.entries {
		if s.entries[i].Filename != "" && s.entries[i].Filename == name {
			return &s.entries[i], nil
		}
	}
	return nil, nil
}

func (s *stubCatalog) CandidatesByLengthRange(_ context.Context, minLen, maxLen, limit int) ([]predb.Entry, error) {
	s.poolCalls++
	var out []predb.Entry
	for _, e := range s.entries {
		if len(e.Title) >= minLen && len(e.Title) <= maxLen {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func defaultConfig() predb.MatcherConfig {
	return predb.MatcherConfig{FuzzyEnabled: true, MinSimilarity: 85, MaxDistance: 5}
}

func TestResolveEmptyCandidateFailsClosed(t *testing.T) {
	catalog := &stubCatalog{}
	matcher := predb.NewMatcher(catalog, defaultConfig(), nil)

	result, err := matcher.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Matched {
		t.Fatalf("expected no match for empty candidate, got %+v", result)
	}
	if catalog.titleCalls != 0 || catalog.poolCalls != 0 {
		t.Fatal("expected no catalog lookups for empty candidate")
	}
}

func TestResolveExactShortCircuits(t *testing.T) {
	catalog := &stubCatalog{entries: []predb.Entry{
		{ID: 7, Title: "Show.Name.S01E01.720p"},
	}}
	matcher := predb.NewMatcher(catalog, defaultConfig(), nil)

	result, err := matcher.Resolve(context.Background(), "Show.Name.S01E01.720p")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !result.Matched || result.Tier != predb.TierExact {
		t.Fatalf("expected exact tier match, got %+v", result)
	}
	if result.CatalogID != 7 {
		t.Fatalf("unexpected catalog id: %d", result.CatalogID)
	}
	if catalog.poolCalls != 0 {
		t.Fatalf("fuzzy pool evaluated %d times, want 0", catalog.poolCalls)
	}
}

func TestResolveFilenameReturnsCatalogTitle(t *testing.T) {
	catalog := &stubCatalog{entries: []predb.Entry{
		{ID: 3, Title: "Proper.Canonical.Title-GRP", Filename: "obfuscated_upload_name"},
	}}
	matcher := predb.NewMatcher(catalog, defaultConfig(), nil)

	result, err := matcher.Resolve(context.Background(), "obfuscated_upload_name")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !result.Matched || result.Tier != predb.TierExactFilename {
		t.Fatalf("expected filename tier match, got %+v", result)
	}
	if result.Title != "Proper.Canonical.Title-GRP" {
		t.Fatalf("expected the catalog's title, got %q", result.Title)
	}
}

func TestResolveNormalizedMatch(t *testing.T) {
	catalog := &stubCatalog{entries: []predb.Entry{
		{ID: 9, Title: "Some Release Name 1080p"},
	}}
	matcher := predb.NewMatcher(catalog, defaultConfig(), nil)

	result, err := matcher.Resolve(context.Background(), "Some.Release.Name.1080p")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !result.Matched || result.Tier != predb.TierNormalizedExact {
		t.Fatalf("expected normalized tier match, got %+v", result)
	}
	if result.Title != "Some Release Name 1080p" {
		t.Fatalf("unexpected matched title: %q", result.Title)
	}
}

func TestResolveFuzzyAcceptsNearMiss(t *testing.T) {
	catalog := &stubCatalog{entries: []predb.Entry{
		{ID: 11, Title: "Some.Release.Name.PROPER.720p-GRP"},
	}}
	matcher := predb.NewMatcher(catalog, defaultConfig(), nil)

	result, err := matcher.Resolve(context.Background(), "Some.Release.Name.PROPER.72Op-GRP")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !result.Matched || result.Tier != predb.TierFuzzy {
		t.Fatalf("expected fuzzy tier match, got %+v", result)
	}
	if result.CatalogID != 11 {
		t.Fatalf("unexpected catalog id: %d", result.CatalogID)
	}
	if result.Similarity < 85 {
		t.Fatalf("similarity %v below floor", result.Similarity)
	}
	if result.Distance > 5 {
		t.Fatalf("distance %d above ceiling", result.Distance)
	}
}

func TestResolveFuzzyRejectsUnrelated(t *testing.T) {
	catalog := &stubCatalog{entries: []predb.Entry{
		{ID: 1, Title: "Generic.Alpha.Pack.2024.Title"},
		{ID: 2, Title: "Another.Short.Generic.Name.XX"},
		{ID: 3, Title: "Nothing.Like.The.Candidate.00"},
	}}
	matcher := predb.NewMatcher(catalog, defaultConfig(), nil)

	result, err := matcher.Resolve(context.Background(), "Completely.Unrelated.Title.2024")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Matched {
		t.Fatalf("expected no match, got %+v", result)
	}
}

func TestResolveFuzzyDisabled(t *testing.T) {
	catalog := &stubCatalog{entries: []predb.Entry{
		{ID: 11, Title: "Some.Release.Name.PROPER.720p-GRP"},
	}}
	cfg := defaultConfig()
	cfg.FuzzyEnabled = false
	matcher := predb.NewMatcher(catalog, cfg, nil)

	result, err := matcher.Resolve(context.Background(), "Some.Release.Name.PROPER.72Op-GRP")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Matched {
		t.Fatalf("expected no match with fuzzy disabled, got %+v", result)
	}
	if catalog.poolCalls != 0 {
		t.Fatalf("fuzzy pool evaluated %d times, want 0", catalog.poolCalls)
	}
}

func TestResolveFuzzyTieBreaksOnFirstSeen(t *testing.T) {
	// Two entries with identical titles score identically; the pool is
	// ordered by id, so the lower id must win.
	catalog := &stubCatalog{entries: []predb.Entry{
		{ID: 4, Title: "Some.Release.Name.PROPER.720p-GRP"},
		{ID: 8, Title: "Some.Release.Name.PROPER.720p-GRP"},
	}}
	matcher := predb.NewMatcher(catalog, defaultConfig(), nil)

	result, err := matcher.Resolve(context.Background(), "Some.Release.Name.PROPER.72Op-GRP")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !result.Matched || result.CatalogID != 4 {
		t.Fatalf("expected tie to keep first-seen entry 4, got %+v", result)
	}
}
