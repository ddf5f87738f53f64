package predb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"retitle/internal/similarity"
)

// fuzzyPoolLimit caps the candidate pool size for the fuzzy phase so a run
// never materializes a large slice of the catalog.
const fuzzyPoolLimit = 100

// Catalog is the read-only surface the matcher needs. *Store satisfies it.
type Catalog interface {
	FindByTitle(ctx context.Context, title string) (*Entry, error)
	FindByFilename(ctx context.Context, name string) (*Entry, error)
	CandidatesByLengthRange(ctx context.Context, minLen, maxLen, limit int) ([]Entry, error)
}

// MatcherConfig carries the thresholds for the fuzzy phase.
type MatcherConfig struct {
	FuzzyEnabled  bool
	MinSimilarity float64
	MaxDistance   int
}

// Matcher resolves candidate release names against the catalog using a
// cascade of strategies ordered from cheapest and most confident to most
// expensive: exact title, exact filename, dots-to-spaces normalized title,
// then similarity-scored fuzzy matching.
type Matcher struct {
	catalog Catalog
	cfg     MatcherConfig
	logger  *slog.Logger
}

// NewMatcher builds a matcher over the given catalog. logger may be nil.
func NewMatcher(catalog Catalog, cfg MatcherConfig, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Matcher{catalog: catalog, cfg: cfg, logger: logger}
}

// Resolve runs the cascade for a candidate name, short-circuiting on the
// first phase that succeeds. An empty candidate fails closed with no match.
func (m *Matcher) Resolve(ctx context.Context, candidate string) (MatchResult, error) {
	if candidate == "" {
		return MatchResult{}, nil
	}

	// Phase 1: exact title match.
	entry, err := m.catalog.FindByTitle(ctx, candidate)
	if err != nil {
		return MatchResult{}, fmt.Errorf("exact title lookup: %w", err)
	}
	if entry != nil {
		return MatchResult{Matched: true, Tier: TierExact, CatalogID: entry.ID, Title: candidate}, nil
	}

	// Phase 2: exact filename match. The catalog's title wins, not the candidate.
	entry, err = m.catalog.FindByFilename(ctx, candidate)
	if err != nil {
		return MatchResult{}, fmt.Errorf("exact filename lookup: %w", err)
	}
	if entry != nil {
		return MatchResult{Matched: true, Tier: TierExactFilename, CatalogID: entry.ID, Title: entry.Title}, nil
	}

	// Phase 3: normalized title match (dots to spaces).
	if normalized := strings.ReplaceAll(candidate, ".", " "); normalized != candidate {
		entry, err = m.catalog.FindByTitle(ctx, normalized)
		if err != nil {
			return MatchResult{}, fmt.Errorf("normalized title lookup: %w", err)
		}
		if entry != nil {
			return MatchResult{Matched: true, Tier: TierNormalizedExact, CatalogID: entry.ID, Title: normalized}, nil
		}
	}

	// Phase 4: fuzzy matching, only when enabled.
	if !m.cfg.FuzzyEnabled {
		return MatchResult{}, nil
	}
	return m.fuzzyResolve(ctx, candidate)
}

// fuzzyResolve picks the highest-similarity catalog entry that clears the
// similarity floor and the edit distance ceiling. Ties keep the entry seen
// first in the pool; the pool is ordered by catalog id, so the lowest id wins.
func (m *Matcher) fuzzyResolve(ctx context.Context, candidate string) (MatchResult, error) {
	length := len(candidate)
	lenRange := length / 5
	if lenRange < 5 {
		lenRange = 5
	}

	pool, err := m.catalog.CandidatesByLengthRange(ctx, length-lenRange, length+lenRange, fuzzyPoolLimit)
	if err != nil {
		return MatchResult{}, fmt.Errorf("fuzzy candidate pool: %w", err)
	}

	best := MatchResult{}
	for _, entry := range pool {
		percent := similarity.Percent(candidate, entry.Title)
		if percent < m.cfg.MinSimilarity {
			continue
		}
		distance := similarity.EditDistance(candidate, entry.Title)
		if distance > m.cfg.MaxDistance {
			continue
		}
		m.logger.Debug("fuzzy candidate accepted",
			slog.String("candidate", candidate),
			slog.String("title", entry.Title),
			slog.Float64("similarity", percent),
			slog.Int("distance", distance),
		)
		if !best.Matched || percent > best.Similarity {
			best = MatchResult{
				Matched:    true,
				Tier:       TierFuzzy,
				CatalogID:  entry.ID,
				Title:      entry.Title,
				Similarity: percent,
				Distance:   distance,
			}
		}
	}
	return best, nil
}
