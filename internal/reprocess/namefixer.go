package reprocess

import (
	"context"
	"regexp"
	"strings"

	"retitle/internal/predb"
	"retitle/internal/release"
)

// Outcome is the result of one evidence check. Every call produces a fresh
// value; the fixer holds no match state between items.
type Outcome struct {
	Matched   bool
	CatalogID int64
	Name      string
	Tier      predb.Tier
	Source    release.ProcSource
}

// NameFixer derives a corrected name and catalog link from a block of
// evidence text (NFO contents or newline-joined file names). Implementations
// must not mutate the item; the engine applies accepted outcomes.
type NameFixer interface {
	CheckName(ctx context.Context, item *release.Release, evidence string, source release.ProcSource) (Outcome, error)
}

// Resolver resolves a candidate name against the catalog. *predb.Matcher
// satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, candidate string) (predb.MatchResult, error)
}

// candidateNamePattern picks out release-name-shaped tokens from evidence
// text: dotted or dash-delimited words ending in a group-style suffix.
var candidateNamePattern = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9._()]{8,250}-[A-Za-z0-9_.]{1,40}[A-Za-z0-9]`)

// evidenceExtensions are stripped from candidates pulled out of file
// listings before they are resolved.
var evidenceExtensions = []string{
	".nfo", ".rar", ".par2", ".sfv", ".nzb", ".mkv", ".avi", ".mp4", ".iso", ".zip", ".7z",
}

// maxCandidatesPerItem bounds how many extracted tokens are resolved per
// evidence block.
const maxCandidatesPerItem = 10

// MatcherFixer extracts candidate names from evidence text and resolves
// each through the catalog cascade, accepting the first match.
type MatcherFixer struct {
	resolver Resolver
}

// NewMatcherFixer builds a fixer over the given resolver.
func NewMatcherFixer(resolver Resolver) *MatcherFixer {
	return &MatcherFixer{resolver: resolver}
}

// CheckName scans the evidence for release-name-shaped candidates and
// returns the first one the catalog resolves. A no-match is not an error.
func (f *MatcherFixer) CheckName(ctx context.Context, _ *release.Release, evidence string, source release.ProcSource) (Outcome, error) {
	for _, candidate := range extractCandidates(evidence) {
		result, err := f.resolver.Resolve(ctx, candidate)
		if err != nil {
			return Outcome{}, err
		}
		if result.Matched {
			return Outcome{
				Matched:   true,
				CatalogID: result.CatalogID,
				Name:      result.Title,
				Tier:      result.Tier,
				Source:    source,
			}, nil
		}
	}
	return Outcome{Source: source}, nil
}

// extractCandidates pulls release-name-shaped tokens out of an evidence
// block, stripping known file extensions and deduplicating while keeping
// the order of first appearance.
func extractCandidates(evidence string) []string {
	tokens := candidateNamePattern.FindAllString(evidence, -1)
	seen := make(map[string]struct{}, len(tokens))
	candidates := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = stripExtension(token)
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		candidates = append(candidates, token)
		if len(candidates) == maxCandidatesPerItem {
			break
		}
	}
	return candidates
}

func stripExtension(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range evidenceExtensions {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}
