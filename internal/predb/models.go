package predb

import "time"

// NukeStatus tracks the scene nuke state of a catalog entry.
type NukeStatus int

const (
	NukeNone        NukeStatus = 0 // entry is not nuked
	NukeUnNuked     NukeStatus = 1 // nuke was lifted
	NukeNuked       NukeStatus = 2 // entry is nuked
	NukeModReason   NukeStatus = 3 // nuke reason was modified
	NukeReNuked     NukeStatus = 4 // entry was nuked again
	NukeStale       NukeStatus = 5 // nuked for being old
)

// Entry is a canonical release record in the reference catalog. Entries are
// append-only ground truth: nothing in this repository mutates them.
type Entry struct {
	ID         int64
	Title      string
	Filename   string
	Size       string
	Category   string
	PreDate    *time.Time
	Source     string
	RequestID  int64
	GroupsID   int64
	Nuked      NukeStatus
	NukeReason string
	Files      string
}

// Tier classifies how a match against the catalog was obtained.
type Tier string

const (
	TierExact           Tier = "exact"
	TierExactFilename   Tier = "exact_filename"
	TierNormalizedExact Tier = "normalized_exact"
	TierFuzzy           Tier = "fuzzy"
)

// MatchResult is the outcome of resolving a candidate name against the
// catalog. The zero value means no match. Fuzzy matches carry the similarity
// percentage and edit distance that accepted them.
type MatchResult struct {
	Matched    bool
	Tier       Tier
	CatalogID  int64
	Title      string
	Similarity float64
	Distance   int
}
