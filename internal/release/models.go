package release

import "time"

// ProcSource identifies an evidence source whose processing state is tracked
// per release: a "has been tried" flag plus a bounded attempt counter.
type ProcSource string

const (
	SourceNFO     ProcSource = "nfo"
	SourceFiles   ProcSource = "files"
	SourcePar2    ProcSource = "par2"
	SourceUID     ProcSource = "uid"
	SourceHash16k ProcSource = "hash16k"
	SourceSRR     ProcSource = "srr"
	SourceCRC32   ProcSource = "crc32"
)

// AllSources returns the ordered list of tracked evidence sources.
func AllSources() []ProcSource {
	return []ProcSource{
		SourceNFO,
		SourceFiles,
		SourcePar2,
		SourceUID,
		SourceHash16k,
		SourceSRR,
		SourceCRC32,
	}
}

// attemptCap saturates attempt counters; they are persisted as small
// fixed-width integers and must never wrap.
const attemptCap = 255

// Release is an item whose identity is being resolved against the catalog.
// PredbID of zero means unresolved; once nonzero it is never silently
// overwritten by a lower-confidence match.
type Release struct {
	ID           int64
	Name         string
	SearchName   string
	GroupsID     int64
	CategoriesID int64
	PredbID      int64
	AddDate      time.Time

	ProcNFO     bool
	ProcFiles   bool
	ProcPar2    bool
	ProcUID     bool
	ProcHash16k bool
	ProcSRR     bool
	ProcCRC32   bool

	NFOAttempts     int
	FilesAttempts   int
	Par2Attempts    int
	UIDAttempts     int
	Hash16kAttempts int
	SRRAttempts     int
	CRC32Attempts   int
}

// Resolved reports whether the release is linked to a catalog entry.
func (r Release) Resolved() bool {
	return r.PredbID > 0
}

// Attempts returns the attempt counter for a source.
func (r Release) Attempts(source ProcSource) int {
	switch source {
	case SourceNFO:
		return r.NFOAttempts
	case SourceFiles:
		return r.FilesAttempts
	case SourcePar2:
		return r.Par2Attempts
	case SourceUID:
		return r.UIDAttempts
	case SourceHash16k:
		return r.Hash16kAttempts
	case SourceSRR:
		return r.SRRAttempts
	case SourceCRC32:
		return r.CRC32Attempts
	default:
		return 0
	}
}

// LinkPair associates a release with the catalog entry it should link to.
type LinkPair struct {
	ReleaseID int64
	PredbID   int64
}

// Selection describes which releases a run operates on.
type Selection struct {
	// UnmatchedOnly restricts the selection to releases without a catalog link.
	UnmatchedOnly bool
	// Category restricts to a category id; zero means all categories.
	Category int64
	// Limit caps the selection size. Zero or negative means no cap.
	Limit int
	// Heuristics, when non-nil, keeps only releases whose search name looks
	// poorly identified. An empty set applies all heuristics.
	Heuristics *Heuristics
}
