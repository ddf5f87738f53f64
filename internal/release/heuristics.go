package release

import (
	"regexp"
	"strings"
)

// Heuristics selects which malformed-name patterns a run opts into. The
// patterns are OR-combined: a name matching any selected heuristic is kept.
type Heuristics struct {
	// Hash keeps names that are bare 32-40 character lowercase hex strings
	// (MD5/SHA1-shaped), optionally followed by a dash suffix.
	Hash bool
	// YEnc keeps names still carrying the yEnc transfer-encoding marker.
	YEnc bool
	// Short keeps names shorter than 15 characters.
	Short bool
	// NoGroup keeps names lacking a trailing group-indicator suffix.
	NoGroup bool
}

const shortNameThreshold = 15

var (
	hashNamePattern    = regexp.MustCompile(`^[a-f0-9]{32,40}(-|$)`)
	groupSuffixPattern = regexp.MustCompile(`[-.]\w+$`)
)

// AllHeuristics selects every pattern.
func AllHeuristics() Heuristics {
	return Heuristics{Hash: true, YEnc: true, Short: true, NoGroup: true}
}

// Empty reports whether no heuristic is selected.
func (h Heuristics) Empty() bool {
	return !h.Hash && !h.YEnc && !h.Short && !h.NoGroup
}

// Normalized returns the set with the default applied: when nothing is
// opted into, every heuristic is selected.
func (h Heuristics) Normalized() Heuristics {
	if h.Empty() {
		return AllHeuristics()
	}
	return h
}

// Matches reports whether a search name triggers any selected heuristic.
func (h Heuristics) Matches(name string) bool {
	if h.Hash && hashNamePattern.MatchString(name) {
		return true
	}
	if h.YEnc && strings.Contains(name, "yEnc") {
		return true
	}
	if h.Short && len(name) < shortNameThreshold {
		return true
	}
	if h.NoGroup && !groupSuffixPattern.MatchString(name) {
		return true
	}
	return false
}
