// Package predb models the reference catalog of canonical release titles and
// resolves noisy candidate names against it.
//
// The catalog is append-only ground truth: the Store exposes read-only
// lookups and the Matcher never writes. Matching runs as a strict cascade
// (exact title, exact filename, normalized title, fuzzy) so the expensive
// similarity scoring only runs when every cheaper strategy has failed.
package predb
