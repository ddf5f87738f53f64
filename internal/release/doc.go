// Package release persists the items being resolved against the catalog and
// the selection, linking, and attempt-accounting operations the orchestrators
// run over them.
//
// Catalog links are write-once from this package's perspective: LinkMatch and
// BulkLink guard on predb_id = 0, so a resolved release is never relinked
// without an explicit operator reset. Attempt counters saturate rather than
// wrap, keeping re-processing safe to repeat indefinitely.
package release
