// Package reprocess selects poorly identified releases and runs each
// through the evidence cascade: NFO text, then the file listing, then the
// catalog matcher on the current search name. Attempt counters record every
// consulted evidence source so operators can tell retried releases apart
// from never-tried ones.
package reprocess
