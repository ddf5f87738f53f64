// Package reconcile bulk-links unresolved releases to catalog entries whose
// title already equals the release's search name, skipping the match cascade
// entirely.
package reconcile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"retitle/internal/release"
)

// batchSize is the number of link pairs consolidated into a single
// conditional update. The releases table can hold millions of rows, so
// per-row updates are not an option.
const batchSize = 1000

// Result summarizes a reconcile run.
type Result struct {
	// Found is the size of the title-equality join.
	Found int
	// Reconciled is the number of releases actually linked.
	Reconciled int64
	// FailedBatches counts batches that were rolled back and skipped.
	FailedBatches int
	Elapsed       time.Duration
}

// Store is the release persistence surface the reconciler needs.
type Store interface {
	UnresolvedTitleMatches(ctx context.Context, sinceDays int) ([]release.LinkPair, error)
	BulkLink(ctx context.Context, pairs []release.LinkPair) (int64, error)
}

// Reconciler sweeps exact title matches in consolidated batches.
type Reconciler struct {
	store  Store
	logger *slog.Logger
}

// New builds a reconciler. logger may be nil.
func New(store Store, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reconciler{store: store, logger: logger}
}

// Run joins unresolved releases to the catalog on exact title equality and
// applies the links in batches. sinceDays of zero means no date restriction.
// Re-running after success reconciles nothing: every previously linked
// release drops out of the join.
func (r *Reconciler) Run(ctx context.Context, sinceDays int) (*Result, error) {
	started := time.Now()

	pairs, err := r.store.UnresolvedTitleMatches(ctx, sinceDays)
	if err != nil {
		return nil, fmt.Errorf("select unresolved matches: %w", err)
	}

	result := &Result{Found: len(pairs)}
	if len(pairs) == 0 {
		result.Elapsed = time.Since(started)
		r.logger.Info("no releases found to reconcile against the catalog")
		return result, nil
	}

	r.logger.Info("reconciling releases with catalog titles", slog.Int("found", len(pairs)))

	for offset := 0; offset < len(pairs); offset += batchSize {
		end := offset + batchSize
		if end > len(pairs) {
			end = len(pairs)
		}
		batch := pairs[offset:end]

		linked, err := r.store.BulkLink(ctx, batch)
		if err != nil {
			// The batch is a single statement: it rolled back as a unit.
			// Report it and carry on with the next batch.
			result.FailedBatches++
			r.logger.Error("batch link failed",
				slog.Int("batch_start", offset),
				slog.Int("batch_size", len(batch)),
				slog.Any("error", err),
			)
			continue
		}
		result.Reconciled += linked

		percent := float64(end) / float64(len(pairs)) * 100
		r.logger.Info("reconcile progress",
			slog.Int("applied", end),
			slog.Int("found", len(pairs)),
			slog.String("percent", fmt.Sprintf("%.1f%%", percent)),
		)
	}

	result.Elapsed = time.Since(started)
	r.logger.Info("reconcile complete",
		slog.Int64("reconciled", result.Reconciled),
		slog.Int("failed_batches", result.FailedBatches),
		slog.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}
