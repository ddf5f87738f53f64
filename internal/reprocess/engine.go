package reprocess

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"retitle/internal/logging"
	"retitle/internal/release"
)

const (
	defaultLimit     = 1000
	defaultBatchSize = 100
)

// Options configures a reprocessing run.
type Options struct {
	// ResetFlags zeroes the processing flags and attempt counters for the
	// selected releases before processing them.
	ResetFlags bool
	// UnmatchedOnly restricts the selection to releases without a catalog link.
	UnmatchedOnly bool
	// Category restricts to a category id; zero means all categories.
	Category int64
	// Limit caps the selection size. Zero means the default of 1000.
	Limit int
	// BatchSize controls how many releases are processed per batch.
	// Zero means the default of 100.
	BatchSize int
	// DryRun simulates the run without writing anything.
	DryRun bool
	// ShowDetails logs every match at info level instead of debug.
	ShowDetails bool
	// Heuristics, when non-nil, restricts the selection to releases whose
	// search name looks poorly identified.
	Heuristics *release.Heuristics
}

func (o Options) normalized() Options {
	if o.Limit <= 0 {
		o.Limit = defaultLimit
	}
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	return o
}

func (o Options) selection() release.Selection {
	return release.Selection{
		UnmatchedOnly: o.UnmatchedOnly,
		Category:      o.Category,
		Limit:         o.Limit,
		Heuristics:    o.Heuristics,
	}
}

// RunSummary aggregates the outcome of one run. It is never persisted.
type RunSummary struct {
	RunID     string
	Selected  int
	Processed int
	Matched   int
	Unchanged int
	Errors    int
	Reset     int64
	DryRun    bool
	Elapsed   time.Duration
}

// MatchRate returns the matched percentage of processed releases.
func (s RunSummary) MatchRate() float64 {
	if s.Processed == 0 {
		return 0
	}
	return float64(s.Matched) * 100 / float64(s.Processed)
}

// ItemStore is the release-store surface the engine needs. *release.Store
// satisfies it.
type ItemStore interface {
	Select(ctx context.Context, sel release.Selection) ([]*release.Release, error)
	ResetProcessing(ctx context.Context, sel release.Selection) (int64, error)
	LinkMatch(ctx context.Context, id, predbID int64, searchName string) (bool, error)
	IncrementAttempts(ctx context.Context, id int64, sources ...release.ProcSource) error
	MarkProcessed(ctx context.Context, id int64, source release.ProcSource) error
	NFOText(ctx context.Context, id int64) (string, error)
	FileNames(ctx context.Context, id int64) ([]string, error)
}

// Engine selects poorly identified releases and runs each through the
// evidence cascade, falling back to the catalog matcher.
type Engine struct {
	store    ItemStore
	fixer    NameFixer
	resolver Resolver
	logger   *slog.Logger
}

// New builds an engine. fixer may be nil to skip the evidence cascade;
// logger may be nil.
func New(store ItemStore, fixer NameFixer, resolver Resolver, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{store: store, fixer: fixer, resolver: resolver, logger: logger}
}

// Run executes one reprocessing pass: select, optionally reset flags,
// process in batches, report. Per-release failures are counted and never
// abort the run.
func (e *Engine) Run(ctx context.Context, opts Options) (*RunSummary, error) {
	opts = opts.normalized()
	start := time.Now()
	summary := &RunSummary{RunID: uuid.NewString(), DryRun: opts.DryRun}
	logger := e.logger.With(logging.String("run_id", summary.RunID))

	items, err := e.store.Select(ctx, opts.selection())
	if err != nil {
		return nil, fmt.Errorf("select releases: %w", err)
	}
	summary.Selected = len(items)
	logger.Info("selection complete",
		logging.Int("selected", len(items)),
		logging.Bool("dry_run", opts.DryRun),
	)
	if len(items) == 0 {
		summary.Elapsed = time.Since(start)
		logger.Info("nothing to do")
		return summary, nil
	}

	if opts.ResetFlags && !opts.DryRun {
		reset, err := e.store.ResetProcessing(ctx, opts.selection())
		if err != nil {
			return nil, fmt.Errorf("reset processing flags: %w", err)
		}
		summary.Reset = reset
		logger.Info("processing flags reset", logging.Int64("releases", reset))
	}

	for offset := 0; offset < len(items); offset += opts.BatchSize {
		end := offset + opts.BatchSize
		if end > len(items) {
			end = len(items)
		}
		for _, item := range items[offset:end] {
			if err := ctx.Err(); err != nil {
				summary.Elapsed = time.Since(start)
				return summary, err
			}
			matched, err := e.processOne(ctx, item, opts, logger)
			summary.Processed++
			switch {
			case err != nil:
				summary.Errors++
				logger.Warn("release failed",
					logging.Int64("release_id", item.ID),
					logging.Error(err),
				)
			case matched:
				summary.Matched++
			default:
				summary.Unchanged++
			}
		}
		logger.Info("batch complete",
			logging.Int("processed", summary.Processed),
			logging.Int("total", len(items)),
			logging.Int("matched", summary.Matched),
		)
	}

	summary.Elapsed = time.Since(start)
	logger.Info("run complete",
		logging.Int("processed", summary.Processed),
		logging.Int("matched", summary.Matched),
		logging.Int("unchanged", summary.Unchanged),
		logging.Int("errors", summary.Errors),
		logging.Float64("match_rate", summary.MatchRate()),
		logging.Duration("elapsed", summary.Elapsed),
	)
	if summary.Matched == 0 {
		logger.Info("no releases matched; consider lowering matching.min_similarity or raising matching.max_distance")
	}
	return summary, nil
}

// processOne runs the evidence cascade for a single release: NFO text
// first, then the file listing, then the catalog matcher on the current
// search name. Returns whether a match was found (and, outside dry-run,
// applied). A panic in a collaborator is converted into the error return
// so one bad release never aborts the run.
func (e *Engine) processOne(ctx context.Context, item *release.Release, opts Options, logger *slog.Logger) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			matched = false
			err = fmt.Errorf("release %d: panic: %v", item.ID, r)
		}
	}()
	outcome, tried, err := e.gatherEvidence(ctx, item)
	if err != nil {
		return false, err
	}

	if !outcome.Matched && e.resolver != nil {
		result, err := e.resolver.Resolve(ctx, item.SearchName)
		if err != nil {
			return false, fmt.Errorf("catalog cascade: %w", err)
		}
		if result.Matched {
			outcome = Outcome{
				Matched:   true,
				CatalogID: result.CatalogID,
				Name:      result.Title,
				Tier:      result.Tier,
			}
		}
	}

	if opts.DryRun {
		if outcome.Matched {
			e.logMatch(logger, item, outcome, opts.ShowDetails)
		}
		return outcome.Matched, nil
	}

	// One increment per release per run for every evidence source consulted,
	// regardless of outcome.
	if len(tried) > 0 {
		if err := e.store.IncrementAttempts(ctx, item.ID, tried...); err != nil {
			return false, fmt.Errorf("increment attempts: %w", err)
		}
		for _, source := range tried {
			if err := e.store.MarkProcessed(ctx, item.ID, source); err != nil {
				return false, fmt.Errorf("mark processed: %w", err)
			}
		}
	}

	if !outcome.Matched {
		return false, nil
	}
	applied, err := e.store.LinkMatch(ctx, item.ID, outcome.CatalogID, outcome.Name)
	if err != nil {
		return false, fmt.Errorf("link match: %w", err)
	}
	if applied {
		e.logMatch(logger, item, outcome, opts.ShowDetails)
	}
	return applied, nil
}

// gatherEvidence runs the NameFixer over the NFO text and then the file
// listing, stopping at the first acceptance. It reports which evidence
// sources were consulted so attempts can be recorded.
func (e *Engine) gatherEvidence(ctx context.Context, item *release.Release) (Outcome, []release.ProcSource, error) {
	if e.fixer == nil {
		return Outcome{}, nil, nil
	}

	var tried []release.ProcSource

	nfo, err := e.store.NFOText(ctx, item.ID)
	if err != nil {
		return Outcome{}, nil, fmt.Errorf("read nfo: %w", err)
	}
	if nfo != "" {
		tried = append(tried, release.SourceNFO)
		outcome, err := e.fixer.CheckName(ctx, item, nfo, release.SourceNFO)
		if err != nil {
			return Outcome{}, tried, fmt.Errorf("nfo evidence: %w", err)
		}
		if outcome.Matched {
			return outcome, tried, nil
		}
	}

	names, err := e.store.FileNames(ctx, item.ID)
	if err != nil {
		return Outcome{}, tried, fmt.Errorf("read file names: %w", err)
	}
	if len(names) > 0 {
		tried = append(tried, release.SourceFiles)
		outcome, err := e.fixer.CheckName(ctx, item, strings.Join(names, "\n"), release.SourceFiles)
		if err != nil {
			return Outcome{}, tried, fmt.Errorf("file name evidence: %w", err)
		}
		if outcome.Matched {
			return outcome, tried, nil
		}
	}
	return Outcome{}, tried, nil
}

func (e *Engine) logMatch(logger *slog.Logger, item *release.Release, outcome Outcome, details bool) {
	attrs := []slog.Attr{
		logging.Int64("release_id", item.ID),
		logging.String("old_name", item.SearchName),
		logging.String("new_name", outcome.Name),
		logging.String("tier", string(outcome.Tier)),
	}
	if outcome.Source != "" {
		attrs = append(attrs, logging.String("evidence", string(outcome.Source)))
	}
	level := slog.LevelDebug
	if details {
		level = slog.LevelInfo
	}
	logger.LogAttrs(context.Background(), level, "release renamed", attrs...)
}

// ResetOnly zeroes processing flags and counters for the selection without
// processing anything. Dry-run reports the selection size only.
func (e *Engine) ResetOnly(ctx context.Context, opts Options) (*RunSummary, error) {
	opts = opts.normalized()
	start := time.Now()
	summary := &RunSummary{RunID: uuid.NewString(), DryRun: opts.DryRun}
	logger := e.logger.With(logging.String("run_id", summary.RunID))

	items, err := e.store.Select(ctx, opts.selection())
	if err != nil {
		return nil, fmt.Errorf("select releases: %w", err)
	}
	summary.Selected = len(items)
	if opts.DryRun || len(items) == 0 {
		summary.Elapsed = time.Since(start)
		logger.Info("flag reset skipped",
			logging.Int("selected", len(items)),
			logging.Bool("dry_run", opts.DryRun),
		)
		return summary, nil
	}

	reset, err := e.store.ResetProcessing(ctx, opts.selection())
	if err != nil {
		return nil, fmt.Errorf("reset processing flags: %w", err)
	}
	summary.Reset = reset
	summary.Elapsed = time.Since(start)
	logger.Info("processing flags reset",
		logging.Int64("releases", reset),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}
