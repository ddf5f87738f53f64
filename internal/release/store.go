package release

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"retitle/internal/db"
)

const releaseColumns = "id, name, search_name, groups_id, categories_id, predb_id, adddate, " +
	"proc_nfo, proc_files, proc_par2, proc_uid, proc_hash16k, proc_srr, proc_crc32, " +
	"proc_nfo_attempts, proc_files_attempts, proc_par2_attempts, proc_uid_attempts, " +
	"proc_hash16k_attempts, proc_srr_attempts, proc_crc32_attempts"

// Store manages release persistence backed by the shared SQLite database.
type Store struct {
	db *db.DB
}

// NewStore wraps the shared database with release queries.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// GetByID fetches a release by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Release, error) {
	row := s.db.SQL().QueryRowContext(ctx,
		`SELECT `+releaseColumns+` FROM releases WHERE id = ?`, id)
	rel, err := scanRelease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get release: %w", err)
	}
	return rel, nil
}

// Select returns releases matching the selection, newest first. The cheap
// filters (catalog link, category) run in SQL; heuristic name patterns are
// applied while streaming rows so the full table is never materialized.
func (s *Store) Select(ctx context.Context, sel Selection) ([]*Release, error) {
	query := `SELECT ` + releaseColumns + ` FROM releases`
	var (
		clauses []string
		args    []any
	)
	if sel.UnmatchedOnly {
		clauses = append(clauses, "predb_id = 0")
	}
	if sel.Category > 0 {
		clauses = append(clauses, "categories_id = ?")
		args = append(args, sel.Category)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC"

	rows, err := s.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select releases: %w", err)
	}
	defer rows.Close()

	var heuristics *Heuristics
	if sel.Heuristics != nil {
		normalized := sel.Heuristics.Normalized()
		heuristics = &normalized
	}

	var selected []*Release
	for rows.Next() {
		rel, err := scanRelease(rows)
		if err != nil {
			return nil, fmt.Errorf("scan release: %w", err)
		}
		if heuristics != nil && !heuristics.Matches(rel.SearchName) {
			continue
		}
		selected = append(selected, rel)
		if sel.Limit > 0 && len(selected) >= sel.Limit {
			break
		}
	}
	return selected, rows.Err()
}

// LinkMatch links a release to a catalog entry and updates its search name.
// The update is conditional on the release still being unresolved, so an
// existing link is never overwritten. Returns whether the link was applied.
func (s *Store) LinkMatch(ctx context.Context, id, predbID int64, searchName string) (bool, error) {
	res, err := s.db.ExecWithRetry(ctx,
		`UPDATE releases SET predb_id = ?, search_name = ? WHERE id = ? AND predb_id = 0`,
		predbID, searchName, id)
	if err != nil {
		return false, fmt.Errorf("link match: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// BulkLink applies a batch of release-to-catalog links as one conditional
// statement: every pair in the batch either applies or none do. Pairs whose
// release has gained a link since selection are skipped by the predb_id guard.
// Returns the number of releases actually linked.
func (s *Store) BulkLink(ctx context.Context, pairs []LinkPair) (int64, error) {
	if len(pairs) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	args := make([]any, 0, len(pairs)*3)
	sb.WriteString("UPDATE releases SET predb_id = CASE id")
	for _, pair := range pairs {
		sb.WriteString(" WHEN ? THEN ?")
		args = append(args, pair.ReleaseID, pair.PredbID)
	}
	sb.WriteString(" END WHERE predb_id = 0 AND id IN (")
	for i, pair := range pairs {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('?')
		args = append(args, pair.ReleaseID)
	}
	sb.WriteByte(')')

	res, err := s.db.ExecWithRetry(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("bulk link: %w", err)
	}
	return res.RowsAffected()
}

// IncrementAttempts bumps the attempt counter for each given source on a
// release. Counters saturate at their cap instead of wrapping.
func (s *Store) IncrementAttempts(ctx context.Context, id int64, sources ...ProcSource) error {
	if len(sources) == 0 {
		return nil
	}
	assignments := make([]string, 0, len(sources))
	for _, source := range sources {
		column, ok := attemptColumns[source]
		if !ok {
			return fmt.Errorf("unknown evidence source %q", source)
		}
		assignments = append(assignments,
			fmt.Sprintf("%s = MIN(%s + 1, %d)", column, column, attemptCap))
	}
	query := "UPDATE releases SET " + strings.Join(assignments, ", ") + " WHERE id = ?"
	if _, err := s.db.ExecWithRetry(ctx, query, id); err != nil {
		return fmt.Errorf("increment attempts: %w", err)
	}
	return nil
}

// MarkProcessed sets the tried flag for an evidence source on a release.
func (s *Store) MarkProcessed(ctx context.Context, id int64, source ProcSource) error {
	column, ok := procColumns[source]
	if !ok {
		return fmt.Errorf("unknown evidence source %q", source)
	}
	if _, err := s.db.ExecWithRetry(ctx,
		"UPDATE releases SET "+column+" = 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// ResetProcessing zeroes every processing flag and attempt counter for the
// releases matching the selection, enabling a clean re-attempt. Heuristics in
// the selection are ignored; only the SQL-expressible filters apply.
func (s *Store) ResetProcessing(ctx context.Context, sel Selection) (int64, error) {
	var assignments []string
	for _, source := range AllSources() {
		assignments = append(assignments, procColumns[source]+" = 0")
		assignments = append(assignments, attemptColumns[source]+" = 0")
	}

	inner := "SELECT id FROM releases"
	var (
		clauses []string
		args    []any
	)
	if sel.UnmatchedOnly {
		clauses = append(clauses, "predb_id = 0")
	}
	if sel.Category > 0 {
		clauses = append(clauses, "categories_id = ?")
		args = append(args, sel.Category)
	}
	if len(clauses) > 0 {
		inner += " WHERE " + strings.Join(clauses, " AND ")
	}
	inner += " ORDER BY id DESC"
	if sel.Limit > 0 {
		inner += " LIMIT ?"
		args = append(args, sel.Limit)
	}

	query := "UPDATE releases SET " + strings.Join(assignments, ", ") +
		" WHERE id IN (" + inner + ")"
	res, err := s.db.ExecWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("reset processing: %w", err)
	}
	return res.RowsAffected()
}

// UnresolvedTitleMatches joins unresolved releases to catalog entries whose
// title equals the release's search name, optionally restricted to releases
// added within sinceDays. Pairs come back ordered by release id.
func (s *Store) UnresolvedTitleMatches(ctx context.Context, sinceDays int) ([]LinkPair, error) {
	query := `SELECT releases.id, predb.id
        FROM releases
        JOIN predb ON predb.title = releases.search_name
        WHERE releases.predb_id < 1`
	var args []any
	if sinceDays > 0 {
		// Compare as epoch seconds; adddate strings carry mixed sub-second
		// precision, which breaks lexicographic ordering within a second.
		query += ` AND unixepoch(releases.adddate) > ?`
		cutoff := time.Now().UTC().AddDate(0, 0, -sinceDays)
		args = append(args, cutoff.Unix())
	}
	query += ` ORDER BY releases.id`

	rows, err := s.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("unresolved title matches: %w", err)
	}
	defer rows.Close()

	var pairs []LinkPair
	for rows.Next() {
		var pair LinkPair
		if err := rows.Scan(&pair.ReleaseID, &pair.PredbID); err != nil {
			return nil, fmt.Errorf("scan match pair: %w", err)
		}
		pairs = append(pairs, pair)
	}
	return pairs, rows.Err()
}

// NFOText returns the precomputed NFO evidence text for a release, or ""
// when none has been extracted.
func (s *Store) NFOText(ctx context.Context, id int64) (string, error) {
	var nfo string
	err := s.db.SQL().QueryRowContext(ctx,
		`SELECT nfo FROM release_nfos WHERE releases_id = ?`, id).Scan(&nfo)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("nfo text: %w", err)
	}
	return nfo, nil
}

// FileNames returns the member-file names recorded for a release, longest
// first, matching the order evidence consumers expect.
func (s *Store) FileNames(ctx context.Context, id int64) ([]string, error) {
	rows, err := s.db.SQL().QueryContext(ctx,
		`SELECT name FROM release_files WHERE releases_id = ? ORDER BY length(name) DESC, name`, id)
	if err != nil {
		return nil, fmt.Errorf("file names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan file name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

var procColumns = map[ProcSource]string{
	SourceNFO:     "proc_nfo",
	SourceFiles:   "proc_files",
	SourcePar2:    "proc_par2",
	SourceUID:     "proc_uid",
	SourceHash16k: "proc_hash16k",
	SourceSRR:     "proc_srr",
	SourceCRC32:   "proc_crc32",
}

var attemptColumns = map[ProcSource]string{
	SourceNFO:     "proc_nfo_attempts",
	SourceFiles:   "proc_files_attempts",
	SourcePar2:    "proc_par2_attempts",
	SourceUID:     "proc_uid_attempts",
	SourceHash16k: "proc_hash16k_attempts",
	SourceSRR:     "proc_srr_attempts",
	SourceCRC32:   "proc_crc32_attempts",
}

func scanRelease(scanner interface{ Scan(dest ...any) error }) (*Release, error) {
	var (
		rel        Release
		addDateRaw string
		flags      [7]int
		attempts   [7]int
	)
	if err := scanner.Scan(
		&rel.ID,
		&rel.Name,
		&rel.SearchName,
		&rel.GroupsID,
		&rel.CategoriesID,
		&rel.PredbID,
		&addDateRaw,
		&flags[0], &flags[1], &flags[2], &flags[3], &flags[4], &flags[5], &flags[6],
		&attempts[0], &attempts[1], &attempts[2], &attempts[3], &attempts[4], &attempts[5], &attempts[6],
	); err != nil {
		return nil, err
	}

	if addDate, err := time.Parse(time.RFC3339Nano, addDateRaw); err == nil {
		rel.AddDate = addDate
	}

	rel.ProcNFO = flags[0] != 0
	rel.ProcFiles = flags[1] != 0
	rel.ProcPar2 = flags[2] != 0
	rel.ProcUID = flags[3] != 0
	rel.ProcHash16k = flags[4] != 0
	rel.ProcSRR = flags[5] != 0
	rel.ProcCRC32 = flags[6] != 0

	rel.NFOAttempts = attempts[0]
	rel.FilesAttempts = attempts[1]
	rel.Par2Attempts = attempts[2]
	rel.UIDAttempts = attempts[3]
	rel.Hash16kAttempts = attempts[4]
	rel.SRRAttempts = attempts[5]
	rel.CRC32Attempts = attempts[6]

	return &rel, nil
}
