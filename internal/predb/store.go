package predb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"retitle/internal/db"
)

const entryColumns = "id, title, filename, size, category, predate, source, requestid, groups_id, nuked, nukereason, files"

// Store provides read-only access to the reference catalog.
type Store struct {
	db *db.DB
}

// NewStore wraps the shared database with catalog queries.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// FindByTitle returns the entry whose title equals the candidate, or nil.
func (s *Store) FindByTitle(ctx context.Context, title string) (*Entry, error) {
	row := s.db.SQL().QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM predb WHERE title = ? ORDER BY id LIMIT 1`, title)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by title: %w", err)
	}
	return entry, nil
}

// FindByFilename returns the entry whose alternate filename equals the
// candidate, or nil.
func (s *Store) FindByFilename(ctx context.Context, name string) (*Entry, error) {
	row := s.db.SQL().QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM predb WHERE filename = ? ORDER BY id LIMIT 1`, name)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by filename: %w", err)
	}
	return entry, nil
}

// CandidatesByLengthRange returns entries whose title length falls within
// [minLen, maxLen], ordered by id so fuzzy tie-breaks are deterministic.
func (s *Store) CandidatesByLengthRange(ctx context.Context, minLen, maxLen, limit int) ([]Entry, error) {
	rows, err := s.db.SQL().QueryContext(ctx,
		`SELECT `+entryColumns+` FROM predb WHERE length(title) BETWEEN ? AND ? ORDER BY id LIMIT ?`,
		minLen, maxLen, limit)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// GetByID fetches a catalog entry by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.SQL().QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM predb WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id         int64
		title      string
		filename   sql.NullString
		size       sql.NullString
		category   sql.NullString
		predateRaw sql.NullString
		source     sql.NullString
		requestID  sql.NullInt64
		groupsID   sql.NullInt64
		nuked      sql.NullInt64
		nukeReason sql.NullString
		files      sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&title,
		&filename,
		&size,
		&category,
		&predateRaw,
		&source,
		&requestID,
		&groupsID,
		&nuked,
		&nukeReason,
		&files,
	); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:         id,
		Title:      title,
		Filename:   filename.String,
		Size:       size.String,
		Category:   category.String,
		Source:     source.String,
		RequestID:  requestID.Int64,
		GroupsID:   groupsID.Int64,
		Nuked:      NukeStatus(nuked.Int64),
		NukeReason: nukeReason.String,
		Files:      files.String,
	}
	if predateRaw.Valid && predateRaw.String != "" {
		if predate, err := time.Parse(time.RFC3339Nano, predateRaw.String); err == nil {
			entry.PreDate = &predate
		}
	}
	return entry, nil
}
