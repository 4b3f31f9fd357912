package store

import (
	"context"
	"fmt"
)

const selectRun = `
	SELECT id, seq, namespace_hash, signed_hash, strict_duplicates, workers, tool_version, encoding_version, created_at
	FROM sign_runs`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run       Run
		strict    int
		createdAt string
	)
	err := row.Scan(
		&run.ID,
		&run.Seq,
		&run.NamespaceHash,
		&run.SignedHash,
		&strict,
		&run.Workers,
		&run.ToolVersion,
		&run.EncodingVersion,
		&createdAt,
	)
	if err != nil {
		return Run{}, err
	}
	run.StrictDuplicates = strict != 0
	run.CreatedAt, err = unmarshalTime(createdAt)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ReadRun returns a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	return scanRun(s.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id))
}

// LatestRun returns the most recently written run.
// Returns sql.ErrNoRows if the store is empty.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	return scanRun(s.db.QueryRowContext(ctx, selectRun+` ORDER BY seq DESC LIMIT 1`))
}

// RunByNamespaceHash returns the latest run computed from the given
// namespace. Returns sql.ErrNoRows if there is none.
func (s *Store) RunByNamespaceHash(ctx context.Context, hash string) (Run, error) {
	return scanRun(s.db.QueryRowContext(ctx,
		selectRun+` WHERE namespace_hash = ? ORDER BY seq DESC LIMIT 1`, hash))
}

// ListRuns returns every run in write order.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, selectRun+` ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadSignatures returns the signatures of a run ordered by
// module, name COLLATE BINARY.
// Returns an empty slice (not nil) if the run has none.
func (s *Store) ReadSignatures(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT module, name, kind, signature, signature_hash
		FROM signatures
		WHERE run_id = ?
		ORDER BY module COLLATE BINARY ASC, name COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query signatures: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Module, &r.Name, &r.Kind, &r.Signature, &r.Hash); err != nil {
			return nil, fmt.Errorf("scan signature: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signatures: %w", err)
	}
	return records, nil
}

// GetLastSeq returns the highest run seq, or 0 for an empty store.
func (s *Store) GetLastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM sign_runs`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq, nil
}
