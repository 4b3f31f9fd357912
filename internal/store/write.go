package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// WriteRun records a run and its signatures in a single transaction.
//
// Empty ID and zero CreatedAt are filled from the store's ID generator and
// clock; Seq is always assigned by the store. When a run with the same ID
// already exists nothing is written and the stored run is returned with
// inserted=false.
func (s *Store) WriteRun(ctx context.Context, run Run, records []Record) (stored Run, inserted bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, false, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if run.ID == "" {
		run.ID = s.newID()
	} else {
		existing, err := scanRun(tx.QueryRowContext(ctx, selectRun+` WHERE id = ?`, run.ID))
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, fmt.Errorf("write run: select existing: %w", err)
		}
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now()
	}
	run.CreatedAt = run.CreatedAt.UTC()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM sign_runs`).Scan(&run.Seq); err != nil {
		return Run{}, false, fmt.Errorf("write run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sign_runs
		(id, seq, namespace_hash, signed_hash, strict_duplicates, workers, tool_version, encoding_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.NamespaceHash,
		run.SignedHash,
		boolToInt(run.StrictDuplicates),
		run.Workers,
		run.ToolVersion,
		run.EncodingVersion,
		marshalTime(run.CreatedAt),
	)
	if err != nil {
		return Run{}, false, fmt.Errorf("write run: insert: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO signatures
		(run_id, module, name, kind, signature, signature_hash)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, module, name) DO NOTHING
	`)
	if err != nil {
		return Run{}, false, fmt.Errorf("write run: prepare signatures: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, run.ID, r.Module, r.Name, r.Kind, r.Signature, r.Hash); err != nil {
			return Run{}, false, fmt.Errorf("write run: insert signature %s: %w", r.Path(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, false, fmt.Errorf("write run: commit: %w", err)
	}
	return run, true, nil
}

// DeleteRun removes a run and, through the foreign key, its signatures.
// Returns sql.ErrNoRows if the run does not exist.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sign_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
