package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// ChangeType classifies a difference between two runs.
type ChangeType int

const (
	Added ChangeType = iota
	Removed
	Changed
)

func (t ChangeType) String() string {
	switch t {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Changed:
		return "changed"
	default:
		return "unknown"
	}
}

// Change is one signature that differs between two runs. From is the zero
// Record for Added and To is the zero Record for Removed.
type Change struct {
	Type ChangeType
	From Record
	To   Record
}

// Path returns the definition path the change concerns.
func (c Change) Path() string {
	if c.Type == Removed {
		return c.From.Path()
	}
	return c.To.Path()
}

// DiffRuns compares the signatures of two runs by hash. Changes are ordered
// by module, then name.
func (s *Store) DiffRuns(ctx context.Context, fromID, toID string) ([]Change, error) {
	from, err := s.ReadSignatures(ctx, fromID)
	if err != nil {
		return nil, fmt.Errorf("diff runs: %w", err)
	}
	to, err := s.ReadSignatures(ctx, toID)
	if err != nil {
		return nil, fmt.Errorf("diff runs: %w", err)
	}
	return diffRecords(from, to), nil
}

func diffRecords(from, to []Record) []Change {
	type key struct{ module, name string }
	old := make(map[key]Record, len(from))
	for _, r := range from {
		old[key{r.Module, r.Name}] = r
	}

	changes := []Change{}
	for _, r := range to {
		k := key{r.Module, r.Name}
		prev, ok := old[k]
		switch {
		case !ok:
			changes = append(changes, Change{Type: Added, To: r})
		case prev.Hash != r.Hash:
			changes = append(changes, Change{Type: Changed, From: prev, To: r})
		}
		delete(old, k)
	}
	for _, r := range old {
		changes = append(changes, Change{Type: Removed, From: r})
	}

	slices.SortFunc(changes, compareChanges)
	return changes
}

func compareChanges(a, b Change) int {
	ar, br := a.To, b.To
	if a.Type == Removed {
		ar = a.From
	}
	if b.Type == Removed {
		br = b.From
	}
	if c := strings.Compare(ar.Module, br.Module); c != 0 {
		return c
	}
	return strings.Compare(ar.Name, br.Name)
}
