package store

import (
	"fmt"

	"github.com/roach88/seasign/internal/ir"
	"github.com/roach88/seasign/internal/sign"
)

// SignedRecords encodes every signature of a signed tree, ordered by module
// path, then name.
func SignedRecords(o *sign.Output) ([]Record, error) {
	entries := o.Entries()
	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		r, err := NewRecord(e.Module.Key(), e.Name, sign.KindName(e.Signature), sign.EncodeSignature(e.Signature))
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// NewRun describes a sign run over the namespace identified by nsHash. ID,
// Seq and CreatedAt are left for WriteRun to assign.
func NewRun(nsHash string, o *sign.Output, workers int, strict bool) (Run, error) {
	signed, err := sign.Hash(o)
	if err != nil {
		return Run{}, fmt.Errorf("new run: %w", err)
	}
	return Run{
		NamespaceHash:    nsHash,
		SignedHash:       signed,
		StrictDuplicates: strict,
		Workers:          workers,
		ToolVersion:      ir.ToolVersion,
		EncodingVersion:  ir.EncodingVersion,
	}, nil
}
