package store

import (
	"fmt"
	"time"

	"github.com/roach88/seasign/internal/ir"
)

// Run is one recorded sign run.
type Run struct {
	ID               string
	Seq              int64
	NamespaceHash    string
	SignedHash       string
	StrictDuplicates bool
	Workers          int
	ToolVersion      string
	EncodingVersion  string
	CreatedAt        time.Time
}

// Record is one stored signature.
type Record struct {
	Module string
	Name   string
	// Kind is "struct", "account", "enum", "function" or "builtin".
	Kind string
	// Signature is the RFC 8785 canonical JSON encoding.
	Signature string
	// Hash is the domain-separated hash of Signature.
	Hash string
}

// Path returns the dotted definition path of the record.
func (r Record) Path() string {
	if r.Module == "" {
		return r.Name
	}
	return r.Module + "." + r.Name
}

// NewRecord encodes a signature value for storage.
func NewRecord(module, name, kind string, sig ir.Value) (Record, error) {
	data, err := ir.MarshalCanonical(sig)
	if err != nil {
		return Record{}, fmt.Errorf("marshal signature %s.%s: %w", module, name, err)
	}
	hash, err := ir.SignatureHash(sig)
	if err != nil {
		return Record{}, fmt.Errorf("hash signature %s.%s: %w", module, name, err)
	}
	return Record{Module: module, Name: name, Kind: kind, Signature: string(data), Hash: hash}, nil
}

// Timestamps are stored as RFC 3339 text with nanoseconds so they sort and
// round-trip exactly.
const timeLayout = time.RFC3339Nano

func marshalTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func unmarshalTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unmarshal time: %w", err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
