// Package ir provides the canonical encoding used to identify signed trees.
//
// This package imports nothing internal. Phases encode their results as
// Values; MarshalCanonical turns a Value into RFC 8785 canonical JSON and the
// hash functions derive domain-separated SHA-256 identities from it.
//
// Key constraints:
//   - no floats and no null
//   - object keys ordered by UTF-16 code units
//   - strings NFC normalised at the serialization boundary
package ir
