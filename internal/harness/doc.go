// Package harness runs signing conformance scenarios.
//
// A scenario names a namespace manifest directory, the options to sign it
// with, and what must come out: either a located error or a signed tree
// satisfying a list of assertions.
//
// # Scenario Format
//
//	name: program
//	description: "Accounts, enums and structs reference each other"
//	namespace: ../namespaces/program
//	options:
//	  workers: 4
//	  strict_duplicates: false
//	expect:
//	  error:
//	    code: E201
//	    line: 3
//	assertions:
//	  - type: kind
//	    path: program.Acc
//	    kind: account
//	  - type: field
//	    path: program.S
//	    field: acc
//	    ty: program.Acc<account>
//
// The namespace path is resolved relative to the scenario file. Omit expect
// when the scenario must sign cleanly.
//
// # Assertion Types
//
//   - kind: the signature at path has the given kind
//   - field: a struct or account field has the given type
//   - variants: an enum has exactly the given variants
//   - returns: a function returns the given type
//   - count: the number of signatures of kind (all kinds when empty)
//   - stored: the signature read back from the run store encodes to json
//   - absent: nothing is signed at path
//
// # Deterministic Testing
//
// Every scenario signs into a fresh in-memory SQLite store with a
// deterministic clock and sequential run IDs, so listings and stored runs
// are identical across executions and can be compared against golden files
// in testdata/golden.
package harness
