// Package sqlbuilder constructs and validates the SQL that Vizor executes.
//
// It has two paths. The structured path assembles a statement from discrete,
// whitelisted fields: identifiers are checked against the live schema and
// safely quoted, values are parameter-bound. The raw path accepts
// caller-supplied SELECT text and subjects it to an ordered safety filter.
// Both paths are pure with respect to the database and deterministic:
// identical input yields byte-identical SQL text.
package sqlbuilder

import "time"

// MaxRows is the hard ceiling on result rows. A requested limit is clamped
// to it and never raised above it.
const MaxRows = 1000

// DefaultLimit applies when the structured path receives no limit.
const DefaultLimit = 100

// Statement is a validated, ready-to-execute query. Constructed per request,
// executed once, discarded.
type Statement struct {
	SQL     string
	Args    []any
	MaxRows int
	Timeout time.Duration
}
