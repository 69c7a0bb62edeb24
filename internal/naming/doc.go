// Package naming maps raw or file-derived step identifiers to the
// registry's canonical step-type keys.
//
// Canonicalize tries, in order: exact key match; case and separator
// insensitive match; the same two after stripping a trailing job type;
// and finally an order-insensitive token match that splits names on
// capitalization boundaries and expands known abbreviations. The first
// strategy that yields exactly one key wins.
package naming
