// Package uid generates identifiers: UUIDv7 strings for correlation and event
// ids, snowflake numbers for primary keys.
package uid

// StringID generates opaque string identifiers.
type StringID interface {
	Generate() string
}

// NumberID generates time ordered numeric identifiers.
type NumberID interface {
	Generate() int64
}
