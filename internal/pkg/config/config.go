// Package config reads typed values by dotted key. Missing or malformed keys
// yield the zero value so callers can apply their own defaults.
package config

import (
	"io"
	"time"
)

type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt64(key string) int64
	GetUint(key string) uint
	GetFloat64(key string) float64

	// GetMillisecond, GetSecond and GetMinute read an integer in the named unit.
	GetMillisecond(key string) time.Duration
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration

	// GetBinary decodes a standard base64 value.
	GetBinary(key string) []byte

	// GetArray reads either a YAML list or a comma separated string.
	// Blank elements are dropped.
	GetArray(key string) []string
}
