package config

import (
	"io"
	"time"
)

// Config is a read-only view over layered configuration values.
//
// Missing keys and values that fail to convert yield the zero value, so
// callers decide their own fallbacks.
type Config interface {
	io.Closer

	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	GetInt32(key string) int32
	GetUint64(key string) uint64
	GetFloat64(key string) float64

	// GetSecond reads an integer and scales it to seconds.
	GetSecond(key string) time.Duration
	// GetHour reads an integer and scales it to hours.
	GetHour(key string) time.Duration

	// GetArray splits a comma separated value, dropping blank elements.
	GetArray(key string) []string
	// GetMap parses "k:v,k:v" pairs.
	GetMap(key string) map[string]string
}
