package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AIResponseKey returns the cache key for a mediated AI response.
// digest is an opaque hash of the request inputs.
func (r *CacheKeyStruct) AIResponseKey(mode, digest string) string {
	return fmt.Sprintf("ai:%s:%s", mode, digest)
}

// ParsedAssignmentKey returns the cache key for a parsed assignment.
func (r *CacheKeyStruct) ParsedAssignmentKey(digest string) string {
	return fmt.Sprintf("assignment:parsed:%s", digest)
}

var CacheKey = NewCacheKeyStruct()
