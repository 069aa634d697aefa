package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ResultKey builds the cache key for a finished pipeline result. Two
// requests over the same text with the same knobs share one entry.
func ResultKey(kind, text, style, dialect string, citations bool) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("result:%s:%s:%s:%s:%t", kind, hex.EncodeToString(sum[:]), style, dialect, citations)
}
