package chunk

import (
	"hash/fnv"
	"strings"
)

// normalize lowercases content and collapses all whitespace runs to single
// spaces, matching the reference dedup normalization
// (trim().to_lowercase().split_whitespace().join(" ")).
func normalize(content string) string {
	fields := strings.Fields(strings.ToLower(content))
	return strings.Join(fields, " ")
}

// contentHash returns a stable 64-bit fingerprint of the chunk's normalized
// content, used to deduplicate across one chunker's lifetime.
func contentHash(content string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(normalize(content)))
	return h.Sum64()
}
