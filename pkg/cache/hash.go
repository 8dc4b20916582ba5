package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hash returns the SHA-256 of data as a 64-character hex string.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey namespaces a precomputed content hash under a prefix, folding in
// any extra discriminators (resolution, format version).
func hashKey(prefix, contentHash string, extra ...any) string {
	key := prefix + ":" + contentHash
	for _, e := range extra {
		key += fmt.Sprintf(":%v", e)
	}
	return key
}
