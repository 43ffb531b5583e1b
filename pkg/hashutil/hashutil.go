package hashutil

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// etagLength is the number of hex characters kept in an entity tag.
const etagLength = 32

// HashBytes returns the hex-encoded BLAKE3 digest of data.
func HashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ETag returns a strong HTTP entity tag for a response body: a quoted,
// truncated BLAKE3 digest.
func ETag(body []byte) string {
	return `"` + HashBytes(body)[:etagLength] + `"`
}
