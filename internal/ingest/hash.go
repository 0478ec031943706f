package ingest

import (
	"fmt"

	"github.com/zeebo/xxh3"
)

// ContentHash returns the hex xxh3 digest of a file's content. It is used to
// skip files whose content has not changed since the last snapshot.
func ContentHash(data []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}
