// Package cache remembers finished records by image content hash so the same
// photo is not sent to the vision and language services twice.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/joseph-ayodele/winelabel/internal/entity"
)

// Store is a record cache keyed by content hash. Implementations must be
// safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (entity.ParsedWineRecord, bool, error)
	Put(ctx context.Context, key string, rec entity.ParsedWineRecord) error
	Close() error
}

// Key is the hex SHA-256 of the image bytes.
func Key(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}
