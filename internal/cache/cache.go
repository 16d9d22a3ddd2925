package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// NoMatch is stored for names that resolved to nothing, so a repeated miss
// does not rescan the catalog.
const NoMatch = -1

// Cache memoizes affix name resolution results.
type Cache interface {
	Get(key string) (int, bool)
	Set(key string, id int)
	Delete(key string)
	Clear()
}

// Key derives a cache key from a raw affix name.
func Key(name string) string {
	hash := sha256.Sum256([]byte(name))
	return "buildlore:resolve:v1:" + hex.EncodeToString(hash[:])
}
