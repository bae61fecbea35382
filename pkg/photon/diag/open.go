package diag

import (
	"errors"

	perrors "github.com/randalmurphal/photon/pkg/photon/errors"
)

// MemoryPath selects the in-process store in Open, and an in-memory
// database in NewSQLiteStore.
const MemoryPath = ":memory:"

// ErrNoPath is returned by Open for an empty path.
var ErrNoPath = errors.New("diagnostics path is empty")

// Open returns the store a diagnostics.path setting names: a MemoryStore for
// MemoryPath, otherwise a SQLiteStore at path using retry for busy errors.
func Open(path string, retry perrors.RetryConfig) (Store, error) {
	switch path {
	case "":
		return nil, ErrNoPath
	case MemoryPath:
		return NewMemoryStore(), nil
	default:
		return NewSQLiteStore(path, WithRetry(retry))
	}
}
