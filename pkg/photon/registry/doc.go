// Package registry provides a generic thread-safe map with ordered keys.
//
// photon uses it to hold per-queue state that many goroutines reach by queue
// id, such as the in-memory diagnostics logs:
//
//	logs := registry.New[uint64, *queueLog]()
//	log := logs.GetOrCreate(queueID, func() *queueLog { return &queueLog{} })
//
// GetOrCreate is atomic: the factory runs at most once per key, even under
// concurrent access. Keys and Range visit keys in ascending order, so output
// built from a registry is deterministic.
package registry
