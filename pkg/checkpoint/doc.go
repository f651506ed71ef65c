// Package checkpoint persists collection cursors for external resume.
//
// The iterator's cursor (collection.Cursor) is the only durable value a
// collection exposes: saving it lets a later process continue iteration
// where the previous one stopped, by issuing the initial request with
// the saved cursor's parameters. The package never stores pages or
// entries.
//
// Two backends are provided:
//
//   - RedisStore, for checkpoints shared across processes
//   - SQLiteStore, for single-process tools without external infrastructure
//
// # Basic Usage
//
//	store := checkpoint.NewRedisStore(redisClient, 24*time.Hour)
//
//	// While iterating, persist progress periodically:
//	if err := store.Save(ctx, "folder-12345", it.NextCursor()); err != nil {
//		return err
//	}
//
//	// In a later process:
//	cursor, err := store.Load(ctx, "folder-12345")
//	if err == checkpoint.ErrNotFound {
//		// start from the beginning
//	}
//	if !cursor.Valid {
//		// the collection was fully drained
//	}
//
// # Metrics
//
// Operations and failures are counted per backend and operation:
//
//   - collection_checkpoint_operations_total{backend, operation}
//   - collection_checkpoint_errors_total{backend, operation}
package checkpoint
