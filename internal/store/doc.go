// Package store provides the key-value persistence behind conversation
// sessions.
//
// # Model
//
// Values are opaque byte slices addressed by (session ID, key). A session ID
// is the external identity of a Slack conversation
// ("slack-<channel>-<user>"); keys are the individual state variables
// (chatOnGoing, messageIds, ...). Reads of a missing key return ErrNotFound
// so callers can apply their own defaults.
//
// # Implementations
//
//   - SQLiteStore: durable store using modernc.org/sqlite (pure Go, no cgo)
//   - MockStore: in-memory store for tests
//
// # Eviction
//
// Sessions are never deleted explicitly by the connector. Prune removes every
// session whose most recent write is older than a cutoff; the serve command
// schedules it with StartPruner.
//
// # SQLite Configuration
//
//	PRAGMA journal_mode=WAL;
//
// Use NewSQLiteStore(":memory:") for integration tests with real SQLite.
package store
