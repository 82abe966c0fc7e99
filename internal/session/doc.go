// Package session holds the per-conversation state that outlives a single
// webhook delivery.
//
// A State is loaded from a store.Store at the start of a turn, passed
// explicitly to every component that needs it, and written back once the
// turn is over. Nothing in the connector reaches into the store directly.
//
// # Identity
//
// Conversations are keyed by ExternalID(channel, user), which produces
// "slack-<channel>-<user>". ParseExternalID reverses it.
//
// # Persistence
//
// Each field is stored under its own key as JSON. Save only writes fields
// that changed since Load and deletes fields that went back to their zero
// value, so the store never holds defaults.
package session
