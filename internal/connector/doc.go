// Package connector runs one inbound Slack event through the whole flow:
// verification, dedup, normalization, the answer API, rendering,
// escalation and ratings.
//
// Handle never writes to the HTTP response itself. It returns an Outcome
// and leaves the reply to the transport.
package connector
