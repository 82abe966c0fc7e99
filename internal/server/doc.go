// ABOUTME: Package server exposes the connector over HTTP
// ABOUTME: Slack events, ticketing webhooks and a health probe

// Package server is the HTTP transport of the connector.
//
// Routes:
//
//	POST /slack/events      Slack Events API and interactivity payloads
//	POST /messenger/events  closed-ticket webhooks, signed with X-Hook-Signature
//	GET  /health            liveness probe
//
// Slack bodies are always acknowledged with 200, even when processing
// fails, so Slack does not redeliver them.
package server
