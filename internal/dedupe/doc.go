// Package dedupe decides whether an inbound event should be processed.
//
// Slack retries webhook deliveries and echoes the connector's own posts
// back as events. The guard drops bot echoes and keeps a short history of
// client message ids in the conversation state so a redelivered message is
// answered only once.
package dedupe
