// Package ticketing connects the service to the ticketing (messenger) API.
//
// When a conversation is escalated, the Slack identity is stored on the
// user's ticketing record. When an agent later closes a ticket with a
// reply, the webhook event is resolved back to that Slack conversation.
package ticketing
