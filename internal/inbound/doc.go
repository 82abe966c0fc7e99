// Package inbound turns Slack webhook bodies into canonical answer-API
// requests.
//
// # Pipeline
//
//	body ──Parse──▶ Envelope ──Event()──▶ Event ──Classify──▶ Kind
//	                                           └──Normalizer.Normalize──▶ Request
//
// Parse accepts raw JSON and form-encoded "payload=" bodies. Envelope.Event
// picks the message object: the first action for interactive messages, the
// first action rewritten as a quick reply for Block Kit clicks, otherwise the
// event itself.
//
// # Kinds
//
// Classification tries a fixed order because payload shapes overlap:
//
//	PlainText > Button > QuickReply > Sticker > Attachment
//
// Each kind has one normalizer registered in a table built by NewNormalizer.
// Events matching no kind, and plain text with nothing to say, normalize to
// nil and are dropped by the caller.
package inbound
