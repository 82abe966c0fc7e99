// Package answer models the answer API response and classifies its items.
//
// A response is either {"answers": [...]} or a single item. Items keep
// their raw JSON so they can be replayed verbatim, for example when an
// extended-contents sub-answer is embedded in a button payload.
package answer
