// Package markup converts the restricted HTML dialect produced by the chatbot
// API into Slack mrkdwn.
//
// The conversion is a fixed pipeline:
//
//  1. Newlines next to tag boundaries and tab characters are dropped.
//  2. Every tag outside the allow-list is stripped (its text is kept).
//  3. Remaining literal newlines are removed; only <br> and block closers
//     produce line breaks.
//  4. Allowed tags are mapped to mrkdwn (*bold*, _italic_, ~strike~, `code`,
//     ```pre```, bullets).
//  5. Anchors become Slack links (<url|text>).
//  6. HTML entities are decoded.
//
// ToSlack never fails. Markup it does not understand is left as text.
package markup
