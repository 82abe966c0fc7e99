// Package render turns answer API items into Slack Block Kit messages.
//
// Renderer dispatches on answer.Kind through a table built once in New.
// Every rendered Message also carries a short notification text, taken from
// the first line of the translated body.
//
// Body HTML is split structurally with golang.org/x/net/html: images become
// image blocks, horizontal rules become dividers, and everything else is
// grouped into text runs translated by package markup.
//
// Click payloads embedded in button values are JSON objects the inbound
// package knows how to read back:
//
//	polar question     {"message": <last user text>, "option": <value>}
//	escalation offer   {"escalateOption": true|false}
//	rating             {"askRatingComment", "isNegativeRating", "ratingData"}
//	extended contents  {"extendedContentAnswer": <sub answer>}
//	action field       {"message", "option", "userMessage"}
package render
