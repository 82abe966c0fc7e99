// Package rating asks users to rate answers and records their ratings.
//
// A rating click is tracked with the answer API right away. Ratings
// configured to ask for a comment leave a pending rating in the session;
// the next plain text message is sent as that rating's comment.
package rating
