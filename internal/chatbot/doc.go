// Package chatbot is an HTTP client for the answer API.
//
// The client authenticates with an API key and secret, keeps the access
// token until shortly before it expires, and stores the conversation
// session token in the session state so every Slack conversation keeps its
// own answer API conversation.
package chatbot
