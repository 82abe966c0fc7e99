// ABOUTME: Conversation identity helpers
// ABOUTME: Builds and parses the slack-<channel>-<user> external identity

package session

import "strings"

const identityPrefix = "slack-"

// ExternalID returns the conversation identity for a channel and user.
func ExternalID(channel, user string) string {
	return identityPrefix + channel + "-" + user
}

// ParseExternalID splits an identity built by ExternalID. ok is false for
// identities that did not come from Slack.
func ParseExternalID(id string) (channel, user string, ok bool) {
	rest, found := strings.CutPrefix(id, identityPrefix)
	if !found {
		return "", "", false
	}
	channel, user, found = strings.Cut(rest, "-")
	if !found || channel == "" || user == "" {
		return "", "", false
	}
	return channel, user, true
}
