// Package slackapi wraps the Slack Web API calls the connector makes:
// posting and updating messages, reading user profiles and downloading
// files shared in a conversation.
package slackapi
