// Package livechat defines the live-agent chat collaborator used for
// escalations. The chat transport itself lives outside this service; the
// Unavailable client reports that no agents can be reached.
package livechat
