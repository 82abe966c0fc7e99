// Package escalation decides when a conversation is handed to a live agent.
//
// Each answer batch is checked against the escalation triggers in order of
// precedence: an explicit escalate flag, the no-results threshold, the
// negative rating threshold, an offer attribute and a direct escalation
// callback. The first trigger that matches wins. A direct callback escalates
// at once; every other trigger asks the user first and waits for the answer
// in Resolve.
package escalation
