// Package lang provides the localized string tables used in user-facing
// messages.
//
// Tables are embedded TOML files, one per language (en, es, fr, it). Keys
// missing from the selected language fall back to English, and keys missing
// from English translate to themselves, so option labels coming from the
// answer API pass through untouched.
//
// Parameters are written as $name in the table and substituted by Translate:
//
//	m.Translate("agent_joined", map[string]string{"agentName": "Ana"})
package lang
