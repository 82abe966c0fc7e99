// Package config handles configuration loading for slack-connector.
//
// # Overview
//
// Configuration is loaded from a YAML file with environment variable
// expansion, then selected secrets can be overridden straight from the
// environment. Missing sections fall back to defaults matching a stock
// install.
//
// # Environment Variables
//
// Values can reference environment variables inline:
//
//	slack:
//	  access_token: "${SLACK_BOT_TOKEN}"
//
// The following variables override the file when set:
//
//	SLACK_ACCESS_TOKEN, INBENTA_API_KEY, INBENTA_API_SECRET,
//	MESSENGER_KEY, MESSENGER_SECRET, MESSENGER_WEBHOOK_SECRET,
//	CONNECTOR_HTTP_ADDR, CONNECTOR_DATABASE_PATH, CONNECTOR_LOG_LEVEL
//
// # Configuration Sections
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
//	database:
//	  path: "./data/sessions.db"
//
//	session:
//	  ttl: "24h"                  # idle conversations are pruned after this
//	  prune_schedule: "@every 10m"
//
//	lang: "en"                    # en, es, fr, it
//	strings:                      # per-key overrides of the string table
//	  no_agents: "Everyone is busy right now"
//
//	api:
//	  key: "${INBENTA_API_KEY}"
//	  secret: "${INBENTA_API_SECRET}"
//	  timeout: "10s"
//
//	conversation:
//	  content_ratings:
//	    enabled: true
//	    ratings:
//	      - {id: 1, label: "yes", style: "primary"}
//	      - {id: 2, label: "no", is_negative: true, comment: true, style: "danger"}
//	  digester:
//	    button_title: "BUTTON_TITLE"
//
//	chat:
//	  enabled: true
//	  room_id: 1
//	  tries_before_escalation: 2
//	  negative_ratings_before_escalation: 1
//
//	messenger:
//	  auth_url: "https://api.inbenta.io/v1/auth"
//	  key: "${MESSENGER_KEY}"
//	  secret: "${MESSENGER_SECRET}"
//	  webhook_secret: "${MESSENGER_WEBHOOK_SECRET}"
//
// # Validation
//
// Load() validates required credentials, logging format, language, rating
// ids and styles, and escalation thresholds.
package config
