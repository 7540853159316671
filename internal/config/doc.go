// Package config loads slotbot settings.
//
// Sources, lowest precedence first: built-in defaults, an optional YAML file
// (slotbot.yaml in the working directory or ~/.config/slotbot), a .env file,
// and the process environment. Environment keys use the SLOTBOT_ prefix with
// dots replaced by underscores, e.g. SLOTBOT_POLICY_START_HOUR. CALENDAR_ID,
// GOOGLE_APPLICATION_CREDENTIALS, GEMINI_API_KEY and SIGNAL_ACCOUNT are also
// honoured.
package config
