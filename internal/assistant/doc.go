// Package assistant turns free text into instants and availability answers
// into replies.
//
// Two implementations sit behind the DateParser and ReplyWriter interfaces:
// a Gemini backed Assistant, and a deterministic RuleParser plus Templates
// pair that needs no network and is used when no API key is configured.
// ChainParser tries parsers in order so the rules can short-circuit the model
// for plain dates.
package assistant
