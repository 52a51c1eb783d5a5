package models

import "time"

// ConversationTurn is one prior question/answer pair from the session
// history. Recent turns give the intent classifier light conversational
// context.
type ConversationTurn struct {
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	Intent    Intent    `json:"intent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
