// Package conversation keeps per-phone message history, the registered
// set, and AI session references, persisted as a JSON file.
package conversation

import "time"

// Role identifies the author of a history entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Direction marks which way a message travelled over SMS.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Entry is one message in a phone number's history.
type Entry struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"ts"`
	Direction Direction `json:"direction"`
}

// record is the persisted state for one phone number.
type record struct {
	Messages      []Entry `json:"messages"`
	SessionHandle string  `json:"session_handle,omitempty"`
	Registered    bool    `json:"registered"`
}
