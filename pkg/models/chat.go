package models

// MessageRole identifies the author of a chat turn.
type MessageRole string

const (
	RoleUser   MessageRole = "user"
	RoleModel  MessageRole = "model"
	RoleSystem MessageRole = "system"
)

// ChatMessage is one coach chat turn. The core never produces these; it only
// records them as event payloads.
type ChatMessage struct {
	Role    MessageRole `json:"role"`
	Text    string      `json:"text"`
	IsError bool        `json:"isError,omitempty"`
}

// ValidationResult is the shape returned by the external code judge. The core
// records whatever the caller supplies, including failure markers.
type ValidationResult struct {
	Success     bool   `json:"success"`
	Output      string `json:"output"`
	Feedback    string `json:"feedback"`
	StarsEarned int    `json:"starsEarned,omitempty"`
}
