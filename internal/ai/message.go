package ai

// Role identifies the sender of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is a single chat turn sent to the completion endpoint.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
