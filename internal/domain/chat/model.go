package chat

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Reply is the client-facing chat response. Provider names the backend that
// produced the text so operators can see fallbacks in effect.
type Reply struct {
	Message  string `json:"message"`
	Provider string `json:"provider"`
}
