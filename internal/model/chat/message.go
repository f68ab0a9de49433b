package chat

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is a single transcript entry. Persona is only set for assistant turns.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Persona string `json:"persona,omitempty"`
}
