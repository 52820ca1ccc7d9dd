package types

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// GroundingSource is a citation attached to a generated answer.
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Attachment is an inline file (typically an image) sent with a message.
type Attachment struct {
	Data     []byte `json:"data"`
	MIMEType string `json:"mimeType"`
}

// ChatMessage is a single message in a consultation.
// Messages are immutable once appended, except for replacement during retry.
type ChatMessage struct {
	Role             Role              `json:"role"`
	Content          string            `json:"content"`
	Timestamp        time.Time         `json:"timestamp"`
	Attachment       *Attachment       `json:"attachment,omitempty"`
	GroundingSources []GroundingSource `json:"groundingSources,omitempty"`
}

// SavedSession is one archived consultation.
type SavedSession struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Timestamp int64         `json:"timestamp"`
	Messages  []ChatMessage `json:"messages"`
}

// FirstUserMessage returns the first user-authored message, if any.
func (s *SavedSession) FirstUserMessage() (ChatMessage, bool) {
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			return m, true
		}
	}
	return ChatMessage{}, false
}
