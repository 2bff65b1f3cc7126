package chat

import (
	"encoding/json"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"

	// legacyRoleAI is how older collections stored assistant messages.
	legacyRoleAI Role = "ai"
)

const DefaultName = "Home Chat"

type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

func (m *Message) UnmarshalJSON(b []byte) error {
	type plain Message
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	if p.Role == legacyRoleAI {
		p.Role = RoleAssistant
	}
	*m = Message(p)
	return nil
}

// Conversation IDs are creation timestamps in milliseconds.
type Conversation struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Messages []Message `json:"messages"`
}

func newConversation(id int64, name string) Conversation {
	return Conversation{ID: id, Name: name, Messages: []Message{}}
}

// decodeCollection parses a stored collection. ok is false when raw is not a
// JSON array of conversations or holds none.
func decodeCollection(raw string) (convs []Conversation, ok bool) {
	if raw == "" {
		return nil, false
	}
	if err := json.Unmarshal([]byte(raw), &convs); err != nil {
		return nil, false
	}
	if len(convs) == 0 {
		return nil, false
	}
	for i := range convs {
		if convs[i].Messages == nil {
			convs[i].Messages = []Message{}
		}
	}
	return convs, true
}

func encodeCollection(convs []Conversation) (string, error) {
	if convs == nil {
		convs = []Conversation{}
	}
	b, err := json.Marshal(convs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
