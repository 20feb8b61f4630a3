package bus

import "github.com/zifox666/MoviePilot/pkg/schemas"

// InboundMessage is a normalized chat message that passed parsing and
// policy checks, carried from the protocol adapter to the pipeline.
type InboundMessage struct {
	Channel   schemas.MessageChannel `json:"channel"`
	Source    string                 `json:"source"`
	UserID    string                 `json:"user_id"`
	Username  string                 `json:"username"`
	Text      string                 `json:"text"`
	MessageID string                 `json:"message_id,omitempty"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// Coming converts the bus message to the host-facing schema type.
func (m *InboundMessage) Coming() schemas.CommingMessage {
	return schemas.CommingMessage{
		Channel:  m.Channel,
		Source:   m.Source,
		UserID:   m.UserID,
		Username: m.Username,
		Text:     m.Text,
	}
}
