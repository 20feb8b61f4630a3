// Package schemas holds the host-facing message, media and notification
// types exchanged between the bridge and the rest of the application.
package schemas

// MessageChannel identifies the messaging platform a message came from or
// is destined for.
type MessageChannel string

const (
	ChannelOnebot11 MessageChannel = "onebot11"
)

// CommingMessage is a normalized inbound chat message that has passed
// parsing and policy checks and may enter the processing pipeline.
type CommingMessage struct {
	Channel  MessageChannel `json:"channel"`
	Source   string         `json:"source"`
	UserID   string         `json:"userid"`
	Username string         `json:"username"`
	Text     string         `json:"text"`
}
