package onebot

import "encoding/json"

// Event is one inbound OneBot v11 event frame.
type Event struct {
	Time        int64           `json:"time,omitempty"`
	SelfID      int64           `json:"self_id,omitempty"`
	PostType    string          `json:"post_type"`
	MessageType string          `json:"message_type,omitempty"`
	SubType     string          `json:"sub_type,omitempty"`
	MessageID   int64           `json:"message_id,omitempty"`
	UserID      int64           `json:"user_id,omitempty"`
	GroupID     int64           `json:"group_id,omitempty"`
	Message     json.RawMessage `json:"message,omitempty"`
	RawMessage  string          `json:"raw_message,omitempty"`
	Sender      Sender          `json:"sender,omitempty"`
}

// Sender is the sender block of an inbound event.
type Sender struct {
	UserID   int64  `json:"user_id,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	Card     string `json:"card,omitempty"`
	Role     string `json:"role,omitempty"`
}

// ParseOutcome classifies why an inbound payload did or did not yield a
// normalized message. Callers switch on it instead of testing for nil.
type ParseOutcome int

const (
	// OutcomeAccepted means a normalized message was produced.
	OutcomeAccepted ParseOutcome = iota
	// OutcomeMalformed means the payload was not valid JSON.
	OutcomeMalformed
	// OutcomeNotMessage means post_type was not "message".
	OutcomeNotMessage
	// OutcomeEmpty means the event carried no raw_message text.
	OutcomeEmpty
	// OutcomePolicyRejected means a whitelist check rejected the sender.
	OutcomePolicyRejected
)

func (o ParseOutcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeNotMessage:
		return "not_message"
	case OutcomeEmpty:
		return "empty"
	case OutcomePolicyRejected:
		return "policy_rejected"
	default:
		return "unknown"
	}
}

// DecodeEvent parses a raw inbound payload. The peer is untrusted, so a
// bad frame is an outcome, never an error or a panic: malformed JSON,
// non-message events and events without text all decode to "no message".
func DecodeEvent(raw []byte) (Event, ParseOutcome) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, OutcomeMalformed
	}
	if ev.PostType != "message" {
		return ev, OutcomeNotMessage
	}
	if ev.RawMessage == "" {
		return ev, OutcomeEmpty
	}
	return ev, OutcomeAccepted
}
