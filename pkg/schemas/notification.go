package schemas

// Notification is a host-originated request to deliver content to one or
// more chat recipients. Exactly one content shape is populated per send:
// plain text here, or a media/torrent list passed alongside it.
type Notification struct {
	Channel MessageChannel    `json:"channel,omitempty"`
	Source  string            `json:"source,omitempty"`
	Title   string            `json:"title"`
	Text    string            `json:"text,omitempty"`
	Image   string            `json:"image,omitempty"`
	Link    string            `json:"link,omitempty"`
	UserID  string            `json:"userid,omitempty"`
	Targets map[string]string `json:"targets,omitempty"`
}

// TargetUserID returns the per-platform user-id override from the targets
// map, if one was set.
func (n *Notification) TargetUserID(key string) string {
	if n.Targets == nil {
		return ""
	}
	return n.Targets[key]
}
