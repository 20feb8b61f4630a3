// Package onebot implements the OneBot v11 bridge: it holds the single
// reverse websocket connection opened by the bot client, decodes inbound
// events into normalized messages, applies per-source whitelist policy,
// and renders notifications into send_private_msg/send_group_msg frames.
package onebot

import "sync"

// Conn is the duplex channel to the bot client. *websocket.Conn is
// wrapped behind this so the bridge core stays transport-agnostic and
// testable with fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Registry owns the single active connection slot. The peer connects to
// us, so a reconnect simply replaces whatever handle is present; sends
// racing against a replaced handle fail individually on write.
type Registry struct {
	mu   sync.Mutex
	conn Conn
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register installs c as the active connection, replacing any previous
// handle. Last writer wins; the abandoned handle is not closed here
// because its read loop owns the close.
func (r *Registry) Register(c Conn) {
	r.mu.Lock()
	r.conn = c
	r.mu.Unlock()
}

// Current returns the active connection, or false when disconnected.
func (r *Registry) Current() (Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn, r.conn != nil
}

// Clear unconditionally empties the slot. Idempotent.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.conn = nil
	r.mu.Unlock()
}

// Release empties the slot only if c is still the active handle, so a
// stale read loop exiting late cannot drop a newer connection.
func (r *Registry) Release(c Conn) {
	r.mu.Lock()
	if r.conn == c {
		r.conn = nil
	}
	r.mu.Unlock()
}
