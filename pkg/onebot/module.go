package onebot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/zifox666/MoviePilot/pkg/config"
	"github.com/zifox666/MoviePilot/pkg/logger"
	"github.com/zifox666/MoviePilot/pkg/schemas"
	"github.com/zifox666/MoviePilot/pkg/utils"
)

// TargetUserIDKey is the Notification.Targets key carrying a
// OneBot-specific user-id override.
const TargetUserIDKey = "onebot11_userid"

// Module is the channel adapter facade over the bridge core. It wires
// decode → filter on the way in and caption encode → delivery on the way
// out, for every configured source sharing the single bot connection.
type Module struct {
	registry *Registry
	delivery *Delivery
	sources  map[string]config.OnebotConfig
}

func NewModule(registry *Registry, sources map[string]config.OnebotConfig) *Module {
	return &Module{
		registry: registry,
		delivery: NewDelivery(registry),
		sources:  sources,
	}
}

func (m *Module) Name() string { return string(schemas.ChannelOnebot11) }

// Registry exposes the connection slot to the ingress endpoint.
func (m *Module) Registry() *Registry { return m.registry }

// State reports whether the bot client is currently connected.
func (m *Module) State() bool {
	_, ok := m.registry.Current()
	return ok
}

// Stop drops the active connection. Sends issued afterwards fail fast.
func (m *Module) Stop() {
	m.registry.Clear()
	logger.InfoC("onebot", "Message service stopped")
}

// Parse turns a raw inbound payload into a normalized message, applying
// the source's whitelist policy. A policy rejection may push a notice
// back to the sender; notice delivery failures are logged, never
// propagated. The returned message is nil unless the outcome is
// OutcomeAccepted.
func (m *Module) Parse(ctx context.Context, source string, body []byte) (*schemas.CommingMessage, ParseOutcome) {
	cfg, ok := m.sources[source]
	if !ok {
		logger.DebugCF("onebot", "Event for unknown source dropped", map[string]interface{}{
			"source": source,
		})
		return nil, OutcomePolicyRejected
	}

	ev, outcome := DecodeEvent(body)
	if outcome != OutcomeAccepted {
		return nil, outcome
	}

	userID := strconv.FormatInt(ev.UserID, 10)
	groupID := strconv.FormatInt(ev.GroupID, 10)
	logger.InfoCF("onebot", "Message received", map[string]interface{}{
		"source":   source,
		"user_id":  userID,
		"username": ev.Sender.Nickname,
		"text":     utils.Truncate(ev.RawMessage, 50),
	})

	decision := NewPolicy(cfg).Evaluate(userID, groupID, ev.RawMessage)
	switch decision.Verdict {
	case VerdictRejectNotify:
		m.notify(ctx, userID, decision.Notice)
		return nil, OutcomePolicyRejected
	case VerdictRejectSilent:
		logger.InfoCF("onebot", "Message rejected by whitelist", map[string]interface{}{
			"user_id":  userID,
			"group_id": groupID,
		})
		return nil, OutcomePolicyRejected
	}

	return &schemas.CommingMessage{
		Channel:  schemas.ChannelOnebot11,
		Source:   source,
		UserID:   userID,
		Username: ev.Sender.Nickname,
		Text:     ev.RawMessage,
	}, OutcomeAccepted
}

// notify pushes a rejection notice back to the offending sender.
func (m *Module) notify(ctx context.Context, userID, notice string) {
	caption := EncodePlain(&schemas.Notification{Title: notice})
	rcpt := Recipients{Users: []string{userID}}
	if err := m.delivery.Deliver(ctx, rcpt, caption); err != nil {
		logger.WarnCF("onebot", "Rejection notice not delivered", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

// PostMessage sends a plain notification to every matching source.
func (m *Module) PostMessage(ctx context.Context, msg *schemas.Notification) error {
	if msg.Title == "" && msg.Text == "" {
		return fmt.Errorf("onebot: notification title and text are both empty")
	}

	var firstErr error
	for name, cfg := range m.sources {
		if !m.matchSource(msg, name) {
			continue
		}
		rcpt, ok := m.resolveRecipients(msg, cfg, true)
		if !ok {
			continue
		}
		if err := m.delivery.Deliver(ctx, rcpt, EncodePlain(msg)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PostMediasMessage sends a media selection list to every matching source.
func (m *Module) PostMediasMessage(ctx context.Context, msg *schemas.Notification, medias []schemas.MediaInfo) error {
	caption, image := EncodeMedias(msg, medias)
	if image != "" {
		// The peer renders list messages as text only; the representative
		// image is kept out of the caption.
		logger.DebugCF("onebot", "Representative image not rendered", map[string]interface{}{
			"image": image,
		})
	}

	var firstErr error
	for name, cfg := range m.sources {
		if !m.matchSource(msg, name) {
			continue
		}
		rcpt, ok := m.resolveRecipients(msg, cfg, false)
		if !ok {
			continue
		}
		if err := m.delivery.Deliver(ctx, rcpt, caption); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PostTorrentsMessage sends a torrent selection list to every matching
// source. An empty torrent list is a caller error.
func (m *Module) PostTorrentsMessage(ctx context.Context, msg *schemas.Notification, torrents []schemas.Context) error {
	caption, err := EncodeTorrents(msg, torrents)
	if err != nil {
		return err
	}

	var firstErr error
	for name, cfg := range m.sources {
		if !m.matchSource(msg, name) {
			continue
		}
		rcpt, ok := m.resolveRecipients(msg, cfg, false)
		if !ok {
			continue
		}
		if err := m.delivery.Deliver(ctx, rcpt, caption); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *Module) matchSource(msg *schemas.Notification, source string) bool {
	if msg.Channel != "" && msg.Channel != schemas.ChannelOnebot11 {
		return false
	}
	return msg.Source == "" || msg.Source == source
}

// resolveRecipients picks the fan-out set for one source: an explicit
// user id wins, then the targets-map override (when allowed), then the
// source's configured default users and groups.
func (m *Module) resolveRecipients(msg *schemas.Notification, cfg config.OnebotConfig, allowTargets bool) (Recipients, bool) {
	userID := msg.UserID
	if userID == "" && allowTargets && msg.Targets != nil {
		userID = msg.TargetUserID(TargetUserIDKey)
		if userID == "" {
			logger.WarnC("onebot", "Notification targets carry no OneBot user id, skipping")
			return Recipients{}, false
		}
	}

	if userID != "" {
		return Recipients{Users: []string{userID}}, true
	}
	return Recipients{
		Users:  cfg.UserIDs(),
		Groups: cfg.GroupIDs(),
	}, true
}
