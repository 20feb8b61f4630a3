// Package channels defines the contract every messaging channel adapter
// implements toward the notification pipeline.
package channels

import (
	"context"

	"github.com/zifox666/MoviePilot/pkg/schemas"
)

// Channel is the interface for chat-platform adapters. Post* methods
// return an error when no recipient could be reached; a disconnected
// peer is an error, not a panic.
type Channel interface {
	Name() string

	// State reports whether the channel currently has a live peer.
	State() bool

	PostMessage(ctx context.Context, msg *schemas.Notification) error
	PostMediasMessage(ctx context.Context, msg *schemas.Notification, medias []schemas.MediaInfo) error
	PostTorrentsMessage(ctx context.Context, msg *schemas.Notification, torrents []schemas.Context) error

	// Stop tears the channel down. Idempotent.
	Stop()
}
