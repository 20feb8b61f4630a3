package onebot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zifox666/MoviePilot/pkg/logger"
	"github.com/zifox666/MoviePilot/pkg/utils"
)

const (
	actionSendPrivate = "send_private_msg"
	actionSendGroup   = "send_group_msg"

	// echoToken is a fixed acknowledgment correlator. Responses are not
	// matched in this design; the field is reserved for future use.
	echoToken = "123"

	defaultAttempts = 3
	defaultDelay    = time.Second
)

// ErrNotConnected is returned when a send is attempted with no active
// bot connection. There is nothing to retry against.
var ErrNotConnected = errors.New("onebot: no active connection")

// actionFrame is one outbound OneBot v11 action.
type actionFrame struct {
	Action string       `json:"action"`
	Params actionParams `json:"params"`
	Echo   string       `json:"echo"`
}

// actionParams carries the target and text. The protocol puts the target
// of both private and group sends under user_id.
type actionParams struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// Recipients is an explicit fan-out set. Callers choose user targets and
// group targets separately; nothing is inferred from a single value.
type Recipients struct {
	Users  []string
	Groups []string
}

func (r Recipients) empty() bool {
	return len(r.Users) == 0 && len(r.Groups) == 0
}

// Delivery sends captions over the active connection with bounded
// per-frame retry.
type Delivery struct {
	registry *Registry
	attempts int
	delay    time.Duration
}

func NewDelivery(registry *Registry) *Delivery {
	return &Delivery{
		registry: registry,
		attempts: defaultAttempts,
		delay:    defaultDelay,
	}
}

// Deliver fans the caption out to every recipient: one private frame per
// user id, one group frame per group id. Each frame is retried
// independently, so one dead target does not abort the rest; the first
// frame that exhausts its retries is reported after the loop completes.
func (d *Delivery) Deliver(ctx context.Context, rcpt Recipients, caption string) error {
	if _, ok := d.registry.Current(); !ok {
		return ErrNotConnected
	}
	if rcpt.empty() {
		return fmt.Errorf("onebot: no recipients")
	}

	var firstErr error
	for _, userID := range rcpt.Users {
		if err := d.sendFrame(ctx, actionSendPrivate, userID, caption); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, groupID := range rcpt.Groups {
		if err := d.sendFrame(ctx, actionSendGroup, groupID, caption); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// sendFrame writes one action frame with bounded retry. The connection
// handle is re-fetched on every attempt so a reconnect between attempts
// is picked up, and a cleared registry fails the attempt instead of
// hanging on a dead socket.
func (d *Delivery) sendFrame(ctx context.Context, action, target, caption string) error {
	frame := actionFrame{
		Action: action,
		Params: actionParams{UserID: target, Message: caption},
		Echo:   echoToken,
	}

	err := utils.Retry(ctx, d.attempts, d.delay, func() error {
		conn, ok := d.registry.Current()
		if !ok {
			return ErrNotConnected
		}
		return conn.WriteJSON(frame)
	})
	if err != nil {
		logger.ErrorCF("onebot", "Frame send failed", map[string]interface{}{
			"action": action,
			"target": target,
			"error":  err.Error(),
		})
	}
	return err
}
