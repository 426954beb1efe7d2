// Package notify fans lifecycle events out to the websocket hub, the message broker and the log.
// Delivery is best effort: failures are logged and never returned to the caller.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventProposalSubmitted = "proposal.submitted"
	EventProposalAccepted  = "proposal.accepted"
	EventProposalRejected  = "proposal.rejected"
	EventProposalWithdrawn = "proposal.withdrawn"
	EventContractFormed    = "contract.formed"
	EventContractUpdated   = "contract.updated"
	EventJobStatusChanged  = "job.status_changed"
	EventJobCompleted      = "job.completed"
	EventMilestoneCreated  = "milestone.created"
	EventMilestoneUpdated  = "milestone.updated"
	EventTimesheetLogged   = "timesheet.logged"
	EventTimesheetApproved = "timesheet.approved"
	EventPaymentCreated    = "payment.created"
	EventPaymentSettled    = "payment.settled"
	EventPaymentRefunded   = "payment.refunded"
	EventVARated           = "profile.rated"
)

type Event struct {
	Type       string         `json:"type"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func NewEvent(typ string, payload map[string]any) Event {
	return Event{Type: typ, Payload: payload, OccurredAt: time.Now().UTC()}
}

// Sink receives events addressed to one account.
type Sink interface {
	Notify(ctx context.Context, accountID uuid.UUID, ev Event)
}

type Pusher interface {
	SendTo(accountID uuid.UUID, payload []byte) bool
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Message is the wire shape pushed to websocket clients and published to the broker.
type Message struct {
	AccountID uuid.UUID `json:"account_id"`
	Event
}

type Dispatcher struct {
	pusher    Pusher
	publisher Publisher
	logger    *zap.Logger
}

// NewDispatcher accepts nil pusher or publisher; the missing channel is skipped.
func NewDispatcher(pusher Pusher, publisher Publisher, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{pusher: pusher, publisher: publisher, logger: logger}
}

func (d *Dispatcher) Notify(ctx context.Context, accountID uuid.UUID, ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	msg := Message{AccountID: accountID, Event: ev}
	fields := []zap.Field{zap.String("event", ev.Type), zap.String("account_id", accountID.String())}

	if d.pusher != nil {
		b, err := json.Marshal(msg)
		if err != nil {
			d.logger.Warn("notification encode failed", append(fields, zap.Error(err))...)
		} else if !d.pusher.SendTo(accountID, b) {
			d.logger.Warn("notification push dropped", fields...)
		}
	}

	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, ev.Type, msg); err != nil {
			d.logger.Warn("notification publish failed", append(fields, zap.Error(err))...)
		}
	}

	d.logger.Info("notification dispatched", fields...)
}

type Nop struct{}

func (Nop) Notify(context.Context, uuid.UUID, Event) {}
