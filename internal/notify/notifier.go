// Package notify pushes order dispatch outcomes to operator channels.
// Notifications fan out to all registered senders (Telegram, Discord) and are
// filtered by event type so operators receive only the alerts they care
// about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/spotbot/internal/domain"
)

// Event types emitted by the order dispatch path.
const (
	EventOrderFilled = "order_filled"
	EventOrderOpen   = "order_open"
	EventOrderError  = "order_error"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches notifications to one or more Senders. It maintains a
// set of allowed event types; NotifyFill only forwards outcomes whose event
// type is in the allowed set.
type Notifier struct {
	senders []Sender
	events  map[string]bool // allowed event types
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders. Only
// events whose type appears in the events slice will be forwarded. If events
// is empty, all event types are allowed.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// NotifyFill formats a dispatch outcome and sends it to all channels whose
// event filter admits it. Delivery failures are logged, never propagated:
// notification is best effort and must not disturb the order path.
func (n *Notifier) NotifyFill(ctx context.Context, res domain.FillResult) {
	event := eventFor(res.Status)
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", event),
		)
		return
	}

	n.dispatch(ctx, fillTitle(res), fillMessage(res))
}

// dispatch iterates over all senders. A single sender failure does not
// prevent delivery to the remaining senders.
func (n *Notifier) dispatch(ctx context.Context, title, message string) {
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}
}

func eventFor(status domain.OrderStatus) string {
	switch status {
	case domain.StatusFilled:
		return EventOrderFilled
	case domain.StatusOpen:
		return EventOrderOpen
	default:
		return EventOrderError
	}
}

func fillTitle(res domain.FillResult) string {
	return fmt.Sprintf("%s %s %s: %s", res.Side, res.Kind, res.Symbol, res.Status)
}

func fillMessage(res domain.FillResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "qty %g", res.Quantity)
	if res.Kind == domain.OrderLimit {
		fmt.Fprintf(&b, " @ limit %g", res.LimitPrice)
	}
	if res.FillPrice > 0 {
		fmt.Fprintf(&b, ", filled at %g", res.FillPrice)
	}
	if res.OrderID != "" {
		fmt.Fprintf(&b, " (order %s)", res.OrderID)
	}
	if res.Err != "" {
		fmt.Fprintf(&b, "\nerror: %s", res.Err)
	}
	return b.String()
}
