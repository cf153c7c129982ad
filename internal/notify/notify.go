// Package notify fans chamber events out to the log and, optionally, Kafka.
package notify

import (
	"context"

	"chamber_monitor/internal/logger"
	"chamber_monitor/internal/models"
)

// Notifier delivers an event. Delivery failures are the notifier's to log;
// callers never stop on them.
type Notifier interface {
	Notify(ctx context.Context, ev models.ChamberEvent)
}

// LogNotifier writes every event to the log.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, ev models.ChamberEvent) {
	n.log.Infow("chamber event",
		"chamber", ev.ChamberID,
		"gyle", ev.GyleID,
		"type", ev.Type,
		"description", ev.Description,
	)
}

// Multi notifies each of its members in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev models.ChamberEvent) {
	for _, n := range m {
		n.Notify(ctx, ev)
	}
}
