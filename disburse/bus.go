package disburse

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/venu630/bequest/event"
)

// BusSource reads FundsDisbursed events from the in-process event bus.
type BusSource struct {
	bus    *event.Bus
	poll   time.Duration
	logger *slog.Logger
}

// NewBusSource creates a source over bus.
func NewBusSource(bus *event.Bus, logger *slog.Logger) *BusSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &BusSource{bus: bus, poll: time.Second, logger: logger}
}

// Publish puts evt on the bus.
func Publish(ctx context.Context, bus *event.Bus, evt FundsDisbursed) (*event.Event, error) {
	return bus.PublishJSON(ctx, event.NameFundsDisbursed, evt)
}

// Run implements Source.
func (s *BusSource) Run(ctx context.Context, handle Handler) error {
	for {
		evt, err := s.bus.Subscribe(ctx, event.NameFundsDisbursed, s.poll)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if evt == nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		var fd FundsDisbursed
		if err := json.Unmarshal(evt.Payload, &fd); err != nil {
			s.logger.Warn("dropping malformed event",
				slog.String("event_id", evt.ID.String()),
				slog.String("error", err.Error()),
			)
		} else {
			handle(ctx, fd)
		}

		if err := s.bus.Ack(ctx, evt.ID); err != nil {
			return err
		}
	}
}
