// Package emitter publishes post-commit events on behalf of the services.
package emitter

import (
	"context"
	"log/slog"

	"github.com/amirasaad/ledger/pkg/domain/events"
	"github.com/amirasaad/ledger/pkg/eventbus"
)

// Emit publishes evts in order. The state they describe is already committed,
// so failures are logged and otherwise ignored. A nil bus disables publishing.
func Emit(ctx context.Context, bus eventbus.Bus, logger *slog.Logger, evts ...events.Event) {
	if bus == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, evt := range evts {
		if err := bus.Emit(ctx, evt); err != nil {
			logger.Error("Event emission failed", "type", evt.Type(), "account", evt.PartitionKey(), "error", err)
		}
	}
}
