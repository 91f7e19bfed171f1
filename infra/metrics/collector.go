package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/fleetco2/core/metrics"
	"github.com/kilianp07/fleetco2/core/monitoring"
	"github.com/kilianp07/fleetco2/infra/logger"
	"github.com/kilianp07/fleetco2/internal/eventbus"
)

// StartEventCollector subscribes to the bus and forwards every calculation
// event to sink. It stops when the context is canceled or the bus is closed;
// the returned channel is closed once the goroutine has exited.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[coremetrics.CalculationEvent], sink coremetrics.Sink, log logger.Logger, mon monitoring.Monitor) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if mon == nil {
		mon = monitoring.NopMonitor{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := sink.RecordCalculation(ev); err != nil {
					log.Errorf("record calculation %s: %v", ev.RequestID, err)
					mon.CaptureException(err, map[string]string{"module": "metrics"})
				}
			}
		}
	}()
	return done
}
