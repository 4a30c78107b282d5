package cli

import (
	"fmt"
	"log/slog"

	"github.com/DavidWenzler/reAM250-sub000/internal/config"
	"github.com/DavidWenzler/reAM250-sub000/internal/door"
	"github.com/DavidWenzler/reAM250-sub000/internal/engine"
)

// controller is a prepared engine with the door domain installed on
// simulated hardware.
type controller struct {
	engine *engine.Engine
	door   *door.Door
	io     *door.SimulatedIO
}

// newController builds and prepares a controller from cfg. Extra options
// are applied after the ones derived from cfg.
func newController(cfg config.Config, logger *slog.Logger, extra ...engine.Option) (*controller, error) {
	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithCyclePeriod(cfg.Engine.CyclePeriod),
		engine.WithSignature(cfg.Server.Signature),
		engine.WithChecksumVerification(cfg.Server.VerifyChecksum),
		engine.WithListCapacity(cfg.Engine.Lists, cfg.Engine.ListEntries),
		engine.WithQueueSize(cfg.Engine.QueueSize),
		engine.WithJournalRing(cfg.Journal.RingSize),
	}
	eng, err := engine.New(append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	io := door.NewSimulatedIO()
	d, err := door.Install(eng, io)
	if err != nil {
		return nil, fmt.Errorf("install door: %w", err)
	}
	if err := eng.Prepare(); err != nil {
		return nil, fmt.Errorf("prepare engine: %w", err)
	}
	return &controller{engine: eng, door: d, io: io}, nil
}
