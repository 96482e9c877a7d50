package livedata

import (
	"go.uber.org/zap"

	"github.com/Ztiany/android-simple-bus/state"
)

// Config configures a LiveData.
type Config struct {
	// Scheduler runs deliveries. Nil means state.DirectScheduler.
	Scheduler state.Scheduler
	// Logger receives debug diagnostics. Nil disables logging.
	Logger *zap.Logger
}

func (c Config) scheduler() state.Scheduler {
	if c.Scheduler == nil {
		return state.DirectScheduler
	}
	return c.Scheduler
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger.Named("livedata")
}
