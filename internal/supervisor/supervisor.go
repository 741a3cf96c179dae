// Package supervisor builds the suture tree the binaries run their services under.
package supervisor

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/artur/clipdrop/internal/logging"
)

// Config holds the restart policy. Zero values fall back to suture's defaults.
type Config struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// New returns a root supervisor that reports its events through zerolog.
func New(name string, cfg Config) *suture.Supervisor {
	return suture.New(name, suture.Spec{
		EventHook:        EventHook(logging.Component("supervisor")),
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	})
}

// EventHook logs suture events. Panics and backoff are errors, everything else is a warning.
func EventHook(log zerolog.Logger) suture.EventHook {
	return func(e suture.Event) {
		level := zerolog.WarnLevel
		switch e.Type() {
		case suture.EventTypeServicePanic, suture.EventTypeBackoff:
			level = zerolog.ErrorLevel
		case suture.EventTypeResume:
			level = zerolog.InfoLevel
		}

		log.WithLevel(level).
			Str("event", eventName(e.Type())).
			Fields(e.Map()).
			Msg(e.String())
	}
}

func eventName(t suture.EventType) string {
	switch t {
	case suture.EventTypeStopTimeout:
		return "stop_timeout"
	case suture.EventTypeServicePanic:
		return "service_panic"
	case suture.EventTypeServiceTerminate:
		return "service_terminate"
	case suture.EventTypeBackoff:
		return "backoff"
	case suture.EventTypeResume:
		return "resume"
	}
	return "unknown"
}
