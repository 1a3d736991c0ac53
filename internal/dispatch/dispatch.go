// Package dispatch hands a session off for evaluation. The queue mode
// enqueues a durable job for the background consumer and acknowledges
// immediately; the inline mode runs the pipeline synchronously. Both modes
// drive the same processor, so results are identical either way.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"intervue/internal/config"
	"intervue/internal/logging"
	"intervue/internal/processor"
	"intervue/internal/queue"
	"intervue/internal/services"
)

// Acknowledgements returned to the trigger surface.
const (
	AckProcessing = "processing"
	AckProcessed  = "processed"
)

// Dispatcher routes process requests according to the configured mode.
type Dispatcher struct {
	mode   string
	store  *queue.Store
	proc   *processor.Processor
	logger *slog.Logger
}

// New constructs a dispatcher. A queue store is required in queue mode; the
// processor is required in inline mode.
func New(cfg *config.Config, store *queue.Store, proc *processor.Processor, logger *slog.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	switch cfg.Dispatch.Mode {
	case "queue":
		if store == nil {
			return nil, services.Wrap(services.ErrConfiguration, "dispatch", "new", "queue mode requires a queue store", nil)
		}
	case "inline":
		if proc == nil {
			return nil, services.Wrap(services.ErrConfiguration, "dispatch", "new", "inline mode requires a processor", nil)
		}
	default:
		return nil, services.Wrap(services.ErrConfiguration, "dispatch", "new",
			fmt.Sprintf("unknown dispatch mode %q", cfg.Dispatch.Mode), nil)
	}
	return &Dispatcher{
		mode:   cfg.Dispatch.Mode,
		store:  store,
		proc:   proc,
		logger: logging.NewComponentLogger(logger, "dispatch"),
	}, nil
}

// Mode reports the configured dispatch mode.
func (d *Dispatcher) Mode() string {
	return d.mode
}

// Dispatch hands the session off and returns the acknowledgement the caller
// should report: "processing" when the work was queued, "processed" when it
// ran to completion inline.
func (d *Dispatcher) Dispatch(ctx context.Context, userID, sessionID string) (string, error) {
	switch d.mode {
	case "queue":
		job, err := d.store.Enqueue(ctx, userID, sessionID)
		if err != nil {
			return "", services.Wrap(services.ErrTransient, "dispatch", "enqueue", "queue unavailable", err)
		}
		d.logger.Info("session queued for processing",
			logging.String(logging.FieldSessionID, sessionID),
			logging.Int64("job_id", job.ID))
		return AckProcessing, nil
	case "inline":
		if err := d.proc.Process(ctx, userID, sessionID); err != nil {
			return "", err
		}
		return AckProcessed, nil
	default:
		return "", services.Wrap(services.ErrConfiguration, "dispatch", "dispatch",
			fmt.Sprintf("unknown dispatch mode %q", d.mode), nil)
	}
}
