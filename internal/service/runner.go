package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pds-status/internal/model"
	"pds-status/internal/report"
)

// State is the phase of a run.
type State string

const (
	StateIdle       State = "idle"
	StateCollecting State = "collecting"
	StateRendering  State = "rendering"
	StateWriting    State = "writing"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// SnapshotCollector produces the snapshot of a run.
type SnapshotCollector interface {
	Collect(ctx context.Context) (*model.Snapshot, error)
}

// SnapshotWriter publishes a rendered report at dest.
type SnapshotWriter interface {
	Write(ctx context.Context, rep *model.RenderedReport, dest string) error
}

// Output pairs a renderer with its destination path.
type Output struct {
	Renderer report.Renderer
	Dest     string
}

// Runner drives one collect, render and write pass.
type Runner struct {
	collector SnapshotCollector
	evaluator *Evaluator
	writer    SnapshotWriter
	outputs   []Output
	timeout   time.Duration
	version   string
	onState   func(State)
	logger    zerolog.Logger

	mu    sync.Mutex
	state State
}

// RunnerOption is a functional option for configuring a Runner.
type RunnerOption func(*Runner)

// WithVersion sets the generator version shown in the report footer.
func WithVersion(version string) RunnerOption {
	return func(r *Runner) {
		r.version = version
	}
}

// WithTimeout bounds the whole run.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithEvaluator enables threshold evaluation.
func WithEvaluator(e *Evaluator) RunnerOption {
	return func(r *Runner) {
		r.evaluator = e
	}
}

// WithStateHook registers a callback invoked on every state transition.
func WithStateHook(fn func(State)) RunnerOption {
	return func(r *Runner) {
		r.onState = fn
	}
}

// NewRunner creates a new Runner. At least one output is required.
func NewRunner(
	collector SnapshotCollector,
	writer SnapshotWriter,
	outputs []Output,
	logger zerolog.Logger,
	opts ...RunnerOption,
) (*Runner, error) {
	if len(outputs) == 0 {
		return nil, fmt.Errorf("no report outputs configured")
	}

	r := &Runner{
		collector: collector,
		writer:    writer,
		outputs:   outputs,
		version:   "dev",
		state:     StateIdle,
		logger:    logger.With().Str("component", "runner").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// State returns the current state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) transition(s State) {
	r.mu.Lock()
	prev := r.state
	r.state = s
	r.mu.Unlock()

	r.logger.Debug().Str("from", string(prev)).Str("to", string(s)).Msg("state transition")
	if r.onState != nil {
		r.onState(s)
	}
}

func (r *Runner) fail(err error) error {
	r.transition(StateFailed)
	r.logger.Error().Err(err).Msg("run failed")
	return err
}

// Run executes the workflow:
// 1. Collects the snapshot
// 2. Renders every output
// 3. Writes every output atomically
//
// Rendering completes for all outputs before anything is written, so a
// render failure leaves every destination untouched.
func (r *Runner) Run(ctx context.Context) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	startTime := time.Now()

	r.transition(StateCollecting)
	snap, err := r.collector.Collect(ctx)
	if err != nil {
		return r.fail(err)
	}
	snap.Version = r.version
	if r.evaluator != nil {
		r.evaluator.Evaluate(snap)
	}

	r.transition(StateRendering)
	reports := make([]*model.RenderedReport, len(r.outputs))
	for i, out := range r.outputs {
		rep, err := out.Renderer.Render(snap)
		if err != nil {
			return r.fail(fmt.Errorf("failed to render %s report: %w", out.Renderer.Format(), err))
		}
		reports[i] = rep
	}

	r.transition(StateWriting)
	for i, out := range r.outputs {
		if err := r.writer.Write(ctx, reports[i], out.Dest); err != nil {
			return r.fail(err)
		}
		r.logger.Info().
			Str("format", reports[i].Format).
			Str("path", out.Dest).
			Int("bytes", len(reports[i].Body)).
			Msg("report written")
	}

	r.transition(StateDone)
	r.logger.Info().
		Int64("accounts", snap.Service.AccountCount).
		Bool("truncated", snap.Service.Truncated).
		Int("warnings", len(snap.Warnings)).
		Dur("duration", time.Since(startTime)).
		Msg("run completed")

	return nil
}
