// Package dispatch offloads simulation compute onto a long-lived background
// worker, correlating asynchronous requests and responses by id and
// streaming progress back to the interactive caller.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/plansight/retirement-engine/internal/calculation"
	"github.com/plansight/retirement-engine/internal/domain"
)

// MessageType discriminates messages crossing the worker boundary.
type MessageType string

const (
	TypeRun                   MessageType = "run"
	TypeProgress              MessageType = "progress"
	TypeComplete              MessageType = "complete"
	TypeError                 MessageType = "error"
	TypeLegacy                MessageType = "legacy"
	TypeLegacyComplete        MessageType = "legacy-complete"
	TypeGuardrails            MessageType = "guardrails"
	TypeGuardrailsComplete    MessageType = "guardrails-complete"
	TypeRothOptimizer         MessageType = "roth-optimizer"
	TypeRothOptimizerComplete MessageType = "roth-optimizer-complete"
)

var (
	// ErrClosed is returned for requests submitted after Close.
	ErrClosed = errors.New("dispatcher closed")
	// ErrTimeout is returned when a legacy request exceeds its deadline.
	// Distinct from computation failure.
	ErrTimeout = errors.New("legacy simulation timed out")
)

// DefaultLegacyTimeout bounds generational requests.
const DefaultLegacyTimeout = 60 * time.Second

// Envelope is one correlated response message. The ID echoes the request's
// correlation id so listeners can demultiplex.
type Envelope struct {
	Type    MessageType
	ID      string
	Payload any
	Err     error
}

// request is one unit of work queued to the worker. Responses travel over
// the per-request channels; nothing is shared or mutated across the
// boundary.
type request struct {
	typ          MessageType
	completeType MessageType
	id           string
	ctx          context.Context
	exec         func(ctx context.Context, emit func(domain.ProgressEvent)) (any, error)
	progress     chan domain.ProgressEvent
	respond      chan Envelope
}

// Dispatcher owns a single background worker goroutine kept alive for the
// session. All entry points are asynchronous under the hood; callers block
// only on their own request's response channel.
type Dispatcher struct {
	engine       *calculation.SimulationEngine
	orchestrator *calculation.BatchOrchestrator
	legacy       *calculation.GenerationalWealthModel
	guardrails   *calculation.GuardrailsAnalyzer
	roth         *calculation.RothConversionOptimizer
	rules        domain.FederalRules

	requests  chan request
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	LegacyTimeout time.Duration
}

// New starts a dispatcher over the given rule set.
func New(rules domain.FederalRules) *Dispatcher {
	engine := calculation.NewSimulationEngine(rules)
	orchestrator := calculation.NewBatchOrchestrator(engine)
	tax := calculation.NewTaxCalculator(rules)
	d := &Dispatcher{
		engine:        engine,
		orchestrator:  orchestrator,
		legacy:        calculation.NewGenerationalWealthModel(tax),
		guardrails:    calculation.NewGuardrailsAnalyzer(orchestrator),
		roth:          calculation.NewRothConversionOptimizer(tax, calculation.NewRMDCalculator(rules)),
		rules:         rules,
		requests:      make(chan request, 16),
		quit:          make(chan struct{}),
		LegacyTimeout: DefaultLegacyTimeout,
	}
	d.wg.Add(1)
	go d.worker()
	return d
}

// SetLogger installs a logger on the underlying simulation components. Nil
// restores the no-op logger.
func (d *Dispatcher) SetLogger(l calculation.Logger) {
	d.engine.SetLogger(l)
	if l == nil {
		l = calculation.NopLogger{}
	}
	d.orchestrator.Logger = l
	d.legacy.Logger = l
}

// Close terminates the background worker. In-flight work is abandoned, not
// preempted; callers needing hard cancellation recreate the dispatcher.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.quit) })
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.quit:
			return
		case req := <-d.requests:
			d.handle(req)
		}
	}
}

func (d *Dispatcher) handle(req request) {
	emit := func(ev domain.ProgressEvent) {
		// Drop rather than block when the listener lags.
		select {
		case req.progress <- ev:
		default:
		}
	}

	var payload any
	var err error
	if ctxErr := req.ctx.Err(); ctxErr != nil {
		err = ctxErr
	} else {
		payload, err = req.exec(req.ctx, emit)
	}

	// Progress closes before the terminal message so listeners observe
	// every progress event for an id before its complete/error.
	close(req.progress)
	env := Envelope{Type: req.completeType, ID: req.id, Payload: payload, Err: err}
	if err != nil {
		env.Type = TypeError
	}
	req.respond <- env
}

func (d *Dispatcher) newRequest(ctx context.Context, typ, completeType MessageType,
	exec func(ctx context.Context, emit func(domain.ProgressEvent)) (any, error)) request {
	return request{
		typ:          typ,
		completeType: completeType,
		id:           uuid.NewString(),
		ctx:          ctx,
		exec:         exec,
		progress:     make(chan domain.ProgressEvent, 64),
		respond:      make(chan Envelope, 1),
	}
}

func (d *Dispatcher) submit(req request) error {
	select {
	case <-d.quit:
		return ErrClosed
	case <-req.ctx.Done():
		return req.ctx.Err()
	case d.requests <- req:
		return nil
	}
}

// await drains progress (forwarding to onProgress) and returns the terminal
// payload. A zero timeout waits indefinitely. Abandoning the call leaves the
// buffered response channel for the worker; nothing leaks.
func await(req request, onProgress func(domain.ProgressEvent), timeout time.Duration) (any, error) {
	var timeoutC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}
	progress := req.progress
	for {
		select {
		case ev, ok := <-progress:
			if !ok {
				progress = nil
				continue
			}
			if onProgress != nil {
				onProgress(ev)
			}
		case env := <-req.respond:
			// The worker closed progress first; finish delivering any
			// queued events so ordering holds within this id.
			if progress != nil {
				for ev := range progress {
					if onProgress != nil {
						onProgress(ev)
					}
				}
			}
			if env.ID != req.id {
				return nil, fmt.Errorf("correlation mismatch: got %s want %s", env.ID, req.id)
			}
			if env.Err != nil {
				return nil, env.Err
			}
			return env.Payload, nil
		case <-timeoutC:
			return nil, ErrTimeout
		case <-req.ctx.Done():
			return nil, req.ctx.Err()
		}
	}
}

// RunBatch executes the Monte Carlo batch on the background worker,
// streaming coarse progress events.
func (d *Dispatcher) RunBatch(ctx context.Context, inputs domain.SimulationInputs, onProgress func(domain.ProgressEvent)) (*domain.BatchSummary, error) {
	req := d.newRequest(ctx, TypeRun, TypeComplete, func(ctx context.Context, emit func(domain.ProgressEvent)) (any, error) {
		return d.orchestrator.RunBatch(ctx, inputs, func(done, total int) {
			emit(domain.ProgressEvent{
				Phase:   "monte-carlo",
				Percent: 100 * float64(done) / float64(total),
				Message: fmt.Sprintf("simulated %d of %d paths", done, total),
			})
		})
	})
	if err := d.submit(req); err != nil {
		return nil, err
	}
	payload, err := await(req, onProgress, 0)
	if err != nil {
		return nil, err
	}
	return payload.(*domain.BatchSummary), nil
}

// RunSingle executes one representative path on the background worker.
func (d *Dispatcher) RunSingle(ctx context.Context, inputs domain.SimulationInputs) (*domain.PathResult, error) {
	req := d.newRequest(ctx, TypeRun, TypeComplete, func(context.Context, func(domain.ProgressEvent)) (any, error) {
		return d.engine.RunSingleSimulation(inputs, inputs.Seed)
	})
	if err := d.submit(req); err != nil {
		return nil, err
	}
	payload, err := await(req, nil, 0)
	if err != nil {
		return nil, err
	}
	return payload.(*domain.PathResult), nil
}

// RunLegacy projects the generational payout. Enforces the legacy timeout;
// multiple legacy requests may be in flight concurrently, demultiplexed by
// correlation id.
func (d *Dispatcher) RunLegacy(ctx context.Context, batch *domain.BatchSummary, cfg domain.LegacyInputs, married bool) (*domain.GenerationalPayout, error) {
	req := d.newRequest(ctx, TypeLegacy, TypeLegacyComplete, func(context.Context, func(domain.ProgressEvent)) (any, error) {
		return d.legacy.Project(batch, cfg, married)
	})
	if err := d.submit(req); err != nil {
		return nil, err
	}
	timeout := d.LegacyTimeout
	if timeout <= 0 {
		timeout = DefaultLegacyTimeout
	}
	payload, err := await(req, nil, timeout)
	if err != nil {
		return nil, err
	}
	return payload.(*domain.GenerationalPayout), nil
}

// RunGuardrails evaluates the reduced-spending policy.
func (d *Dispatcher) RunGuardrails(ctx context.Context, inputs domain.SimulationInputs, batch *domain.BatchSummary, reduction domain.GuardrailsInputs) (*domain.GuardrailsResult, error) {
	req := d.newRequest(ctx, TypeGuardrails, TypeGuardrailsComplete, func(ctx context.Context, emit func(domain.ProgressEvent)) (any, error) {
		return d.guardrails.Analyze(ctx, inputs, batch, reduction.ReductionFraction)
	})
	if err := d.submit(req); err != nil {
		return nil, err
	}
	payload, err := await(req, nil, 0)
	if err != nil {
		return nil, err
	}
	return payload.(*domain.GuardrailsResult), nil
}

// RunRothOptimizer evaluates the conversion recommendation.
func (d *Dispatcher) RunRothOptimizer(ctx context.Context, params calculation.RothConversionParams) (*domain.RothConversionResult, error) {
	req := d.newRequest(ctx, TypeRothOptimizer, TypeRothOptimizerComplete, func(context.Context, func(domain.ProgressEvent)) (any, error) {
		return d.roth.Recommend(params), nil
	})
	if err := d.submit(req); err != nil {
		return nil, err
	}
	payload, err := await(req, nil, 0)
	if err != nil {
		return nil, err
	}
	return payload.(*domain.RothConversionResult), nil
}
