package runtime

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/vinayprograms/a2akit/logging"
)

// Common errors.
var (
	// ErrAlreadyShutdown indicates shutdown was already initiated.
	ErrAlreadyShutdown = errors.New("shutdown already initiated")

	// ErrShutdownTimeout indicates shutdown did not complete in time.
	ErrShutdownTimeout = errors.New("shutdown timeout exceeded")

	// ErrStopFailed indicates one or more components failed to stop.
	ErrStopFailed = errors.New("one or more components failed to stop")
)

// Shutdown phases. Lower phases stop first: agents drain before the bus
// closes, and the registry outlives both so stopping agents can still
// deregister.
const (
	PhaseAgents   = 10
	PhaseBus      = 20
	PhaseRegistry = 30
)

// StopFunc stops one component. The context is cancelled when the
// shutdown deadline passes.
type StopFunc func(ctx context.Context) error

// stopRegistration holds a component's stop hook with its metadata.
type stopRegistration struct {
	name  string
	phase int
	stop  StopFunc
}

// stopPlan runs registered stop hooks in phase order, same-phase hooks
// concurrently. It is the runtime's teardown machinery; components are
// registered as they are created.
type stopPlan struct {
	mu     sync.Mutex
	hooks  []stopRegistration
	once   sync.Once
	err    error
	done   chan struct{}
	logger *logging.Logger
}

func newStopPlan(logger *logging.Logger) *stopPlan {
	return &stopPlan{
		done:   make(chan struct{}),
		logger: logger,
	}
}

// register adds a stop hook. Safe to call until run begins.
func (p *stopPlan) register(name string, phase int, stop StopFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, stopRegistration{name: name, phase: phase, stop: stop})
}

// run executes the plan once. Later calls return ErrAlreadyShutdown.
func (p *stopPlan) run(ctx context.Context) error {
	started := false
	p.once.Do(func() {
		started = true
		p.err = p.execute(ctx)
		close(p.done)
	})
	if !started {
		select {
		case <-p.done:
			return p.err
		default:
			return ErrAlreadyShutdown
		}
	}
	return p.err
}

func (p *stopPlan) execute(ctx context.Context) error {
	p.mu.Lock()
	hooks := make([]stopRegistration, len(p.hooks))
	copy(hooks, p.hooks)
	p.mu.Unlock()

	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].phase < hooks[j].phase
	})

	var overallErr error
	for _, group := range groupByPhase(hooks) {
		select {
		case <-ctx.Done():
			return ErrShutdownTimeout
		default:
		}

		for _, failure := range p.executePhase(ctx, group) {
			p.logger.Error("component stop failed", map[string]interface{}{
				"component": failure.name, "error": failure.err,
			})
			overallErr = ErrStopFailed
		}
	}
	return overallErr
}

type stopFailure struct {
	name string
	err  error
}

// executePhase stops all hooks in one phase concurrently and returns the
// failures.
func (p *stopPlan) executePhase(ctx context.Context, hooks []stopRegistration) []stopFailure {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []stopFailure
	)

	for _, h := range hooks {
		wg.Add(1)
		go func(h stopRegistration) {
			defer wg.Done()

			start := time.Now()
			err := h.stop(ctx)
			p.logger.Debug("component stopped", map[string]interface{}{
				"component": h.name,
				"phase":     h.phase,
				"duration":  time.Since(start).String(),
			})

			if err != nil {
				mu.Lock()
				failures = append(failures, stopFailure{name: h.name, err: err})
				mu.Unlock()
			}
		}(h)
	}

	wg.Wait()
	return failures
}

// groupByPhase splits phase-sorted hooks into consecutive phase groups.
func groupByPhase(hooks []stopRegistration) [][]stopRegistration {
	var groups [][]stopRegistration
	var current []stopRegistration

	for _, h := range hooks {
		if len(current) > 0 && current[len(current)-1].phase != h.phase {
			groups = append(groups, current)
			current = nil
		}
		current = append(current, h)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}
