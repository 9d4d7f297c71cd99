package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vinayprograms/a2akit/actor"
	"github.com/vinayprograms/a2akit/bus"
	"github.com/vinayprograms/a2akit/logging"
	"github.com/vinayprograms/a2akit/orchestrator"
	"github.com/vinayprograms/a2akit/registry"
)

// DefaultStopTimeout bounds a full runtime shutdown.
const DefaultStopTimeout = 30 * time.Second

// Config holds runtime configuration.
type Config struct {
	// Bus configures the message bus.
	Bus bus.Config

	// Rules is the orchestrator routing table. Defaults to
	// orchestrator.DefaultRules.
	Rules []orchestrator.Rule

	// StageTimeout bounds each pipeline stage round trip.
	StageTimeout time.Duration

	// StopTimeout bounds Shutdown when Close is used.
	StopTimeout time.Duration

	// Logger for runtime, bus and agent events. Defaults to a discard
	// logger.
	Logger *logging.Logger
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Bus:          bus.DefaultConfig(),
		Rules:        orchestrator.DefaultRules(),
		StageTimeout: orchestrator.DefaultStageTimeout,
		StopTimeout:  DefaultStopTimeout,
		Logger:       logging.Discard(),
	}
}

// Runtime assembles one registry, one bus and one orchestrator into a
// ready-to-use agent fleet. Agents spawned through it are tracked and
// stopped in phase order on shutdown: agents drain first, then the bus
// closes, then the registry.
type Runtime struct {
	cfg    Config
	reg    *registry.MemoryRegistry
	bus    *bus.MemoryBus
	orch   *orchestrator.Orchestrator
	logger *logging.Logger
	plan   *stopPlan

	mu     sync.Mutex
	agents map[string]*actor.Actor

	watchDone chan struct{}
}

// New creates a runtime. A registry watcher goroutine logs agent
// lifecycle events until shutdown.
func New(optFns ...func(c *Config)) (*Runtime, error) {
	cfg := DefaultConfig()
	for _, fn := range optFns {
		fn(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}

	reg := registry.NewMemoryRegistry()
	b := bus.NewMemoryBus(reg, cfg.Bus)
	b.SetLogger(cfg.Logger)
	orch := orchestrator.New(reg, b, func(o *orchestrator.Options) {
		o.Rules = cfg.Rules
		if cfg.StageTimeout > 0 {
			o.StageTimeout = cfg.StageTimeout
		}
		o.Logger = cfg.Logger
	})

	logger := cfg.Logger.WithComponent("runtime")
	r := &Runtime{
		cfg:       cfg,
		reg:       reg,
		bus:       b,
		orch:      orch,
		logger:    logger,
		plan:      newStopPlan(logger),
		agents:    make(map[string]*actor.Actor),
		watchDone: make(chan struct{}),
	}

	events, err := reg.Watch()
	if err != nil {
		b.Close()
		reg.Close()
		return nil, fmt.Errorf("watching registry: %w", err)
	}
	go r.watch(events)

	r.plan.register("bus", PhaseBus, func(context.Context) error {
		return b.Close()
	})
	r.plan.register("registry", PhaseRegistry, func(context.Context) error {
		return reg.Close()
	})

	return r, nil
}

// Registry returns the runtime's registry.
func (r *Runtime) Registry() registry.Registry {
	return r.reg
}

// Bus returns the runtime's message bus.
func (r *Runtime) Bus() bus.Bus {
	return r.bus
}

// Orchestrator returns the runtime's orchestrator.
func (r *Runtime) Orchestrator() *orchestrator.Orchestrator {
	return r.orch
}

// SpawnAgent creates and starts an agent on the runtime's registry and
// bus. The agent is tracked and stopped during Shutdown.
func (r *Runtime) SpawnAgent(id, name string, capabilities []string, h actor.Handler) (*actor.Actor, error) {
	a, err := actor.New(actor.Config{
		ID:           id,
		Name:         name,
		Capabilities: capabilities,
		Handler:      h,
		Registry:     r.reg,
		Bus:          r.bus,
		Logger:       r.cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	if err := a.Start(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.agents[id] = a
	r.mu.Unlock()

	r.plan.register("agent/"+id, PhaseAgents, func(context.Context) error {
		return a.Stop()
	})

	return a, nil
}

// Agent returns a tracked agent by id, or nil.
func (r *Runtime) Agent(id string) *actor.Actor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.agents[id]
}

// HandleUserRequest runs one request through the orchestrator.
func (r *Runtime) HandleUserRequest(ctx context.Context, text string) *orchestrator.Result {
	return r.orch.HandleUserRequest(ctx, text)
}

// Shutdown stops the fleet in phase order: agents drain their in-flight
// work, then the bus closes (failing any pending waiters), then the
// registry closes (ending watchers). Returns ErrAlreadyShutdown on
// repeat calls.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.logger.Info("runtime shutting down")
	err := r.plan.run(ctx)

	// The watcher ends when the registry closes. On a timed-out shutdown
	// the registry may still be open, so don't wait past the deadline.
	select {
	case <-r.watchDone:
	case <-ctx.Done():
	}
	return err
}

// Close shuts down with the configured stop timeout.
func (r *Runtime) Close() error {
	timeout := r.cfg.StopTimeout
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return r.Shutdown(ctx)
}

// watch logs registry lifecycle events. The event channel closes when
// the registry does, which ends the goroutine.
func (r *Runtime) watch(events <-chan registry.Event) {
	defer close(r.watchDone)

	for ev := range events {
		r.logger.Info("registry event", map[string]interface{}{
			"type":   string(ev.Type),
			"agent":  ev.Agent.ID,
			"status": ev.Agent.Status.String(),
		})
	}
}
