package actor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	a2aerrors "github.com/vinayprograms/a2akit/errors"
	"github.com/vinayprograms/a2akit/bus"
	"github.com/vinayprograms/a2akit/logging"
	"github.com/vinayprograms/a2akit/registry"
)

// Common errors.
var (
	ErrAlreadyRunning = errors.New("actor already running")
	ErrInvalidConfig  = errors.New("invalid actor configuration")
)

// Handler is the capability contract an agent fulfils: one fallible
// function from request payload to response payload. Domain logic lives
// entirely behind this interface; the actor owns only the plumbing.
type Handler interface {
	Handle(ctx context.Context, payload any) (any, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, payload any) (any, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, payload any) (any, error) {
	return f(ctx, payload)
}

// Config holds everything an actor needs. Registry and Bus are passed in
// explicitly; there are no process-wide instances.
type Config struct {
	// ID uniquely identifies the agent.
	ID string

	// Name is a human-readable name. Defaults to ID.
	Name string

	// Capabilities the agent advertises in the registry.
	Capabilities []string

	// Handler is the injected capability logic.
	Handler Handler

	// Registry for self-registration.
	Registry registry.Registry

	// Bus for the inbox and replies.
	Bus bus.Bus

	// Logger for loop diagnostics. Optional.
	Logger *logging.Logger
}

// Actor is a lifecycle-managed consumer of one inbox. It runs an
// independent loop that takes requests in FIFO order, invokes the handler,
// and replies with a correlated Response or Error message.
//
// State machine: Stopped → Starting → Running → Stopping → Stopped.
type Actor struct {
	id           string
	name         string
	capabilities []string
	handler      Handler
	reg          registry.Registry
	bus          bus.Bus
	logger       *logging.Logger

	mu     sync.Mutex
	state  registry.Status
	inbox  *bus.Inbox
	cancel context.CancelFunc
	stopCh chan struct{}
	done   chan struct{}
}

// New constructs a stopped actor from the configuration.
func New(cfg Config) (*Actor, error) {
	if cfg.ID == "" || cfg.Handler == nil || cfg.Registry == nil || cfg.Bus == nil {
		return nil, ErrInvalidConfig
	}
	if cfg.Name == "" {
		cfg.Name = cfg.ID
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Actor{
		id:           cfg.ID,
		name:         cfg.Name,
		capabilities: cfg.Capabilities,
		handler:      cfg.Handler,
		reg:          cfg.Registry,
		bus:          cfg.Bus,
		logger:       logger.WithComponent("actor:" + cfg.ID),
		state:        registry.StatusStopped,
	}, nil
}

// ID returns the agent id.
func (a *Actor) ID() string {
	return a.id
}

// State returns the current lifecycle state.
func (a *Actor) State() registry.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Start binds the inbox, registers the agent as running, and launches the
// consumption loop. Returns ErrAlreadyRunning unless the actor is stopped.
func (a *Actor) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != registry.StatusStopped {
		return ErrAlreadyRunning
	}
	a.state = registry.StatusStarting

	inbox, err := a.bus.Bind(a.id)
	if err != nil {
		a.state = registry.StatusStopped
		return fmt.Errorf("binding inbox: %w", err)
	}

	err = a.reg.Register(registry.AgentDescriptor{
		ID:           a.id,
		Name:         a.name,
		Capabilities: a.capabilities,
		Status:       registry.StatusRunning,
	})
	if err != nil {
		a.bus.Unbind(a.id)
		a.state = registry.StatusStopped
		return fmt.Errorf("registering agent: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.inbox = inbox
	a.cancel = cancel
	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	a.state = registry.StatusRunning

	go a.loop(ctx)

	a.logger.Info("agent started", map[string]interface{}{
		"capabilities": fmt.Sprintf("%v", a.capabilities),
	})

	return nil
}

// Stop transitions to Stopping, lets the message currently being handled
// finish, then unregisters and reaches Stopped. Calling Stop on a
// non-running actor is a no-op.
func (a *Actor) Stop() error {
	a.mu.Lock()
	if a.state != registry.StatusRunning {
		a.mu.Unlock()
		return nil
	}
	a.state = registry.StatusStopping
	a.reg.SetStatus(a.id, registry.StatusStopping)
	close(a.stopCh)
	done := a.done
	a.mu.Unlock()

	// Cooperative: the loop finishes its in-flight handler first.
	<-done

	a.reg.Deregister(a.id)
	a.bus.Unbind(a.id)

	a.mu.Lock()
	a.cancel()
	a.state = registry.StatusStopped
	a.mu.Unlock()

	a.logger.Info("agent stopped")

	return nil
}

// loop consumes the inbox in FIFO order until stopped.
func (a *Actor) loop(ctx context.Context) {
	defer close(a.done)

	for {
		select {
		case <-a.stopCh:
			return
		case msg, ok := <-a.inbox.C():
			if !ok {
				// Inbox machinery fault: fatal for this actor only. Mark
				// the registry entry unavailable so routing fails closed.
				a.crash()
				return
			}
			a.handleMessage(ctx, msg)
		}
	}
}

// handleMessage invokes the handler and sends the correlated reply. A
// handler failure or panic becomes an Error response; the loop survives.
func (a *Actor) handleMessage(ctx context.Context, msg bus.Message) {
	if msg.Kind != bus.KindRequest {
		a.logger.Warn("ignoring non-request message", map[string]interface{}{
			"kind": msg.Kind, "sender": msg.Sender,
		})
		return
	}

	result, err := a.invoke(ctx, msg.Payload)
	if err != nil {
		// A handler returning a structured error keeps its code; plain
		// errors are classified as handler failures.
		code := a2aerrors.ErrCodeHandlerFailed
		if structured, ok := a2aerrors.AsAgentError(err); ok {
			code = structured.Code()
		}
		handlerErr := a2aerrors.WrapWithCode(err, code,
			"capability handler failed",
			a2aerrors.WithAgentID(a.id),
			a2aerrors.WithCorrelationID(msg.CorrelationID),
		)
		a.logger.Warn("handler failed", map[string]interface{}{
			"correlation_id": msg.CorrelationID, "error": err,
		})
		if sendErr := a.bus.Send(bus.NewErrorResponse(msg, a.id, handlerErr)); sendErr != nil {
			a.logger.Error("sending error reply failed", map[string]interface{}{
				"correlation_id": msg.CorrelationID, "error": sendErr,
			})
		}
		return
	}

	if sendErr := a.bus.Send(bus.NewResponse(msg, a.id, result)); sendErr != nil {
		a.logger.Error("sending reply failed", map[string]interface{}{
			"correlation_id": msg.CorrelationID, "error": sendErr,
		})
	}
}

// invoke runs the handler, converting panics into errors.
func (a *Actor) invoke(ctx context.Context, payload any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = a2aerrors.Newf(a2aerrors.ErrCodePanic, "handler panicked: %v", r)
		}
	}()
	return a.handler.Handle(ctx, payload)
}

// crash marks the actor unavailable after a machinery fault.
func (a *Actor) crash() {
	a.logger.Error("inbox fault, actor crashing")

	a.reg.SetStatus(a.id, registry.StatusStopped)
	a.bus.Unbind(a.id)

	a.mu.Lock()
	a.cancel()
	a.state = registry.StatusStopped
	a.mu.Unlock()
}
