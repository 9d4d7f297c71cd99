package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vinayprograms/a2akit/bus"
	a2aerrors "github.com/vinayprograms/a2akit/errors"
	"github.com/vinayprograms/a2akit/logging"
	"github.com/vinayprograms/a2akit/registry"
)

// DefaultStageTimeout bounds how long the orchestrator waits for a
// single pipeline stage to respond.
const DefaultStageTimeout = 30 * time.Second

// StageResult records one completed pipeline stage.
type StageResult struct {
	// Capability that produced the output.
	Capability string

	// AgentID of the agent that handled the stage.
	AgentID string

	// Output is the stage's response payload, fed as input to the next
	// stage.
	Output any
}

// Failure describes the stage at which a pipeline aborted. Stages after
// the failed one are never dispatched.
type Failure struct {
	// Stage is the capability that failed.
	Stage string

	// Code classifies the failure.
	Code a2aerrors.ErrorCode

	// Message is a human-readable description.
	Message string
}

// Result is the outcome of one user request: the completed stages in
// pipeline order, plus the failure that aborted the run, if any. Partial
// results are kept — a failure at stage three still reports the outputs
// of stages one and two.
type Result struct {
	// RequestID identifies the run in logs.
	RequestID string

	// Request is the original user text.
	Request string

	// Plan is the ordered capability pipeline derived from the request.
	Plan []string

	// Stages holds the completed stage results, in dispatch order.
	Stages []StageResult

	// Failure is non-nil when the pipeline aborted.
	Failure *Failure
}

// Failed reports whether the pipeline aborted before completing.
func (r *Result) Failed() bool {
	return r.Failure != nil
}

// FinalOutput returns the last completed stage's output, or nil when no
// stage completed.
func (r *Result) FinalOutput() any {
	if len(r.Stages) == 0 {
		return nil
	}
	return r.Stages[len(r.Stages)-1].Output
}

// Options configures an Orchestrator.
type Options struct {
	// ID is the orchestrator's sender id on the bus.
	ID string

	// Rules is the routing table used to plan pipelines. Defaults to
	// DefaultRules.
	Rules []Rule

	// StageTimeout bounds each stage's request/response round trip.
	StageTimeout time.Duration

	// Logger for orchestration events. Defaults to a discard logger.
	Logger *logging.Logger
}

// Orchestrator plans capability pipelines from user requests and
// dispatches them stage by stage over the bus. It holds no per-request
// state, so concurrent HandleUserRequest calls are safe.
type Orchestrator struct {
	id           string
	registry     registry.Registry
	bus          bus.Bus
	rules        []Rule
	stageTimeout time.Duration
	logger       *logging.Logger
}

// New creates an orchestrator over the given registry and bus.
func New(reg registry.Registry, b bus.Bus, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		ID:           "orchestrator-" + uuid.NewString(),
		Rules:        DefaultRules(),
		StageTimeout: DefaultStageTimeout,
		Logger:       logging.Discard(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Orchestrator{
		id:           opts.ID,
		registry:     reg,
		bus:          b,
		rules:        opts.Rules,
		stageTimeout: opts.StageTimeout,
		logger:       opts.Logger.WithComponent("orchestrator"),
	}
}

// ID returns the orchestrator's bus sender id.
func (o *Orchestrator) ID() string {
	return o.id
}

// HandleUserRequest plans a pipeline for the request text and runs it
// sequentially: the first stage receives the original text, each later
// stage receives the previous stage's output. The first stage failure
// aborts the run; completed stage outputs survive in the result. The
// return value is always non-nil.
func (o *Orchestrator) HandleUserRequest(ctx context.Context, text string) *Result {
	result := &Result{
		RequestID: uuid.NewString(),
		Request:   text,
		Plan:      PlanStages(text, o.rules),
	}

	log := o.logger.WithRequestID(result.RequestID)
	log.Info("pipeline planned", map[string]interface{}{
		"stages": fmt.Sprintf("%v", result.Plan),
	})

	input := any(text)
	for _, capability := range result.Plan {
		if err := ctx.Err(); err != nil {
			result.Failure = &Failure{
				Stage:   capability,
				Code:    a2aerrors.ErrCodeCanceled,
				Message: err.Error(),
			}
			break
		}

		output, failure := o.runStage(log, capability, input)
		if failure != nil {
			result.Failure = failure
			break
		}

		result.Stages = append(result.Stages, *output)
		input = output.Output
	}

	if result.Failed() {
		log.Warn("pipeline aborted", map[string]interface{}{
			"stage": result.Failure.Stage,
			"code":  result.Failure.Code.String(),
		})
	} else {
		log.Info("pipeline completed", map[string]interface{}{
			"stages": len(result.Stages),
		})
	}
	return result
}

// runStage resolves the capability's owner and performs one
// request/response round trip.
func (o *Orchestrator) runStage(log *logging.Logger, capability string, input any) (*StageResult, *Failure) {
	owners, err := o.registry.Lookup(capability)
	if err != nil || len(owners) == 0 {
		return nil, &Failure{
			Stage:   capability,
			Code:    a2aerrors.ErrCodeCapabilityMissing,
			Message: fmt.Sprintf("no agent advertises capability %q", capability),
		}
	}
	owner := owners[0]

	log.Info("dispatching stage", map[string]interface{}{
		"capability": capability,
		"agent":      owner,
	})

	req := bus.NewRequest(o.id, owner, input)
	reply, err := o.bus.Call(req, o.stageTimeout)
	if err != nil {
		return nil, &Failure{
			Stage:   capability,
			Code:    sendErrorCode(err),
			Message: err.Error(),
		}
	}

	if reply.Kind == bus.KindError {
		return nil, failureFromReply(capability, reply)
	}

	return &StageResult{
		Capability: capability,
		AgentID:    owner,
		Output:     reply.Payload,
	}, nil
}

// sendErrorCode maps bus sentinels onto failure codes.
func sendErrorCode(err error) a2aerrors.ErrorCode {
	switch {
	case errors.Is(err, bus.ErrTimeout):
		return a2aerrors.ErrCodeDeliveryTimeout
	case errors.Is(err, bus.ErrAgentUnavailable):
		return a2aerrors.ErrCodeAgentUnavailable
	case errors.Is(err, bus.ErrInboxFull):
		return a2aerrors.ErrCodeInboxFull
	default:
		return a2aerrors.ErrCodeInternal
	}
}

// failureFromReply extracts the structured error an agent reported. A
// malformed error payload still aborts the stage, just with a generic
// code.
func failureFromReply(capability string, reply *bus.Message) *Failure {
	if aerr, ok := reply.Payload.(*a2aerrors.Error); ok {
		return &Failure{
			Stage:   capability,
			Code:    aerr.Code(),
			Message: aerr.Error(),
		}
	}
	return &Failure{
		Stage:   capability,
		Code:    a2aerrors.ErrCodeHandlerFailed,
		Message: fmt.Sprintf("%v", reply.Payload),
	}
}
