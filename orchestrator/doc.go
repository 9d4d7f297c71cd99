// Package orchestrator plans capability pipelines from user requests and
// drives them sequentially over the message bus.
//
// # Planning
//
// A request is matched against an ordered rule table (see Rule and
// DefaultRules): each rule contributes its capability when any of its
// keywords occurs in the lowercased request text, provided the
// capabilities it requires were already planned. Table order is stage
// order, so routing policy is data — replace the table from TOML with
// LoadRules without touching dispatch.
//
// # Dispatch
//
// Stages run one at a time. The first stage receives the original user
// text; each later stage receives the previous stage's output. For every
// stage the orchestrator resolves the capability's first registered
// owner, sends it a request, and blocks for the correlated reply.
//
// # Failure policy
//
// The first failing stage aborts the pipeline: no later stage is
// dispatched, and no retry or rerouting is attempted. The returned Result
// keeps the outputs of the stages that completed alongside a structured
// Failure naming the stage and failure code, so a caller can distinguish
// "analysis failed" from "analysis never ran".
//
//	orch := orchestrator.New(reg, b)
//	result := orch.HandleUserRequest(ctx, "Research AI trends and analyze the data")
//	if result.Failed() {
//		log.Printf("aborted at %s: %s", result.Failure.Stage, result.Failure.Message)
//	}
package orchestrator
