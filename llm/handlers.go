package llm

import (
	"context"
	"fmt"

	"github.com/vinayprograms/a2akit/actor"
)

// Stage prompts for the standard pipeline capabilities.
const (
	ResearchPrompt = "You are a research agent. Gather the key facts, figures " +
		"and sources relevant to the request and report them concisely."
	AnalysisPrompt = "You are an analysis agent. Examine the material you are " +
		"given, identify trends and notable patterns, and summarize the insights."
	VisualizationPrompt = "You are a visualization agent. Propose concrete " +
		"charts for the analysis you are given: chart type, axes and series."
)

// StageHandler turns a chat provider into a capability handler. The
// incoming payload (the user request or the previous stage's output) is
// sent as the user message under the stage's system prompt, and the
// model's text reply becomes the stage output.
func StageHandler(p Provider, systemPrompt string) actor.Handler {
	return actor.HandlerFunc(func(ctx context.Context, payload any) (any, error) {
		resp, err := p.Chat(ctx, ChatRequest{
			Messages: []Message{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: fmt.Sprintf("%v", payload)},
			},
		})
		if err != nil {
			return nil, err
		}
		return resp.Content, nil
	})
}
