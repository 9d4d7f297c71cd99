package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	valid := Config{Provider: "anthropic", Model: "m", APIKey: "k", MaxTokens: 1024}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	tests := []struct {
		name string
		mut  func(c *Config)
	}{
		{"missing provider", func(c *Config) { c.Provider = "" }},
		{"missing model", func(c *Config) { c.Model = "" }},
		{"missing api key", func(c *Config) { c.APIKey = "" }},
		{"missing max tokens", func(c *Config) { c.MaxTokens = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mut(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("invalid config accepted")
			}
		})
	}
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider(Config{Provider: "cohere", Model: "m", APIKey: "k", MaxTokens: 1})
	if err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Errorf("NewProvider = %v, want unknown provider error", err)
	}
}

func TestWithRetryRecoversFromTransientError(t *testing.T) {
	attempts := 0
	retry := RetryConfig{MaxRetries: 3, InitBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}

	err := withRetry(context.Background(), "test", retry, func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("429 too many requests")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withRetry: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWithRetryGivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	retry := RetryConfig{MaxRetries: 2, InitBackoff: time.Millisecond}

	err := withRetry(context.Background(), "test", retry, func() error {
		attempts++
		return fmt.Errorf("service unavailable")
	})
	if err == nil {
		t.Fatal("withRetry returned nil for a persistent failure")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3 (initial + 2 retries)", attempts)
	}
}

func TestWithRetryFatalErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"billing", errors.New("quota exceeded for project")},
		{"client error", errors.New("400 invalid request")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := withRetry(context.Background(), "test", RetryConfig{MaxRetries: 5, InitBackoff: time.Millisecond}, func() error {
				attempts++
				return tt.err
			})
			if err == nil {
				t.Fatal("fatal error was swallowed")
			}
			if attempts != 1 {
				t.Errorf("attempts = %d, want 1 (no retry)", attempts)
			}
		})
	}
}

func TestWithRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := withRetry(ctx, "test", RetryConfig{MaxRetries: 5, InitBackoff: time.Hour}, func() error {
		return fmt.Errorf("503 service unavailable")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("withRetry = %v, want context.Canceled", err)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		err       string
		retryable bool
		billing   bool
	}{
		{"rate limit exceeded", true, false},
		{"429 Too Many Requests", true, false},
		{"server overloaded", true, false},
		{"502 bad gateway", true, false},
		{"billing hard limit reached", false, true},
		{"quota exceeded", false, true},
		{"invalid api key", false, false},
	}

	for _, tt := range tests {
		err := errors.New(tt.err)
		if got := isRetryableError(err); got != tt.retryable {
			t.Errorf("isRetryableError(%q) = %v, want %v", tt.err, got, tt.retryable)
		}
		if got := isBillingError(err); got != tt.billing {
			t.Errorf("isBillingError(%q) = %v, want %v", tt.err, got, tt.billing)
		}
	}
}

func TestMockProvider(t *testing.T) {
	mock := NewMockProvider()
	mock.SetResponse("mocked reply")

	resp, err := mock.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "mocked reply" {
		t.Errorf("Content = %q", resp.Content)
	}
	if mock.CallCount() != 1 {
		t.Errorf("CallCount = %d, want 1", mock.CallCount())
	}
	if got := mock.LastRequest().Messages[0].Content; got != "hello" {
		t.Errorf("LastRequest content = %q", got)
	}

	mock.SetError(errors.New("boom"))
	if _, err := mock.Chat(context.Background(), ChatRequest{}); err == nil {
		t.Error("Chat ignored the scripted error")
	}
}

func TestStageHandler(t *testing.T) {
	mock := NewMockProvider()
	mock.SetResponse("three key findings")

	h := StageHandler(mock, ResearchPrompt)
	out, err := h.Handle(context.Background(), "AI trends")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out != "three key findings" {
		t.Errorf("output = %v", out)
	}

	req := mock.LastRequest()
	if req.Messages[0].Role != "system" || req.Messages[0].Content != ResearchPrompt {
		t.Errorf("system message = %+v", req.Messages[0])
	}
	if req.Messages[1].Role != "user" || req.Messages[1].Content != "AI trends" {
		t.Errorf("user message = %+v", req.Messages[1])
	}
}

func TestStageHandlerPropagatesProviderError(t *testing.T) {
	mock := NewMockProvider()
	mock.SetError(errors.New("model unavailable"))

	h := StageHandler(mock, AnalysisPrompt)
	if _, err := h.Handle(context.Background(), "data"); err == nil {
		t.Error("Handle swallowed the provider error")
	}
}
