package runtime

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vinayprograms/a2akit/logging"
)

func TestStopPlanPhaseOrder(t *testing.T) {
	plan := newStopPlan(logging.Discard())

	var mu sync.Mutex
	var order []string
	record := func(name string) StopFunc {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	// Registered out of order on purpose.
	plan.register("registry", PhaseRegistry, record("registry"))
	plan.register("agent", PhaseAgents, record("agent"))
	plan.register("bus", PhaseBus, record("bus"))

	if err := plan.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{"agent", "bus", "registry"}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("stop order = %v, want %v", order, want)
		}
	}
}

func TestStopPlanSamePhaseRunsConcurrently(t *testing.T) {
	plan := newStopPlan(logging.Discard())

	// Two hooks that each wait for the other: they only finish if the
	// phase runs them concurrently.
	barrier := make(chan struct{}, 2)
	hook := func(context.Context) error {
		barrier <- struct{}{}
		select {
		case <-barrier:
			return nil
		case <-time.After(2 * time.Second):
			return fmt.Errorf("peer never arrived")
		}
	}
	plan.register("a", PhaseAgents, hook)
	plan.register("b", PhaseAgents, hook)

	if err := plan.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestStopPlanContinuesPastFailure(t *testing.T) {
	plan := newStopPlan(logging.Discard())

	laterRan := false
	plan.register("flaky", PhaseAgents, func(context.Context) error {
		return fmt.Errorf("drain failed")
	})
	plan.register("bus", PhaseBus, func(context.Context) error {
		laterRan = true
		return nil
	})

	if err := plan.run(context.Background()); err != ErrStopFailed {
		t.Fatalf("run = %v, want ErrStopFailed", err)
	}
	if !laterRan {
		t.Error("later phase skipped after earlier failure")
	}
}

func TestStopPlanRunsOnce(t *testing.T) {
	plan := newStopPlan(logging.Discard())

	calls := 0
	plan.register("once", PhaseAgents, func(context.Context) error {
		calls++
		return nil
	})

	if err := plan.run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := plan.run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if calls != 1 {
		t.Errorf("hook ran %d times, want 1", calls)
	}
}

func TestStopPlanTimeout(t *testing.T) {
	plan := newStopPlan(logging.Discard())
	plan.register("agent", PhaseAgents, func(context.Context) error { return nil })

	busRan := false
	plan.register("bus", PhaseBus, func(context.Context) error {
		busRan = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	plan.register("slow", PhaseAgents, func(context.Context) error {
		cancel() // deadline passes while the agent phase runs
		return nil
	})

	if err := plan.run(ctx); err != ErrShutdownTimeout {
		t.Fatalf("run = %v, want ErrShutdownTimeout", err)
	}
	if busRan {
		t.Error("phase ran after the deadline passed")
	}
}
