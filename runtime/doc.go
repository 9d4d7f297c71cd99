// Package runtime assembles the registry, bus, orchestrator and agent
// fleet into a single managed unit.
//
// # Wiring
//
// One Runtime owns one registry and one bus. Agents spawned through
// SpawnAgent share them, so an orchestrated pipeline and its agents all
// live in the same process with no external transport.
//
//	rt, err := runtime.New(func(c *runtime.Config) {
//		c.Logger = logging.New()
//	})
//	rt.SpawnAgent("researcher", "Research Agent", []string{"research"}, handler)
//	result := rt.HandleUserRequest(ctx, "Research AI trends")
//	rt.Close()
//
// # Shutdown
//
// Shutdown is phase ordered: all agents stop concurrently and drain
// their in-flight handlers, then the bus closes and fails any pending
// request waiters, then the registry closes and ends its watchers. A
// component failing to stop is logged and reported, but never blocks the
// later phases.
package runtime
