// Package shutdown provides graceful shutdown for docmirror.
//
// This package handles process termination for the agent mode:
//
//   - Signal handling (SIGINT, SIGTERM)
//   - Timeout-based forced shutdown
//   - Cleanup callback registration in reverse order
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown(store.CloseContext)
//	err := h.Wait() // blocks until a signal arrives
package shutdown
