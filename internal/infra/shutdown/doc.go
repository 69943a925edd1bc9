// Package shutdown coordinates graceful shutdown of snapwatch-server.
//
// A Handler waits for SIGINT, SIGTERM or an explicit Trigger, then runs the
// registered hooks in reverse order of registration under a shared
// timeout:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown(func(ctx context.Context) error { return server.Shutdown(ctx) })
//	return h.Wait()
package shutdown
