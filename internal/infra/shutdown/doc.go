// Package shutdown coordinates graceful termination.
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	ctx, stop := h.Context(context.Background())
//	defer stop()
//	h.OnShutdown(func(context.Context) error { return store.Close() })
//	run(ctx)
//	return h.Shutdown()
package shutdown
