// Package health provides HTTP handlers for service health monitoring.
//
// Handlers:
//   - Liveness: Process is running (no dependency checks)
//   - Readiness: All dependencies are available
//   - NoContent: Returns 204 for minimal overhead
//   - Stats: JSON snapshot of runtime counters
//
// Usage:
//
//	r.Handle("/health/live", health.Liveness())
//	r.Handle("/health/ready", health.Readiness(log, broker.Healthcheck, redis.Healthcheck(client)))
//	r.Handle("/stats", health.Stats(func() any { return broker.Stats() }))
//
// Dependency checks must follow func(context.Context) error signature:
//
//	func checkDB(ctx context.Context) error {
//		return db.PingContext(ctx)
//	}
package health
