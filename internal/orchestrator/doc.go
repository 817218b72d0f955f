// Package orchestrator runs one request through the crew.
//
// The manager receives the top-level assignment and reasons one engine step
// at a time. Each step may call tools from the manager's bundle, delegate
// sub-assignments to specialists, or return a final answer. Delegations
// requested in the same step fan out concurrently and are joined before the
// manager's next step sees their results. Specialists run the same loop but
// may not delegate.
//
// Every worker is bounded by its iteration budget, every tool call passes
// through a box scoped to the worker's capability bundle, and every
// assignment ends with exactly one Result.
//
// Example usage:
//
//	c := crew.Default()
//	o := orchestrator.New(c, eng, box, orchestrator.WithLogger(logger))
//	sess := models.NewSession(models.ModeRun, "Find bugs in wallet.go", models.SessionParams{})
//	result, err := o.Execute(ctx, sess)
package orchestrator
