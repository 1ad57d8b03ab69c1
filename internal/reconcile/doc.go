// Package reconcile runs one render, apply and prune pass.
//
// A run moves through the phases Start, Rendering, Applying, Pruning and
// Done. Applying is skipped when nothing was rendered; Pruning still runs.
// A missing flag or a render failure ends the run in Failed before the
// cluster is touched. An apply or inventory failure ends it in Failed before
// anything is deleted. Per-object delete failures are logged and collected
// in the result but never fail the run.
package reconcile
