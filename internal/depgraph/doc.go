// Package depgraph builds the per-config service dependency graph, orders it
// dependencies-before-dependents for the emitter, and detects service-level
// cycles. Graphs are built once per composite config after validation and
// consumed once.
package depgraph
