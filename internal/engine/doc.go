// Package engine orchestrates one analysis call end to end: collection,
// inheritance resolution, the validation pipeline, dependency graph
// construction and ordering, and plan assembly for the emitter.
package engine
