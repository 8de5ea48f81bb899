// Package inherit computes, for a composite configuration, the map of tokens
// visible "from above": the recursively resolved parent chain merged with the
// ordered fragment list, first-write-wins, with per-branch cycle detection
// and provenance annotations for diagnostics.
package inherit
