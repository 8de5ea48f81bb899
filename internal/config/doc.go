// Package config holds the format-agnostic declaration model produced by a
// Loader. Models are built once and read-only thereafter; every downstream
// pass treats them as immutable.
package config
