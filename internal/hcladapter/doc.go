// Package hcladapter is the HCL front end: a config.Loader that translates
// .hcl declaration files into the format-agnostic model, and the matching
// semantic source model implementation. The engine core never touches HCL
// beyond ranges and opaque expressions; everything host-specific lives here.
package hcladapter
