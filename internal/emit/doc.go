// Package emit defines the payload handed to code emitters, the ordered and
// validated construction plan per composite container, and ships the
// reference Go emitter that turns plans into runtime-free container sources.
package emit
