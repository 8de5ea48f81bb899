// Package app wires the loader, engine and emitter into the girder command:
// configuration, logging and the run lifecycle.
package app
