// Package app encapsulates the application's dependencies, configuration
// and lifecycle: it loads the suite, registers the check modules, builds
// the precondition repository and drives evaluation runs.
package app
