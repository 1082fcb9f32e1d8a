// Package config defines the format-agnostic model of a precondition suite:
// the declarations the application wiring turns into registered
// preconditions. Loaders (currently HCL) translate their on-disk formats
// into this model.
package config
