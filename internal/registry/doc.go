// Package registry provides the central "glue" for the check module system.
//
// The Registry stores mappings between the check type identifiers used in
// suite files (e.g. "http") and the compiled Go handlers that implement
// them. During application startup the registry is populated by the check
// modules and then validated against the loaded suite, so a declaration
// referencing an unknown check type fails before any evaluation runs.
package registry
