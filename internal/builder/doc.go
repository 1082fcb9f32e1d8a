// Package builder turns a loaded suite model into a populated precondition
// repository: it decodes each declaration's arguments into its handler's
// input struct, binds check and init functions, and registers nodes in
// dependency order.
package builder
