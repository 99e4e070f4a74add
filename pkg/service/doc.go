// Package service implements the uniform async "transform" abstraction
// that every layer of the proxy pipeline is built from, and the stack
// builder that composes layers outermost to innermost into one pipeline.
//
// The composition style generalizes a linear middleware chain of
// func(http.Handler) http.Handler wrappers to the typed Context/Request
// pair this module uses, and from a single fixed chain to a chain that
// can be rebuilt and hot-swapped per generation (see pkg/reload).
package service
