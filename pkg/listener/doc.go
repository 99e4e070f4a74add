// Package listener implements connection acceptance and generation
// dispatch. Each Binding owns an atomic pointer to the current
// service-pipeline generation; each worker's accept loop reads it with
// acquire ordering on every accepted connection — the listener
// generation pointer is the one cross-thread shared object on the data
// path, read and written release/acquire-ordered rather than under a
// lock.
package listener
