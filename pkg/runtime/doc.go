// Package runtime implements a thread-per-core execution substrate: N
// worker goroutines, each pinned to an OS thread, each owning an
// independent accept path, with no cross-worker sharing of user state
// on the data path.
//
// Go exposes one I/O driver (the runtime netpoller); there is no
// application-level choice between a completion-based and a
// readiness-based reactor the way the `runtime_type` config knob implies.
// relay keeps the config knob for wire compatibility but only
// `readiness` changes behavior (see DESIGN.md); `completion` is accepted
// and logged as informational. What Go *can* give the shape of "N
// independent acceptors, no shared acceptor, kernel-balanced" is
// SO_REUSEPORT: each worker binds its own listening socket on the same
// address, and the kernel load-balances incoming connections across
// them. This package provides that on top of golang.org/x/sys for the
// raw socket option.
package runtime
