// Package reload implements the reconfiguration controller: it rebuilds
// every listener's service pipeline by calling each registered Target's
// BuildFunc and hot-swaps the result in, worker by worker, with no
// dropped connection and no window where a half-built pipeline is live.
// What a rebuild reads is up to the BuildFunc; the one cmd/relay
// registers reuses the configuration and route table loaded at startup.
//
// The controller never decides *when* to reload — that is WatchSignals'
// SIGHUP loop or an external trigger such as gitsource's poll loop, which
// watches a Git checkout for changed *.toml files. Either trigger calls
// Controller.Reload, which does the actual build-verify-publish-drop
// sequence: build a fresh generation for every worker of every
// registered listener first (per worker and not once per listener, since
// each worker owns its own connector pool under the thread-per-core
// model — see pkg/runtime); only if every single build succeeds does it
// publish any of them via listener.Binding.Publish; only once every
// publish has happened does it close the previous generation's private
// resources. A failure at any build aborts the whole reload and leaves
// every listener serving its previous, already-running generation
// untouched.
package reload
