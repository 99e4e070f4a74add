// Package gitsource drives pkg/reload.Controller from a polled Git
// repository instead of (or alongside) SIGHUP: when the tracked branch
// gets a new commit that touches a *.toml file, Source debounces and
// triggers a Controller.Reload. If that reload fails, Source rolls the
// checkout back to the previous commit and makes no second reload: a
// failed reload has left the running pipeline unchanged.
//
// Source reuses pkg/policy/git.Repository as-is for every Git operation
// (Pull, Rollback, commit inspection); only the poll loop, the *.toml
// filter and the debounce live here.
package gitsource
