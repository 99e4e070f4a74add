// Package perrors implements a typed error taxonomy: a fixed set of Kind
// values, each carrying a short stable Code and a human Context string,
// with wrapping that preserves the underlying cause (`errors.Unwrap`/
// `errors.As` compatible). It also maps each Kind to the HTTP status
// class every client-facing failure should report, and to the Thrift
// exception type a Thrift-facing failure should report.
package perrors
