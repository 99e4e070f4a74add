// Package pcontext implements the per-connection typed fact map that
// flows down the service pipeline.
//
// A fully compile-time-checked heterogeneous map — where a layer can only
// read a tag that a prior layer in the same pipeline has already
// inserted, and the set of tags present at a given pipeline position is
// statically knowable — needs generics machinery heavy enough to fight
// this codebase's plain-struct style. Context is instead a single struct
// with one optional field per enumerated tag (PeerAddr, TLSSNI, TLSALPN,
// PeerCert, ProxyProtoSrc, RouteMatch, SelectedUpstream, UpstreamConn)
// plus a presence bit per field. Every With* method returns a shallow
// copy with the new field populated, so a layer can never observe a tag
// it did not itself insert or inherit from an upstream layer — see
// DESIGN.md for why this, rather than a dynamic map, was chosen.
package pcontext
