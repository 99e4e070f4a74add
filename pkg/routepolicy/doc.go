// Package routepolicy implements the optional `when = "..."` route
// admission predicate: a single boolean expression over request facts
// (header, path, method, SNI, time-of-day) evaluated before a matched
// route is accepted as final.
//
// The predicate's AST reuses pkg/mpl's condition model directly
// (ast.ConditionNode, ast.Operator, ast.ValueNode) rather than inventing
// a parallel representation: route predicates are a single boolean
// condition tree, the same shape MPL's rule conditions already are, just
// evaluated against a different field set (request facts instead of LLM
// request/response attributes) and expressed as a flat string rather
// than a YAML block, since a route table entry has one expression, not a
// whole policy document. pkg/mpl's own parser is YAML-document-shaped
// and does not fit that surface, so this package's parser.go is a small,
// self-contained recursive-descent parser producing mpl's own AST nodes
// — see DESIGN.md.
package routepolicy
