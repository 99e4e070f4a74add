package routepolicy

import "mercator-hq/relay/pkg/mpl/ast"

// Predicate is a compiled route-admission expression, ready to evaluate
// against a request's Fields without re-parsing.
type Predicate struct {
	expr string
	node *ast.ConditionNode
}

// Compile parses expr into a Predicate. An empty expr is rejected —
// callers should treat an empty `when` as "no predicate" and skip
// compiling it entirely, matching router.Route.When's zero value meaning
// "always admit."
func Compile(expr string) (*Predicate, error) {
	node, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return &Predicate{expr: expr, node: node}, nil
}

// Evaluate reports whether fields satisfies p.
func (p *Predicate) Evaluate(fields Fields) (bool, error) {
	return Evaluate(p.node, fields)
}

// String returns the original expression text.
func (p *Predicate) String() string { return p.expr }
