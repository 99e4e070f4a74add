package routepolicy

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"mercator-hq/relay/pkg/mpl/ast"
)

// Evaluate walks node against fields, the same node-kind dispatch
// pkg/mpl's own semantic validator uses (IsSimple/IsLogical/IsFunction),
// narrowed to the comparison operators a route predicate supports.
// Function conditions (has_pii(), has_injection(), ...) are MPL's
// LLM-governance surface and are rejected here as unsupported.
func Evaluate(node *ast.ConditionNode, fields Fields) (bool, error) {
	switch {
	case node.IsFunction():
		return false, fmt.Errorf("routepolicy: function conditions are not supported in route predicates: %s", node.Function)
	case node.IsLogical():
		return evalLogical(node, fields)
	case node.IsSimple():
		return evalSimple(node, fields)
	default:
		return false, fmt.Errorf("routepolicy: unknown condition type %q", node.Type)
	}
}

func evalLogical(node *ast.ConditionNode, fields Fields) (bool, error) {
	switch node.Type {
	case ast.ConditionTypeAll:
		for _, c := range node.Children {
			ok, err := Evaluate(c, fields)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case ast.ConditionTypeAny:
		for _, c := range node.Children {
			ok, err := Evaluate(c, fields)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case ast.ConditionTypeNot:
		if len(node.Children) != 1 {
			return false, fmt.Errorf("routepolicy: not expects exactly one child, got %d", len(node.Children))
		}
		ok, err := Evaluate(node.Children[0], fields)
		if err != nil {
			return false, err
		}
		return !ok, nil
	default:
		return false, fmt.Errorf("routepolicy: unknown logical condition type %q", node.Type)
	}
}

func evalSimple(node *ast.ConditionNode, fields Fields) (bool, error) {
	raw, known := fields.lookup(node.Field)
	if !known {
		return false, fmt.Errorf("routepolicy: unknown field %q", node.Field)
	}

	switch node.Operator {
	case ast.OperatorIn, ast.OperatorNotIn:
		arr, _ := node.Value.Value.([]interface{})
		hit := false
		for _, v := range arr {
			if asString(raw) == asString(v) {
				hit = true
				break
			}
		}
		if node.Operator == ast.OperatorNotIn {
			return !hit, nil
		}
		return hit, nil
	}

	lhs := asString(raw)
	rhs := asString(node.Value.Value)

	switch node.Operator {
	case ast.OperatorEqual:
		return lhs == rhs, nil
	case ast.OperatorNotEqual:
		return lhs != rhs, nil
	case ast.OperatorContains:
		return strings.Contains(lhs, rhs), nil
	case ast.OperatorStartsWith:
		return strings.HasPrefix(lhs, rhs), nil
	case ast.OperatorEndsWith:
		return strings.HasSuffix(lhs, rhs), nil
	case ast.OperatorMatches:
		re, err := regexp.Compile(rhs)
		if err != nil {
			return false, fmt.Errorf("routepolicy: invalid regex %q: %w", rhs, err)
		}
		return re.MatchString(lhs), nil
	case ast.OperatorLessThan, ast.OperatorGreaterThan, ast.OperatorLessEqual, ast.OperatorGreaterEqual:
		lf, lok := asFloat(raw)
		rf, rok := asFloat(node.Value.Value)
		if !lok || !rok {
			return false, fmt.Errorf("routepolicy: %q is not numeric for operator %q", node.Field, node.Operator)
		}
		switch node.Operator {
		case ast.OperatorLessThan:
			return lf < rf, nil
		case ast.OperatorGreaterThan:
			return lf > rf, nil
		case ast.OperatorLessEqual:
			return lf <= rf, nil
		default:
			return lf >= rf, nil
		}
	default:
		return false, fmt.Errorf("routepolicy: unsupported operator %q", node.Operator)
	}
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(v)
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
