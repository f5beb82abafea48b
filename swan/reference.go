package swan

import "github.com/expr-lang/expr/ast"

// collectIdentifiers walks n and returns every bare identifier reference
// within it — the leaf case of a MemberNode chain's root, a CallNode's
// callee, or a standalone expression — except the key half of MapNode
// pairs and fixed member-access property names, which are not variable
// references (spec §3 invariant 6: "identifiers are resolved against the
// nearest enclosing XElement.Variables").
func collectIdentifiers(n ast.Node) []*ast.IdentifierNode {
	var out []*ast.IdentifierNode
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		if n == nil {
			return
		}
		switch v := n.(type) {
		case *ast.IdentifierNode:
			out = append(out, v)
		case *ast.MemberNode:
			walk(v.Node)
			if v.Optional || isComputedMember(v) {
				walk(v.Property)
			}
		case *ast.BinaryNode:
			walk(v.Left)
			walk(v.Right)
		case *ast.UnaryNode:
			walk(v.Node)
		case *ast.ConditionalNode:
			walk(v.Cond)
			walk(v.Exp1)
			walk(v.Exp2)
		case *ast.CallNode:
			walk(v.Callee)
			for _, a := range v.Arguments {
				walk(a)
			}
		case *ast.BuiltinNode:
			for _, a := range v.Arguments {
				walk(a)
			}
		case *ast.ClosureNode:
			walk(v.Node)
		case *ast.ArrayNode:
			for _, e := range v.Nodes {
				walk(e)
			}
		case *ast.MapNode:
			for _, p := range v.Pairs {
				if pair, ok := p.(*ast.PairNode); ok {
					walk(pair.Value)
				}
			}
		case *ast.SliceNode:
			walk(v.Node)
			walk(v.From)
			walk(v.To)
		case *ast.ChainNode:
			walk(v.Node)
		case *ast.PairNode:
			walk(v.Value)
		}
	}
	walk(n)
	return out
}

// isComputedMember reports whether m's Property is itself a dynamic
// sub-expression (bracket access, "a[b]") rather than a fixed field name
// ("a.b" — parsed with Property as a literal StringNode that is never a
// variable reference).
func isComputedMember(m *ast.MemberNode) bool {
	_, isString := m.Property.(*ast.StringNode)
	return !isString
}

// resolveReferences builds one Reference per entry of identifiers and, for
// each, finds the innermost scope in scopes (ordered from nearest to
// outermost) that declares a Variable with that name, appending the
// Reference to that Variable; it returns the References in identifiers'
// order (spec §3 invariant 6).
func resolveReferences(identifiers []*ast.IdentifierNode, scopes []*XElement) []*Reference {
	refs := make([]*Reference, 0, len(identifiers))
	for _, id := range identifiers {
		ref := &Reference{Identifier: id}
		for _, scope := range scopes {
			if v := findVariable(scope, id.Value); v != nil {
				ref.Resolved = v
				v.References = append(v.References, ref)
				break
			}
		}
		refs = append(refs, ref)
	}
	return refs
}

func findVariable(el *XElement, name string) *Variable {
	for _, v := range el.Variables {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// enclosingScopes walks up from el (inclusive) through Parent links,
// collecting every ancestor *XElement in nearest-first order.
func enclosingScopes(el *XElement) []*XElement {
	var scopes []*XElement
	var n Node = el
	for n != nil {
		if e, ok := n.(*XElement); ok {
			scopes = append(scopes, e)
		}
		switch v := n.(type) {
		case *XElement:
			n = v.Parent
		case *XStartTag:
			n = v.Parent
		case *XAttribute:
			n = v.Parent
		case *XDirective:
			n = v.Parent
		case *XAttributeValue:
			n = v.Parent
		case *XMustache:
			n = v.Parent
		case *XExpression:
			n = v.Parent
		default:
			n = nil
		}
	}
	return scopes
}
