// Package swandump renders a parsed swan.XDocument into an etree.Document
// for debugging and golden-style test fixtures, the inverse of the
// teacher's err_test.go fixture direction (there: fixture text -> etree.Document
// for comparison; here: XDocument -> etree.Document for display).
package swandump

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/swandialect/swanparse/swan"
)

// Dump renders doc as an etree.Document. Mustache expressions are rendered
// back as "{{ ... }}"/"{= ... =}" text nodes rather than re-printed script
// source, since XExpression holds a parsed ast.Node, not original text.
func Dump(doc *swan.XDocument) *etree.Document {
	out := etree.NewDocument()
	for _, child := range doc.Children {
		dumpNode(&out.Element, child)
	}
	return out
}

// DumpXML renders doc and returns its indented XML string form.
func DumpXML(doc *swan.XDocument) (string, error) {
	d := Dump(doc)
	d.Indent(2)
	return d.WriteToString()
}

func dumpNode(parent *etree.Element, n swan.Node) {
	switch v := n.(type) {
	case *swan.XElement:
		el := parent.CreateElement(v.Name)
		if v.StartTag != nil {
			for _, a := range v.StartTag.Attributes {
				dumpAttribute(el, a)
			}
		}
		for _, c := range v.Children {
			dumpNode(el, c)
		}
	case *swan.XText:
		parent.CreateCharData(v.Value)
	case *swan.XMustache:
		parent.CreateCharData(dumpMustacheText(v))
	case *swan.XModule:
		parent.CreateCharData(fmt.Sprintf("<module %d statements>", len(v.Body)))
	}
}

func dumpAttribute(el *etree.Element, n swan.Node) {
	switch v := n.(type) {
	case *swan.XAttribute:
		el.CreateAttr(v.Key.Name, dumpAttributeValue(v.Value))
	case *swan.XDirective:
		el.CreateAttr(v.Key.RawName, dumpAttributeValue(v.Value))
	}
}

func dumpAttributeValue(av *swan.XAttributeValue) string {
	if av == nil {
		return ""
	}
	var b strings.Builder
	for _, piece := range av.Pieces {
		switch p := piece.(type) {
		case *swan.XLiteral:
			b.WriteString(p.Value)
		case *swan.XMustache:
			b.WriteString(dumpMustacheText(p))
		case *swan.XExpression:
			b.WriteString(dumpExpressionText(p))
		}
	}
	return b.String()
}

func dumpMustacheText(m *swan.XMustache) string {
	open, close := "{{", "}}"
	if m.StartToken != nil && m.StartToken.Value == "{=" {
		open, close = "{=", "=}"
	}
	if m.Value == nil {
		return open + " " + m.RawPayload + " " + close
	}
	return open + " " + dumpExpressionText(m.Value) + " " + close
}

func dumpExpressionText(expr *swan.XExpression) string {
	if fe, ok := expr.Expression.(*swan.SwanForExpression); ok {
		parts := []string{}
		if fe.Left != nil {
			parts = append(parts, fe.Left.Value)
		}
		if fe.Index != nil {
			parts = append(parts, fe.Index.Value)
		}
		return fmt.Sprintf("for(%s)", strings.Join(parts, ","))
	}
	return fmt.Sprintf("<expr refs=%d>", len(expr.References))
}
