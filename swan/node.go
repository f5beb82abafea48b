package swan

import "github.com/expr-lang/expr/ast"

// XMLType tags the document's parse mode (spec §6 filePath option).
type XMLType string

const (
	XMLTypeSwan    XMLType = "swan"
	XMLTypeUnknown XMLType = "unknown"
)

// Ranged is implemented by every AST node and carries its byte range and
// line/column location (spec §3).
type Ranged interface {
	NodeRange() Range
	NodeLoc() Loc
}

// base is embedded by every tree node to provide Range/Loc storage and the
// parent back-reference (spec §3 invariant: parent is a lookup relation
// only, assigned by setParent as each node is built).
type base struct {
	Range  Range
	Loc    Loc
	Parent Node
}

func (b *base) NodeRange() Range { return b.Range }
func (b *base) NodeLoc() Loc     { return b.Loc }

// Node is the common interface implemented by every tree node variant.
type Node interface {
	Ranged
	isNode()
}

// XDocument is the tree root (spec §3).
type XDocument struct {
	base
	Children []Node
	Tokens   []Token
	Comments []Token
	Errors   []*ParseError
	XMLType  XMLType
}

func (*XDocument) isNode() {}

// XElement is a tag and its content (spec §3).
type XElement struct {
	base
	Name      string // lower-cased tag name
	RawName   string // original-case source slice
	StartTag  *XStartTag
	Children  []Node
	EndTag    *XEndTag
	Variables []*Variable // scope declarations introduced by s-for
	Void      bool
}

func (*XElement) isNode() {}

// Variable is a scope declaration an element introduces for its
// descendants (spec §3 invariant 5/6), e.g. the item/index identifiers of
// an s-for directive.
type Variable struct {
	Name       string
	Identifier *ast.IdentifierNode
	References []*Reference
}

// Reference is a single use of an identifier inside an expression that was
// resolved against an enclosing element's Variables (spec §3 invariant 6).
type Reference struct {
	Identifier *ast.IdentifierNode
	Resolved   *Variable
}

// XStartTag holds the attributes/directives of an element (spec §3).
type XStartTag struct {
	base
	SelfClosing bool
	Attributes  []Node // XAttribute or XDirective
}

func (*XStartTag) isNode() {}

// XEndTag is positional only (spec §3).
type XEndTag struct {
	base
}

func (*XEndTag) isNode() {}

// XAttribute is a plain (non-directive) attribute (spec §3).
type XAttribute struct {
	base
	Key   *XIdentifier
	Value *XAttributeValue
}

func (*XAttribute) isNode() {}

// XDirectivePrefix enumerates the recognized directive prefixes (spec §6).
type XDirectivePrefix string

const (
	PrefixS            XDirectivePrefix = "s-"
	PrefixBind         XDirectivePrefix = "bind"
	PrefixCatch        XDirectivePrefix = "catch"
	PrefixCaptureBind  XDirectivePrefix = "capture-bind"
	PrefixCaptureCatch XDirectivePrefix = "capture-catch"
)

// XDirective is an attribute whose key matched the directive grammar (spec
// §3, §6).
type XDirective struct {
	base
	Key   *XDirectiveKey
	Value *XAttributeValue
}

func (*XDirective) isNode() {}

// XDirectiveKey is the parsed key of a directive attribute.
type XDirectiveKey struct {
	base
	Prefix    XDirectivePrefix
	RawPrefix string
	Name      string
	RawName   string
}

func (*XDirectiveKey) isNode() {}

// XIdentifier is a plain attribute/tag name token promoted to a node.
type XIdentifier struct {
	base
	Name string
}

func (*XIdentifier) isNode() {}

// XAttributeValue is the ordered sequence of literal/mustache/expression
// pieces making up an attribute value (spec §3 invariant 4).
type XAttributeValue struct {
	base
	Pieces []Node // XLiteral | XMustache | XExpression
}

func (*XAttributeValue) isNode() {}

// XLiteral is a literal text fragment inside an attribute value: literal
// attribute text (including a directive literal left un-parsed when
// Options.SkipExpressionParsing is true), or the delimiter and buffered text
// of an unterminated mustache.
type XLiteral struct {
	base
	Value string
}

func (*XLiteral) isNode() {}

// XMustache is a `{{ ... }}` / `{= ... =}` expression (spec §3).
type XMustache struct {
	base
	StartToken *Token
	EndToken   *Token
	Value      *XExpression

	// RawPayload holds the unparsed payload text when
	// Options.SkipExpressionParsing is true; Value is nil in that case (spec
	// §6: "mustache payloads ...
	// are preserved as raw Mustache ... pieces without invocation of the
	// script parser").
	RawPayload string
}

func (*XMustache) isNode() {}

// XExpression wraps a parsed script expression or s-for header (spec §3).
type XExpression struct {
	base
	Expression any // ast.Node | *SwanForExpression | nil
	References []*Reference
}

func (*XExpression) isNode() {}

// SwanForExpression is the parsed header of an s-for directive (spec §3).
type SwanForExpression struct {
	Left    *ast.IdentifierNode
	Index   *ast.IdentifierNode
	Right   ast.Node
	TrackBy ast.Node
}

// XText is a literal text run (spec §3).
type XText struct {
	base
	Value string
}

func (*XText) isNode() {}

// XModule is a parsed <import-sjs>/<filter> body (spec §3). Body holds one
// entry per top-level statement: an ast.Node for a statement that parses as
// a plain expr-lang expression, or a *ModuleAssignmentNode for an
// assignment statement expr-lang's own grammar has no node for (module.go).
type XModule struct {
	base
	Body       []any
	References []*Reference
}

func (*XModule) isNode() {}

// setParent assigns n's Parent back-reference. The tree builder calls it as
// each node is created rather than in a separate post-parse traversal; every
// node has exactly one parent slot to assign.
func setParent(n Node, parent Node) {
	switch v := n.(type) {
	case *XElement:
		v.Parent = parent
	case *XStartTag:
		v.Parent = parent
	case *XEndTag:
		v.Parent = parent
	case *XAttribute:
		v.Parent = parent
	case *XDirective:
		v.Parent = parent
	case *XDirectiveKey:
		v.Parent = parent
	case *XIdentifier:
		v.Parent = parent
	case *XAttributeValue:
		v.Parent = parent
	case *XLiteral:
		v.Parent = parent
	case *XMustache:
		v.Parent = parent
	case *XExpression:
		v.Parent = parent
	case *XText:
		v.Parent = parent
	case *XModule:
		v.Parent = parent
	}
}
