package swan

import (
	"sort"
	"strings"

	"github.com/expr-lang/expr/ast"
)

// TreeBuilder consumes an IntermediateTokenizer's records and assembles the
// XDocument tree (spec §4.5): an element stack plus a handful of per-record
// rules, mirroring the open-elements-stack shape of chtml/parse.go's
// chtmlParser without that parser's full HTML insertion-mode machinery —
// SWAN's tag set carries none of table/formatting-element scoping, so a
// plain top-of-stack parent and a linear name search on end tags are enough.
type TreeBuilder struct {
	doc   *XDocument
	stack []*XElement
	tok   *Tokenizer
	it    *IntermediateTokenizer
	sp    ScriptParser
	src   string

	noOpenTag       bool
	parseExpression bool
}

// parseDocument drives the full pipeline over src and returns the finished
// XDocument.
func parseDocument(src string, sp ScriptParser, noOpenTag, parseExpression bool) *XDocument {
	tb := &TreeBuilder{
		doc:             &XDocument{XMLType: XMLTypeSwan},
		tok:             NewTokenizer(src),
		sp:              sp,
		src:             src,
		noOpenTag:       noOpenTag,
		parseExpression: parseExpression,
	}
	tb.it = NewIntermediateTokenizer(tb.tok, tb.reportError)
	return tb.build()
}

func (tb *TreeBuilder) reportError(code ErrorCode, msg string, index int, pos Position) {
	tb.doc.Errors = append(tb.doc.Errors, newError(code, msg, index, pos))
}

func (tb *TreeBuilder) top() Node {
	if len(tb.stack) > 0 {
		return tb.stack[len(tb.stack)-1]
	}
	return tb.doc
}

func (tb *TreeBuilder) slice(r Range) string { return tb.src[r.Start:r.End] }

// rootCalc returns a fresh root LocationCalculator reflecting every gap and
// line terminator the tokenizer has recorded so far. It is rebuilt on every
// call rather than cached once: the underlying reader keeps appending to its
// gaps/lineTerminators slices as tokenization proceeds, and a calculator
// built too early could capture a backing array that a later append
// reallocates away from.
func (tb *TreeBuilder) rootCalc() *LocationCalculator {
	return NewLocationCalculator(tb.tok.Gaps(), tb.tok.LineTerminators())
}

func (tb *TreeBuilder) appendChild(parent Node, child Node) {
	switch p := parent.(type) {
	case *XDocument:
		p.Children = append(p.Children, child)
	case *XElement:
		p.Children = append(p.Children, child)
	}
}

// build runs the record loop to completion, closes anything still open at
// EOF, and finalizes the document's Tokens/Comments/Errors/Range.
func (tb *TreeBuilder) build() *XDocument {
	for {
		rec := tb.it.Next()
		if rec == nil {
			break
		}
		switch rec.Kind {
		case StartTagRecord:
			tb.startTag(rec)
		case EndTagRecord:
			tb.endTag(rec)
		case TextRecord:
			tb.text(rec)
		case MustacheRecordKind:
			tb.mustacheRecord(rec)
		}
	}
	tb.closeRemaining()

	tb.doc.Tokens = tb.it.ConsumedTokens()
	tb.doc.Comments = tb.it.Comments()
	tb.doc.Errors = append(tb.doc.Errors, tb.tok.Errors()...)
	sortErrors(tb.doc.Errors)
	sortTokensByStart(tb.doc.Tokens)
	sortTokensByStart(tb.doc.Comments)

	end := len(tb.src)
	endPos := tb.tok.EndPosition()
	tb.doc.Range = Range{Start: 0, End: end}
	tb.doc.Loc = Loc{Start: Position{Line: 1, Column: 0}, End: endPos}
	return tb.doc
}

func sortTokensByStart(toks []Token) {
	sort.SliceStable(toks, func(i, j int) bool { return toks[i].Range.Start < toks[j].Range.Start })
}

// --- record handlers ---

func (tb *TreeBuilder) startTag(rec *Record) {
	name := strings.ToLower(rec.NameToken.Value)

	if topEl, ok := tb.top().(*XElement); ok && SwanCanBeLeftOpenTags[topEl.Name] && sameTag(topEl.Name, name) {
		tb.popElement(Range{Start: rec.Range.Start, End: rec.Range.Start}, Loc{Start: rec.Loc.Start, End: rec.Loc.Start}, false)
	}

	el := &XElement{
		base:    base{Range: rec.Range, Loc: rec.Loc},
		Name:    name,
		RawName: tb.slice(rec.NameToken.Range),
		Void:    SwanVoidElementTags[name],
	}
	tag := &XStartTag{base: base{Range: rec.Range, Loc: rec.Loc}, SelfClosing: rec.SelfClosing}
	el.StartTag = tag
	setParent(tag, el)

	parent := tb.top()
	setParent(el, parent)
	tb.appendChild(parent, el)

	// s-for is processed first so its item/index Variables are already
	// registered on el by the time any other attribute on this same tag
	// (or this tag's own "for" source expression resolving against outer
	// scopes) is resolved.
	forIdx := -1
	for i, raw := range rec.Attrs {
		if _, _, dname, ok := parseDirectiveKey(raw.KeyToken.Value); ok && dname == "for" {
			forIdx = i
			break
		}
	}
	nodes := make([]Node, len(rec.Attrs))
	if forIdx >= 0 {
		nodes[forIdx] = tb.processAttribute(rec.Attrs[forIdx], tag, el)
	}
	for i, raw := range rec.Attrs {
		if i == forIdx {
			continue
		}
		nodes[i] = tb.processAttribute(raw, tag, el)
	}
	tag.Attributes = nodes

	if el.Void {
		return
	}
	switch {
	case SwanRCDataTags[name]:
		tb.tok.SetRCDATA(name)
	case SwanRawTextTags[name]:
		tb.tok.SetRAWTEXT(name)
	}
	if rec.SelfClosing {
		return
	}
	tb.stack = append(tb.stack, el)
}

func (tb *TreeBuilder) endTag(rec *Record) {
	name := strings.ToLower(rec.NameToken.Value)
	idx := -1
	for i := len(tb.stack) - 1; i >= 0; i-- {
		if sameTag(tb.stack[i].Name, name) {
			idx = i
			break
		}
	}
	if idx < 0 {
		tb.reportError(ErrInvalidEndTag, "invalid end tag", rec.Range.Start, rec.Loc.Start)
		return
	}

	closedAt := Range{Start: rec.Range.Start, End: rec.Range.Start}
	closedAtLoc := Loc{Start: rec.Loc.Start, End: rec.Loc.Start}
	for len(tb.stack)-1 > idx {
		tb.popElement(closedAt, closedAtLoc, true)
	}

	el := tb.stack[len(tb.stack)-1]
	tb.stack = tb.stack[:len(tb.stack)-1]
	end := &XEndTag{base: base{Range: rec.Range, Loc: rec.Loc}}
	setParent(end, el)
	el.EndTag = end
	el.Range.End = rec.Range.End
	el.Loc.End = rec.Loc.End
}

// popElement closes the top-of-stack element without a matching end tag
// (propagateEndLocation, spec §4.5): its range extends to closedAt and, when
// noOpenTag is set, a missing-end-tag error is reported at closedAt.
func (tb *TreeBuilder) popElement(closedAt Range, closedAtLoc Loc, reportMissing bool) {
	if len(tb.stack) == 0 {
		return
	}
	el := tb.stack[len(tb.stack)-1]
	tb.stack = tb.stack[:len(tb.stack)-1]
	el.Range.End = closedAt.End
	el.Loc.End = closedAtLoc.End
	if reportMissing && tb.noOpenTag {
		tb.reportError(ErrMissingEndTag, "missing end tag", closedAt.Start, closedAtLoc.Start)
	}
}

func (tb *TreeBuilder) closeRemaining() {
	end := len(tb.src)
	endPos := tb.tok.EndPosition()
	for len(tb.stack) > 0 {
		tb.popElement(Range{Start: end, End: end}, Loc{Start: endPos, End: endPos}, true)
	}
}

func (tb *TreeBuilder) text(rec *Record) {
	parent := tb.top()
	t := &XText{base: base{Range: rec.Range, Loc: rec.Loc}, Value: rec.Text}
	setParent(t, parent)
	tb.appendChild(parent, t)

	el, ok := parent.(*XElement)
	if !ok || !(el.Name == "import-sjs" || el.Name == "filter") {
		return
	}
	if tb.hasSrcAttr(el) || len(el.Children) != 1 {
		return
	}
	tb.processScriptModule(el, rec)
}

func (tb *TreeBuilder) hasSrcAttr(el *XElement) bool {
	for _, a := range el.StartTag.Attributes {
		if attr, ok := a.(*XAttribute); ok && attr.Key.Name == "src" {
			return true
		}
	}
	return false
}

// processScriptModule replaces an <import-sjs>/<filter> element's sole XText
// child with an XModule once the element is known to carry inline source
// (spec §4.6 processScriptModule). expr-lang parses single expressions, not
// a statement list, so the body is split on top-level ";" first (module.go)
// and each statement is parsed independently.
func (tb *TreeBuilder) processScriptModule(el *XElement, rec *Record) {
	calc := tb.rootCalc().GetSubCalculatorAfter(rec.Range.Start)
	body := parseModuleBody(rec.Text, tb.sp, calc, func(pe *ParseError) {
		tb.doc.Errors = append(tb.doc.Errors, pe)
	})

	mod := &XModule{base: base{Range: rec.Range, Loc: rec.Loc}, Body: body}
	setParent(mod, el)
	el.Children[len(el.Children)-1] = mod

	mod.References = resolveReferences(collectModuleIdentifiers(body), enclosingScopes(el))
}

func (tb *TreeBuilder) mustacheRecord(rec *Record) {
	parent := tb.top()
	m := tb.buildMustache(rec.Mustache, parent)
	tb.appendChild(parent, m)
}

// --- attributes ---

// processAttribute converts a RawAttr into an XAttribute or, for a key
// matching the directive grammar, an XDirective (spec §4.5 processAttribute).
// A directive whose value is a single non-blank literal is promoted to a
// parsed XExpression (or, for "for", a SwanForExpression) in place. Plain
// (non-directive) attribute literals are left as-is: SWAN only treats
// directive values as implicit expressions, the same way a mini-program
// template never evaluates `class="foo"` as script.
func (tb *TreeBuilder) processAttribute(raw RawAttr, tag *XStartTag, el *XElement) Node {
	prefix, rawPrefix, name, isDirective := parseDirectiveKey(raw.KeyToken.Value)
	if !isDirective {
		attr := &XAttribute{base: base{Range: raw.Range, Loc: raw.Loc}}
		setParent(attr, tag)
		attr.Key = &XIdentifier{base: base{Range: raw.KeyToken.Range, Loc: raw.KeyToken.Loc}, Name: raw.KeyToken.Value}
		setParent(attr.Key, attr)
		if raw.HasValue {
			attr.Value = tb.buildAttributeValue(raw, attr)
		}
		return attr
	}

	dir := &XDirective{base: base{Range: raw.Range, Loc: raw.Loc}}
	setParent(dir, tag)
	dir.Key = &XDirectiveKey{
		base:      base{Range: raw.KeyToken.Range, Loc: raw.KeyToken.Loc},
		Prefix:    prefix,
		RawPrefix: rawPrefix,
		Name:      name,
		RawName:   raw.KeyToken.Value,
	}
	setParent(dir.Key, dir)
	if !raw.HasValue {
		return dir
	}
	dir.Value = tb.buildAttributeValue(raw, dir)

	// Promotion only applies to a directive value that was a bare literal
	// to begin with (raw.ValuePieces[0].Literal != nil) — not to a literal
	// that buildAttributeValue/buildMustache produced by converting an
	// unterminated mustache's buffered text (that text was never meant to
	// stand alone as an expression; its own ErrMissingExpressionEndTag has
	// already been reported).
	if !tb.parseExpression || len(raw.ValuePieces) != 1 || raw.ValuePieces[0].Literal == nil {
		return dir
	}
	lit, ok := dir.Value.Pieces[0].(*XLiteral)
	if !ok || strings.TrimSpace(lit.Value) == "" {
		return dir
	}

	litCalc := tb.rootCalc().GetSubCalculatorAfter(lit.Range.Start)

	var expr *XExpression
	if name == "for" {
		expr = tb.processForExpression(lit.Value, litCalc, scopesExcludingSelf(el))
	} else {
		expr = tb.processPlainExpression(lit.Value, litCalc, enclosingScopes(el))
	}
	setParent(expr, dir.Value)
	dir.Value.Pieces[0] = expr

	if name == "for" {
		if fe, ok := expr.Expression.(*SwanForExpression); ok {
			if fe.Left != nil {
				el.Variables = append(el.Variables, &Variable{Name: fe.Left.Value, Identifier: fe.Left})
			}
			if fe.Index != nil {
				el.Variables = append(el.Variables, &Variable{Name: fe.Index.Value, Identifier: fe.Index})
			}
		}
	}
	return dir
}

// scopesExcludingSelf returns the scope chain a directive's own source
// expression resolves against: el's ancestors, but never el itself — the
// loop source of an s-for has not introduced its item/index variables yet.
func scopesExcludingSelf(el *XElement) []*XElement {
	parent, ok := el.Parent.(*XElement)
	if !ok {
		return nil
	}
	return enclosingScopes(parent)
}

func (tb *TreeBuilder) buildAttributeValue(raw RawAttr, parent Node) *XAttributeValue {
	av := &XAttributeValue{}
	setParent(av, parent)
	for _, piece := range raw.ValuePieces {
		if piece.Literal != nil {
			lit := &XLiteral{base: base{Range: piece.Literal.Range, Loc: piece.Literal.Loc}, Value: piece.Literal.Value}
			setParent(lit, av)
			av.Pieces = append(av.Pieces, lit)
			continue
		}
		av.Pieces = append(av.Pieces, tb.buildMustache(piece.Mustache, av))
	}
	if len(av.Pieces) > 0 {
		first, last := av.Pieces[0], av.Pieces[len(av.Pieces)-1]
		av.Range = Range{Start: first.NodeRange().Start, End: last.NodeRange().End}
		av.Loc = Loc{Start: first.NodeLoc().Start, End: last.NodeLoc().End}
	} else {
		av.Range = Range{Start: raw.Range.End, End: raw.Range.End}
		av.Loc = Loc{Start: raw.Loc.End, End: raw.Loc.End}
	}
	return av
}

// buildMustache turns a raw "{{ ... }}" occurrence into a tree node. An
// unterminated mustache (EOF before the closing delimiter, already reported
// as ErrMissingExpressionEndTag by the tokenizer) is converted into a
// literal piece instead of an XMustache (spec §4.3: "buffered content is
// converted into a literal Text/XLiteral piece"), since there is no closing
// delimiter to anchor an XMustache's EndToken to.
func (tb *TreeBuilder) buildMustache(raw *MustacheRaw, parent Node) Node {
	startTok, endTok := raw.StartToken, raw.EndToken

	if raw.Unterminated {
		lit := &XLiteral{
			base:  base{Range: Range{Start: startTok.Range.Start, End: endTok.Range.End}, Loc: Loc{Start: startTok.Loc.Start, End: endTok.Loc.End}},
			Value: startTok.Value + raw.Payload,
		}
		setParent(lit, parent)
		return lit
	}

	m := &XMustache{
		base:       base{Range: Range{Start: startTok.Range.Start, End: endTok.Range.End}, Loc: Loc{Start: startTok.Loc.Start, End: endTok.Loc.End}},
		StartToken: &startTok,
		EndToken:   &endTok,
	}
	setParent(m, parent)

	if !tb.parseExpression {
		m.RawPayload = raw.Payload
		return m
	}

	calc := tb.rootCalc()
	openedWithEquals := startTok.Value == "{="
	expr := processMustache(raw, openedWithEquals, calc, tb.sp, func(pe *ParseError) {
		tb.doc.Errors = append(tb.doc.Errors, pe)
	})
	setParent(expr, m)
	m.Value = expr

	if node, ok := expr.Expression.(ast.Node); ok {
		expr.References = resolveReferences(collectIdentifiers(node), tb.scopesFor(parent))
	}
	return m
}

func (tb *TreeBuilder) scopesFor(parent Node) []*XElement {
	el := nearestElement(parent)
	if el == nil {
		return nil
	}
	return enclosingScopes(el)
}

func nearestElement(n Node) *XElement {
	for n != nil {
		if el, ok := n.(*XElement); ok {
			return el
		}
		switch v := n.(type) {
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
			return nil
		}
	}
	return nil
}

func (tb *TreeBuilder) processPlainExpression(raw string, calc *LocationCalculator, scopes []*XElement) *XExpression {
	node, err := tb.sp.ParseExpression(raw)
	if err != nil {
		reportExpressionError(err, Range{Start: 0, End: len(raw)}, calc, func(pe *ParseError) {
			tb.doc.Errors = append(tb.doc.Errors, pe)
		})
		r, l := calc.FixRange(Range{Start: 0, End: len(raw)})
		return &XExpression{base: basePos(r, l)}
	}
	expr := &XExpression{base: nodeBasePos(node, calc), Expression: node}
	expr.References = resolveReferences(collectIdentifiers(node), scopes)
	return expr
}

// processForExpression parses an s-for directive's raw header into a
// SwanForExpression (spec §4.6 processForExpression): the item/index
// variables are plain names, the loop source and optional trackBy clause
// are full script expressions parsed independently via sp.
func (tb *TreeBuilder) processForExpression(raw string, calc *LocationCalculator, scopes []*XElement) *XExpression {
	onErr := func(pe *ParseError) { tb.doc.Errors = append(tb.doc.Errors, pe) }

	fields, err := parseForHeader(raw)
	if err != nil {
		reportExpressionError(errExpr(err.Error()), Range{Start: 0, End: len(raw)}, calc, onErr)
		r, l := calc.FixRange(Range{Start: 0, End: len(raw)})
		return &XExpression{base: basePos(r, l)}
	}

	fe := &SwanForExpression{}
	var ids []*ast.IdentifierNode
	if fields.Left != "" {
		fe.Left = &ast.IdentifierNode{Value: fields.Left}
	}
	if fields.Index != "" {
		fe.Index = &ast.IdentifierNode{Value: fields.Index}
	}
	if rightNode, err := tb.sp.ParseExpression(fields.Right); err != nil {
		reportExpressionError(err, Range{Start: fields.RightStart, End: fields.RightStart + len(fields.Right)}, calc, onErr)
	} else {
		fe.Right = rightNode
		ids = append(ids, collectIdentifiers(rightNode)...)
	}
	if fields.TrackBy != "" {
		if trackNode, err := tb.sp.ParseExpression(fields.TrackBy); err != nil {
			reportExpressionError(err, Range{Start: fields.TrackByStart, End: fields.TrackByStart + len(fields.TrackBy)}, calc, onErr)
		} else {
			fe.TrackBy = trackNode
			ids = append(ids, collectIdentifiers(trackNode)...)
		}
	}

	r, l := calc.FixRange(Range{Start: 0, End: len(raw)})
	expr := &XExpression{base: basePos(r, l), Expression: fe}
	expr.References = resolveReferences(ids, scopes)
	return expr
}
