package dsl

import "fmt"

// Parser holds the full token slice and a cursor position, the same shape
// as the teacher's pkg/query/parser.go Parser struct (position + token
// slice, parse* methods per grammar production).
type Parser struct {
	tokens []Token
	pos    int
}

// ParseSource lexes and parses a complete DSL source file into a Source
// AST (spec §4.5/§6). Unknown productions are fatal, surfaced as
// *ParseError.
func ParseSource(input string) (Source, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return Source{}, err
	}
	p := &Parser{tokens: tokens}
	return p.parseSource()
}

func tokenize(input string) ([]Token, error) {
	lex := NewLexer(input)
	var out []Token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Kind == TokEOF {
			return out, nil
		}
	}
}

func (p *Parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *Parser) next() Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(kind TokenKind, rule string) (Token, error) {
	t := p.peek()
	if t.Kind != kind {
		return Token{}, &ParseError{Rule: rule, Offset: t.Offset, Line: t.Line, Col: t.Col,
			Msg: fmt.Sprintf("unexpected token %q", t.Text)}
	}
	return p.next(), nil
}

func (p *Parser) parseSource() (Source, error) {
	var src Source
	for p.peek().Kind != TokEOF {
		switch p.peek().Kind {
		case TokKeywordV:
			ns, err := p.parseNodeSchema()
			if err != nil {
				return Source{}, err
			}
			src.NodeSchemas = append(src.NodeSchemas, ns)
		case TokKeywordE:
			es, err := p.parseEdgeSchema()
			if err != nil {
				return Source{}, err
			}
			src.EdgeSchemas = append(src.EdgeSchemas, es)
		case TokKeywordQuery:
			q, err := p.parseQuery()
			if err != nil {
				return Source{}, err
			}
			src.Queries = append(src.Queries, q)
		default:
			t := p.peek()
			return Source{}, &ParseError{Rule: "source", Offset: t.Offset, Line: t.Line, Col: t.Col,
				Msg: fmt.Sprintf("unexpected top-level token %q", t.Text)}
		}
	}
	return src, nil
}

// parseNodeSchema parses `V::Name { field: Type, ... }`.
func (p *Parser) parseNodeSchema() (NodeSchema, error) {
	if _, err := p.expect(TokKeywordV, "node_schema"); err != nil {
		return NodeSchema{}, err
	}
	if _, err := p.expect(TokColonColon, "node_schema"); err != nil {
		return NodeSchema{}, err
	}
	name, err := p.expect(TokIdent, "node_schema")
	if err != nil {
		return NodeSchema{}, err
	}
	fields, err := p.parseFieldBlock("node_schema")
	if err != nil {
		return NodeSchema{}, err
	}
	return NodeSchema{Name: name.Text, Properties: fields}, nil
}

// parseEdgeSchema parses `E::Name { From: X, To: Y, Properties { ... } }`.
func (p *Parser) parseEdgeSchema() (EdgeSchema, error) {
	if _, err := p.expect(TokKeywordE, "edge_schema"); err != nil {
		return EdgeSchema{}, err
	}
	if _, err := p.expect(TokColonColon, "edge_schema"); err != nil {
		return EdgeSchema{}, err
	}
	name, err := p.expect(TokIdent, "edge_schema")
	if err != nil {
		return EdgeSchema{}, err
	}
	if _, err := p.expect(TokLBrace, "edge_schema"); err != nil {
		return EdgeSchema{}, err
	}

	var from, to string
	var props []Field
	for p.peek().Kind != TokRBrace {
		var ident Token
		var err error
		if p.peek().Kind == TokKeywordProperties {
			ident = p.next()
		} else if ident, err = p.expect(TokIdent, "edge_property"); err != nil {
			return EdgeSchema{}, err
		}
		switch ident.Text {
		case "From":
			if _, err := p.expect(TokColon, "edge_property"); err != nil {
				return EdgeSchema{}, err
			}
			v, err := p.expect(TokIdent, "edge_property")
			if err != nil {
				return EdgeSchema{}, err
			}
			from = v.Text
		case "To":
			if _, err := p.expect(TokColon, "edge_property"); err != nil {
				return EdgeSchema{}, err
			}
			v, err := p.expect(TokIdent, "edge_property")
			if err != nil {
				return EdgeSchema{}, err
			}
			to = v.Text
		case "Properties":
			props, err = p.parseFieldBlock("edge_property")
			if err != nil {
				return EdgeSchema{}, err
			}
		default:
			return EdgeSchema{}, &ParseError{Rule: "edge_property", Offset: ident.Offset,
				Line: ident.Line, Col: ident.Col, Msg: fmt.Sprintf("unknown edge clause %q", ident.Text)}
		}
		if p.peek().Kind == TokComma {
			p.next()
		}
	}
	if _, err := p.expect(TokRBrace, "edge_schema"); err != nil {
		return EdgeSchema{}, err
	}
	return EdgeSchema{Name: name.Text, From: from, To: to, Properties: props}, nil
}

// parseFieldBlock parses `{ name: Type, ... }`.
func (p *Parser) parseFieldBlock(rule string) ([]Field, error) {
	if _, err := p.expect(TokLBrace, rule); err != nil {
		return nil, err
	}
	var fields []Field
	for p.peek().Kind != TokRBrace {
		name, err := p.expect(TokIdent, "schema_property")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokColon, "schema_property"); err != nil {
			return nil, err
		}
		typeTok, err := p.expect(TokIdent, "type_def")
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: name.Text, DataType: parseDataType(typeTok.Text)})
		if p.peek().Kind == TokComma {
			p.next()
		}
	}
	if _, err := p.expect(TokRBrace, rule); err != nil {
		return nil, err
	}
	return fields, nil
}

func parseDataType(s string) DataType {
	switch s {
	case "Number":
		return TypeNumber
	case "Boolean":
		return TypeBoolean
	default:
		return TypeString
	}
}

// parseQuery parses `QUERY name(param: Type) => GET [assign <-] V|E::Label
// [-> step::Label]* RETURN field`.
func (p *Parser) parseQuery() (Query, error) {
	if _, err := p.expect(TokKeywordQuery, "query"); err != nil {
		return Query{}, err
	}
	name, err := p.expect(TokIdent, "query")
	if err != nil {
		return Query{}, err
	}

	var parameter string
	if p.peek().Kind == TokLParen {
		p.next()
		if p.peek().Kind != TokRParen {
			paramName, err := p.expect(TokIdent, "parameter")
			if err != nil {
				return Query{}, err
			}
			parameter = paramName.Text
			if p.peek().Kind == TokColon {
				p.next()
				if _, err := p.expect(TokIdent, "parameter"); err != nil {
					return Query{}, err
				}
			}
		}
		if _, err := p.expect(TokRParen, "query"); err != nil {
			return Query{}, err
		}
	}

	if _, err := p.expect(TokFatArrow, "query"); err != nil {
		return Query{}, err
	}
	if _, err := p.expect(TokKeywordGet, "query_body"); err != nil {
		return Query{}, err
	}

	var assignment string
	if p.peek().Kind == TokIdent {
		assignTok := p.next()
		if _, err := p.expect(TokAssign, "traversal_assignment"); err != nil {
			return Query{}, err
		}
		assignment = assignTok.Text
	}

	element, root, err := p.parseSourceTraversal()
	if err != nil {
		return Query{}, err
	}
	for p.peek().Kind == TokArrow {
		p.next()
		kindTok, err := p.expect(TokIdent, "child_expression")
		if err != nil {
			return Query{}, err
		}
		if _, err := p.expect(TokColonColon, "child_expression"); err != nil {
			return Query{}, err
		}
		labelTok, err := p.expect(TokIdent, "child_expression")
		if err != nil {
			return Query{}, err
		}
		kind, err := parseStepKind(kindTok)
		if err != nil {
			return Query{}, err
		}
		appendChild(&root, TraversalStep{Kind: kind, Label: labelTok.Text})
	}

	if _, err := p.expect(TokKeywordReturn, "return_clause"); err != nil {
		return Query{}, err
	}
	retTok, err := p.expect(TokIdent, "return_clause")
	if err != nil {
		return Query{}, err
	}

	return Query{
		Name:      name.Text,
		Parameter: parameter,
		Body: QueryBody{
			Assignment: assignment,
			Element:    element,
			Traversal:  root,
		},
		ReturnType: retTok.Text,
	}, nil
}

// parseSourceTraversal parses `V::Label` or `E::Label`, the query's first
// (source) step.
func (p *Parser) parseSourceTraversal() (ElementType, TraversalStep, error) {
	var element ElementType
	switch p.peek().Kind {
	case TokKeywordV:
		element = ElementV
		p.next()
	case TokKeywordE:
		element = ElementE
		p.next()
	default:
		t := p.peek()
		return 0, TraversalStep{}, &ParseError{Rule: "source_traversal", Offset: t.Offset,
			Line: t.Line, Col: t.Col, Msg: fmt.Sprintf("expected V or E, got %q", t.Text)}
	}
	if _, err := p.expect(TokColonColon, "source_traversal"); err != nil {
		return 0, TraversalStep{}, err
	}
	label, err := p.expect(TokIdent, "source_traversal")
	if err != nil {
		return 0, TraversalStep{}, err
	}
	return element, TraversalStep{Label: label.Text}, nil
}

func parseStepKind(tok Token) (StepKind, error) {
	switch tok.Text {
	case "out":
		return StepOut, nil
	case "in":
		return StepIn, nil
	case "out_e":
		return StepOutE, nil
	case "in_e":
		return StepInE, nil
	default:
		return 0, &ParseError{Rule: "child_expression", Offset: tok.Offset, Line: tok.Line,
			Col: tok.Col, Msg: fmt.Sprintf("unknown step operator %q", tok.Text)}
	}
}

// appendChild walks to the end of root's child chain and appends step,
// preserving the linear chain order the traversal builder expects.
func appendChild(root *TraversalStep, step TraversalStep) {
	cur := root
	for cur.Child != nil {
		cur = cur.Child
	}
	s := step
	cur.Child = &s
}
