// Package dsl implements the lexer and recursive-descent parser for the
// query-definition language described in spec §4.5/§6, grounded on the
// teacher's pkg/query/lexer.go and pkg/query/parser.go token-stream +
// Parser-struct shape (itself grounded on the original Rust PEG grammar in
// original_source/helixc/src/parser/helix_parser.rs).
package dsl

// DataType names a schema field's declared type (spec §6: "Number,
// String, Boolean").
type DataType int

const (
	TypeString DataType = iota
	TypeNumber
	TypeBoolean
)

func (d DataType) String() string {
	switch d {
	case TypeNumber:
		return "Number"
	case TypeBoolean:
		return "Boolean"
	default:
		return "String"
	}
}

// Field is one typed property declaration inside a schema or query
// parameter list.
type Field struct {
	Name     string
	DataType DataType
}

// NodeSchema declares a vertex label and its typed properties.
type NodeSchema struct {
	Name       string
	Properties []Field
}

// EdgeSchema declares an edge label, its endpoint node-schema names, and
// its typed properties.
type EdgeSchema struct {
	Name       string
	From       string
	To         string
	Properties []Field
}

// ElementType is the traversal source kind a query's GET clause starts
// from.
type ElementType int

const (
	ElementV ElementType = iota
	ElementE
)

// StepKind enumerates the four chained step operators (out, in, out_e,
// in_e); the query's V/E source step is carried by ElementType instead.
type StepKind int

const (
	StepOut StepKind = iota
	StepIn
	StepOutE
	StepInE
)

func (k StepKind) String() string {
	switch k {
	case StepOut:
		return "out"
	case StepIn:
		return "in"
	case StepOutE:
		return "out_e"
	case StepInE:
		return "in_e"
	default:
		return "?"
	}
}

// TraversalStep is one node in the traversal chain: the root step names
// the starting label (e.g. "Person" in "V::Person"), and each child names
// a chained step's operator and edge label (e.g. "out::Knows").
type TraversalStep struct {
	Kind  StepKind // meaningless on the root step
	Label string
	Child *TraversalStep
}

// QueryBody is the GET clause: an optional `assign <-` binding, the
// element type the traversal starts from, and the step chain.
type QueryBody struct {
	Assignment string // "" if absent
	Element    ElementType
	Traversal  TraversalStep
}

// Query is one `QUERY name(param) => ... RETURN field` declaration.
type Query struct {
	Name       string
	Parameter  string
	Body       QueryBody
	ReturnType string
}

// Source is the parsed contents of one DSL file: the AST the compiler (C5)
// consumes to emit handler source.
type Source struct {
	NodeSchemas []NodeSchema
	EdgeSchemas []EdgeSchema
	Queries     []Query
}
