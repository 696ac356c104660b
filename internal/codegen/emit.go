// Package codegen implements the DSL compiler's emit step (spec §4.5/C5):
// for each parsed dsl.Query, it emits Go source for a handler function
// that drives pkg/typedquery's phantom-state builder, plus the generated
// project scaffold (go.mod, handlers/<query>.go, register.go) that links
// every emitted handler into the registry.
package codegen

import (
	"fmt"
	"strings"

	"github.com/lattice-graph/latticedb/internal/dsl"
)

// EmitHandler renders the Go source of one handler function (and its
// package-level registry.Register call) for query q.
func EmitHandler(q dsl.Query) (string, error) {
	var b strings.Builder
	fnName := exportedName(q.Name)

	fmt.Fprintf(&b, "// %s is generated from query %q. Do not edit by hand.\n", fnName, q.Name)
	fmt.Fprintf(&b, "func %s(req *registry.Request, resp *registry.Response) error {\n", fnName)

	chain, finalState, err := emitTraversalChain(q.Body)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "\tq := %s\n", chain)
	b.WriteString("\tcells, err := q.Result()\n")
	b.WriteString("\tif err != nil {\n\t\treturn err\n\t}\n")
	b.WriteString("\tprojected := projectField(cells, " + quote(q.ReturnType) + ")\n")
	b.WriteString("\tbody, err := json.Marshal(projected)\n")
	b.WriteString("\tif err != nil {\n\t\treturn err\n\t}\n")
	b.WriteString("\tresp.StatusCode = 200\n")
	b.WriteString("\tresp.Body = body\n")
	b.WriteString("\treturn nil\n")
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "func init() {\n\tregistry.Register(%s, %s)\n}\n", quote(q.Name), fnName)

	_ = finalState // the final state is not used by the emitted source
	return b.String(), nil
}

// traversalState tracks, at emit time, which typedquery phantom type the
// chain currently sits in. EmitHandler discards the final state and does
// not report it; the generated Go code's own type system is what actually
// enforces the legal transitions at compile time.
type traversalState int

const (
	stateVertex traversalState = iota
	stateEdge
)

func emitTraversalChain(body dsl.QueryBody) (string, traversalState, error) {
	var b strings.Builder
	b.WriteString("typedquery.New(req.Store)")

	state := stateVertex
	switch body.Element {
	case dsl.ElementV:
		b.WriteString(".V()")
		state = stateVertex
	case dsl.ElementE:
		b.WriteString(".E()")
		state = stateEdge
	}

	for step := body.Traversal.Child; step != nil; step = step.Child {
		switch step.Kind {
		case dsl.StepOut:
			fmt.Fprintf(&b, ".Out(%s)", quote(step.Label))
			state = stateVertex
		case dsl.StepIn:
			fmt.Fprintf(&b, ".In(%s)", quote(step.Label))
			state = stateVertex
		case dsl.StepOutE:
			fmt.Fprintf(&b, ".OutE(%s)", quote(step.Label))
			state = stateEdge
		case dsl.StepInE:
			fmt.Fprintf(&b, ".InE(%s)", quote(step.Label))
			state = stateEdge
		default:
			return "", 0, fmt.Errorf("codegen: unknown step kind %v", step.Kind)
		}
	}
	return b.String(), state, nil
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}

// exportedName turns a DSL query name (camelCase, e.g. "findFriends") into
// an exported Go identifier ("FindFriends").
func exportedName(name string) string {
	if name == "" {
		return "Query"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
