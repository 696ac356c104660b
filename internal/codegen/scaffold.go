package codegen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lattice-graph/latticedb/internal/dsl"
)

// GenerateProject scaffolds a target Go project at dir implementing every
// query in src (spec §4.5 "Project generation"): its own go.mod, one
// handlers/<query>.go file per query, a shared handlers/project.go
// carrying the field-projection helper, and a generated register.go that
// imports the handlers package for its init-time registry.Register side
// effects (the concrete strategy (c) named in spec §9's registry
// guidance) and re-exports each handler as a root-level binding, spec
// §4.5 requirement (c)'s "re-exports the queries from its root".
//
// The scaffold imports github.com/lattice-graph/latticedb/pkg/typedquery
// and .../internal/registry — not .../internal/storage or
// .../internal/traversal directly — since Go's internal-package
// visibility rule would make those unreachable from a separate module
// (see DESIGN.md).
func GenerateProject(dir, modulePath string, src dsl.Source) error {
	if err := os.MkdirAll(filepath.Join(dir, "handlers"), 0o755); err != nil {
		return fmt.Errorf("codegen: mkdir: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(goModSource(modulePath)), 0o644); err != nil {
		return fmt.Errorf("codegen: write go.mod: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "handlers", "project.go"), []byte(projectHelperSource()), 0o644); err != nil {
		return fmt.Errorf("codegen: write project.go: %w", err)
	}

	names := make([]string, 0, len(src.Queries))
	for _, q := range src.Queries {
		handlerBody, err := EmitHandler(q)
		if err != nil {
			return fmt.Errorf("codegen: emit handler %s: %w", q.Name, err)
		}
		fileSource := handlerFileSource(handlerBody)
		path := filepath.Join(dir, "handlers", queryFileName(q.Name))
		if err := os.WriteFile(path, []byte(fileSource), 0o644); err != nil {
			return fmt.Errorf("codegen: write handler %s: %w", q.Name, err)
		}
		names = append(names, q.Name)
	}

	registerSource := rootRegisterSource(modulePath, names)
	if err := os.WriteFile(filepath.Join(dir, "register.go"), []byte(registerSource), 0o644); err != nil {
		return fmt.Errorf("codegen: write register.go: %w", err)
	}
	return nil
}

func queryFileName(name string) string {
	return strings.ToLower(name) + ".go"
}

func goModSource(modulePath string) string {
	return fmt.Sprintf(`module %s

go 1.25.3

require github.com/lattice-graph/latticedb v0.0.0

replace github.com/lattice-graph/latticedb => ../
`, modulePath)
}

func handlerFileSource(body string) string {
	var b strings.Builder
	b.WriteString("// Code generated by latticec. DO NOT EDIT.\n\n")
	b.WriteString("package handlers\n\n")
	b.WriteString("import (\n")
	b.WriteString("\t\"encoding/json\"\n\n")
	b.WriteString("\t\"github.com/lattice-graph/latticedb/internal/registry\"\n")
	b.WriteString("\t\"github.com/lattice-graph/latticedb/pkg/typedquery\"\n")
	b.WriteString(")\n\n")
	b.WriteString(body)
	return b.String()
}

func projectHelperSource() string {
	return `// Code generated by latticec. DO NOT EDIT.

package handlers

import "github.com/lattice-graph/latticedb/pkg/typedquery"

// projectField extracts the named field from each cell's JSON
// projection, the generated program's RETURN clause. A cell projects to
// either a single element map (one node or edge) or a list of element
// maps (a node-list or edge-list cell, e.g. V()'s frontier); list cells
// are flattened so the result holds one projected value per element
// rather than the list itself. Elements that aren't maps, or that lack
// field, are returned unprojected.
func projectField(cells []typedquery.Cell, field string) any {
	out := make([]any, 0, len(cells))
	for _, c := range cells {
		switch j := c.JSON().(type) {
		case []any:
			for _, el := range j {
				out = append(out, projectElement(el, field))
			}
		default:
			out = append(out, projectElement(j, field))
		}
	}
	return out
}

func projectElement(j any, field string) any {
	m, ok := j.(map[string]any)
	if !ok {
		return j
	}
	if v, ok := m["properties"].(map[string]any); ok {
		if fv, ok := v[field]; ok {
			return fv
		}
	}
	if fv, ok := m[field]; ok {
		return fv
	}
	return j
}
`
}

func rootRegisterSource(modulePath string, queryNames []string) string {
	var b strings.Builder
	b.WriteString("// Code generated by latticec. DO NOT EDIT.\n\n")
	b.WriteString("package main\n\n")
	fmt.Fprintf(&b, "import \"%s/handlers\"\n\n", modulePath)
	b.WriteString("// Each handler registers itself with registry.Register as a side effect\n")
	b.WriteString("// of the import above (init-time registration, spec §4.6's strategy (a)).\n")
	b.WriteString("// The bindings below re-export the queries from this project's root, spec\n")
	b.WriteString("// §4.5's project-generation requirement (c).\n")
	for _, n := range queryNames {
		name := exportedName(n)
		fmt.Fprintf(&b, "var %s = handlers.%s\n", name, name)
	}
	return b.String()
}
