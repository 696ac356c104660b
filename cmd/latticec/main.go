// Command latticec is the DSL compiler CLI (spec §4.5): it reads one
// source file, parses schemas and queries, and scaffolds a standalone Go
// project whose handlers drive pkg/typedquery against the compiled
// queries. Grounded on the teacher's cmd/graphdb-compile driver.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lattice-graph/latticedb/internal/codegen"
	"github.com/lattice-graph/latticedb/internal/dsl"
)

func main() {
	srcPath := flag.String("src", "", "path to the .gql source file")
	outDir := flag.String("out", "./generated", "output directory for the scaffolded project")
	modulePath := flag.String("module", "example.com/generated", "Go module path for the generated project")
	flag.Parse()

	if *srcPath == "" {
		fmt.Fprintln(os.Stderr, "latticec: -src is required")
		os.Exit(2)
	}

	if err := run(*srcPath, *outDir, *modulePath); err != nil {
		fmt.Fprintln(os.Stderr, "latticec:", err)
		os.Exit(1)
	}
}

func run(srcPath, outDir, modulePath string) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", srcPath, err)
	}

	source, err := dsl.ParseSource(string(data))
	if err != nil {
		if perr, ok := err.(*dsl.ParseError); ok {
			return fmt.Errorf("%s:%d:%d: %s", srcPath, perr.Line, perr.Col, perr.Msg)
		}
		return err
	}

	if err := codegen.GenerateProject(outDir, modulePath, source); err != nil {
		return fmt.Errorf("generate project: %w", err)
	}

	fmt.Printf("latticec: wrote %d quer%s to %s\n", len(source.Queries), plural(len(source.Queries)), outDir)
	return nil
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
