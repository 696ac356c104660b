package codegen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lattice-graph/latticedb/internal/dsl"
)

func TestEmitHandlerSimpleQuery(t *testing.T) {
	q := dsl.Query{
		Name: "findPeople",
		Body: dsl.QueryBody{
			Element:   dsl.ElementV,
			Traversal: dsl.TraversalStep{Label: "Person"},
		},
		ReturnType: "name",
	}
	src, err := EmitHandler(q)
	require.NoError(t, err)
	require.Contains(t, src, "func FindPeople(req *registry.Request, resp *registry.Response) error")
	require.Contains(t, src, "typedquery.New(req.Store).V()")
	require.Contains(t, src, `registry.Register("findPeople", FindPeople)`)
}

func TestEmitHandlerChainedSteps(t *testing.T) {
	child := &dsl.TraversalStep{Kind: dsl.StepOut, Label: "Knows"}
	q := dsl.Query{
		Name: "friendsOf",
		Body: dsl.QueryBody{
			Element:   dsl.ElementV,
			Traversal: dsl.TraversalStep{Label: "Person", Child: child},
		},
		ReturnType: "name",
	}
	src, err := EmitHandler(q)
	require.NoError(t, err)
	require.Contains(t, src, `.V().Out("Knows")`)
}

func TestGenerateProjectWritesScaffold(t *testing.T) {
	dir := t.TempDir()
	src := dsl.Source{
		Queries: []dsl.Query{
			{
				Name:       "allPeople",
				Body:       dsl.QueryBody{Element: dsl.ElementV, Traversal: dsl.TraversalStep{Label: "Person"}},
				ReturnType: "name",
			},
		},
	}
	err := GenerateProject(dir, "example.com/generated", src)
	require.NoError(t, err)

	require.FileExists(t, filepath.Join(dir, "go.mod"))
	require.FileExists(t, filepath.Join(dir, "register.go"))
	require.FileExists(t, filepath.Join(dir, "handlers", "project.go"))
	require.FileExists(t, filepath.Join(dir, "handlers", "allpeople.go"))

	registerSrc, err := os.ReadFile(filepath.Join(dir, "register.go"))
	require.NoError(t, err)
	require.Contains(t, string(registerSrc), `import "example.com/generated/handlers"`)
	require.Contains(t, string(registerSrc), "var AllPeople = handlers.AllPeople")
}
