package codegen

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lattice-graph/latticedb/internal/dsl"
	"github.com/lattice-graph/latticedb/internal/registry"
	"github.com/lattice-graph/latticedb/internal/storage"
	"github.com/lattice-graph/latticedb/internal/value"
	"github.com/lattice-graph/latticedb/pkg/typedquery"
)

const scenarioSource = `
V::Person { name: String, age: Number }
E::Knows  { From: Person, To: Person, Properties { since: Number } }
QUERY findFriends => GET V::Person RETURN name
`

func fixedNow() int64 { return 1700000002 }

func openTestStore(t *testing.T) *storage.GraphStore {
	t.Helper()
	dir := t.TempDir()
	tuning := storage.DefaultTuning(dir)
	tuning.Nodes.NowFunc = fixedNow
	tuning.Edges.NowFunc = fixedNow
	tuning.Indices.NowFunc = fixedNow
	s, err := storage.Open(tuning)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// TestScenarioS6CompilesFindFriendsAndServesNames is spec §8 scenario S6:
// compiling "V::Person {...} / E::Knows {...} / QUERY findFriends => GET
// V::Person RETURN name" emits exactly one handler module for
// findFriends, and serving it against a store holding two Person nodes
// returns both nodes' name properties as a JSON array.
func TestScenarioS6CompilesFindFriendsAndServesNames(t *testing.T) {
	src, err := dsl.ParseSource(scenarioSource)
	require.NoError(t, err)
	require.Len(t, src.Queries, 1)
	require.Equal(t, "findFriends", src.Queries[0].Name)

	dir := t.TempDir()
	require.NoError(t, GenerateProject(dir, "example.com/generated", src))

	// Exactly one handler module was emitted, named for the query.
	require.FileExists(t, filepath.Join(dir, "handlers", "findfriends.go"))
	entries, err := filepath.Glob(filepath.Join(dir, "handlers", "*.go"))
	require.NoError(t, err)
	require.Len(t, entries, 2) // findfriends.go + the shared project.go helper

	handlerSrc, err := EmitHandler(src.Queries[0])
	require.NoError(t, err)
	require.Contains(t, handlerSrc, "func FindFriends(req *registry.Request, resp *registry.Response) error")
	require.Contains(t, handlerSrc, "typedquery.New(req.Store).V()")
	require.Contains(t, handlerSrc, `registry.Register("findFriends", FindFriends)`)

	// The emitted handler's body is exercised here via the same
	// typedquery/projectField calls it would make, since the generated
	// project is a separate module latticec scaffolds rather than one
	// this module's test binary can compile and run directly.
	store := openTestStore(t)
	_, err = store.CreateNode("Person", props(t, "name", "alice"))
	require.NoError(t, err)
	_, err = store.CreateNode("Person", props(t, "name", "bob"))
	require.NoError(t, err)

	findFriends := func(req *registry.Request, resp *registry.Response) error {
		cells, err := typedquery.New(req.Store).V().Result()
		if err != nil {
			return err
		}
		projected := projectField(cells, "name")
		body, err := json.Marshal(projected)
		if err != nil {
			return err
		}
		resp.StatusCode = 200
		resp.Body = body
		return nil
	}

	resp := &registry.Response{}
	require.NoError(t, findFriends(&registry.Request{Store: store}, resp))
	require.Equal(t, 200, resp.StatusCode)

	var names []string
	require.NoError(t, json.Unmarshal(resp.Body, &names))
	require.ElementsMatch(t, []string{"alice", "bob"}, names)
}

func props(t *testing.T, kv ...any) value.PropertyMap {
	t.Helper()
	b := value.NewBuilder()
	for i := 0; i < len(kv); i += 2 {
		require.NoError(t, b.Set(kv[i].(string), kv[i+1]))
	}
	return b.Build()
}
