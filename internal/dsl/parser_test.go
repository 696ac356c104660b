package dsl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleSource = `
V::Person {
	name: String,
	age: Number
}

E::Knows {
	From: Person,
	To: Person,
	Properties {
		since: Number
	}
}

QUERY findFriends =>
	GET V::Person
	RETURN name
`

func TestParseSchemasAndSimpleQuery(t *testing.T) {
	src, err := ParseSource(sampleSource)
	require.NoError(t, err)

	require.Len(t, src.NodeSchemas, 1)
	require.Equal(t, "Person", src.NodeSchemas[0].Name)
	require.Len(t, src.NodeSchemas[0].Properties, 2)
	require.Equal(t, TypeNumber, src.NodeSchemas[0].Properties[1].DataType)

	require.Len(t, src.EdgeSchemas, 1)
	require.Equal(t, "Knows", src.EdgeSchemas[0].Name)
	require.Equal(t, "Person", src.EdgeSchemas[0].From)
	require.Equal(t, "Person", src.EdgeSchemas[0].To)
	require.Len(t, src.EdgeSchemas[0].Properties, 1)

	require.Len(t, src.Queries, 1)
	q := src.Queries[0]
	require.Equal(t, "findFriends", q.Name)
	require.Equal(t, ElementV, q.Body.Element)
	require.Equal(t, "Person", q.Body.Traversal.Label)
	require.Equal(t, "name", q.ReturnType)
	require.Nil(t, q.Body.Traversal.Child)
}

func TestParseChainedTraversalQuery(t *testing.T) {
	source := `
QUERY friendsOfFriends(id) =>
	GET result <- V::Person -> out::Knows -> out_e::Knows
	RETURN result
`
	src, err := ParseSource(source)
	require.NoError(t, err)
	require.Len(t, src.Queries, 1)
	q := src.Queries[0]
	require.Equal(t, "result", q.Body.Assignment)
	require.Equal(t, "id", q.Parameter)

	require.NotNil(t, q.Body.Traversal.Child)
	require.Equal(t, StepOut, q.Body.Traversal.Child.Kind)
	require.Equal(t, "Knows", q.Body.Traversal.Child.Label)

	require.NotNil(t, q.Body.Traversal.Child.Child)
	require.Equal(t, StepOutE, q.Body.Traversal.Child.Child.Kind)
}

func TestParseUnknownTopLevelTokenIsFatal(t *testing.T) {
	_, err := ParseSource("BOGUS::Thing {}")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "source", perr.Rule)
}

func TestParseTruncatedEdgeSchemaReportsSpan(t *testing.T) {
	_, err := ParseSource("E::Knows { From: Person")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}
