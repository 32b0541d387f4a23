package gqlselect

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// BuildTestFixture parses a raw query (fragments included) and checks the
// built select/include tree against an expected JSON shape.
type BuildTestFixture struct {
	Query    string
	Excluded []string
	Registry *FragmentRegistry
}

func (f BuildTestFixture) Check(t *testing.T, expectedJSON string) {
	t.Helper()
	rel, err := f.Build(t)
	require.NoError(t, err)
	assertJSONEqual(t, expectedJSON, rel)
}

func (f BuildTestFixture) Build(t *testing.T) (*Relation, error) {
	t.Helper()
	doc := parseQuery(t, f.Query)
	return Build(context.Background(), &BuildContext{
		SelectionSet:   doc.Operations[0].SelectionSet,
		Fragments:      doc.Fragments,
		ExcludedFields: f.Excluded,
		Registry:       f.Registry,
	})
}

// parseQuery parses without schema validation so fragment spreads stay
// unlinked and the engine's own resolution is what gets exercised.
func parseQuery(t *testing.T, query string) *ast.QueryDocument {
	t.Helper()
	doc, err := parser.ParseQuery(&ast.Source{Name: "fixture", Input: query})
	require.NoError(t, err)
	return doc
}

func parseFragment(t *testing.T, fragment string) *ast.FragmentDefinition {
	t.Helper()
	doc, err := parser.ParseQuery(&ast.Source{Name: "fixture", Input: fragment})
	require.NoError(t, err)
	require.NotEmpty(t, doc.Fragments)
	return doc.Fragments[0]
}

func assertJSONEqual(t *testing.T, expected string, actual interface{}) {
	t.Helper()
	actualJSON, err := json.Marshal(actual)
	require.NoError(t, err)
	require.JSONEq(t, expected, string(actualJSON))
}
