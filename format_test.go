package gqlselect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSelectionSetSingleLine(t *testing.T) {
	doc := parseQuery(t, `{
		id
		posts(limit: 10) {
			title
			...PostMeta
		}
		... on Admin {
			permissions
		}
		renamed: name
	}`)

	formatted := formatSelectionSetSingleLine(context.Background(), doc.Operations[0].SelectionSet)
	assert.Equal(t, "{ id posts(limit: 10) { title ...PostMeta } ... on Admin { permissions } renamed: name }", formatted)
}

func TestFormatSelectionSetVariableWithoutOperationContext(t *testing.T) {
	doc := parseQuery(t, `query($limit: Int) { posts(limit: $limit) { id } }`)
	formatted := formatSelectionSetSingleLine(context.Background(), doc.Operations[0].SelectionSet)
	assert.Equal(t, "{ posts(limit: $limit) { id } }", formatted)
}
