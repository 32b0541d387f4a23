package gqlselect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFragmentDefinition(t *testing.T) {
	def := NewFragmentDefinition("F", "User", SelectionMap{
		"id":    true,
		"posts": &Relation{Select: SelectionMap{"title": true}},
	})
	assert.Equal(t, def.Selections.estimatedSize(), def.Metadata.Size)
	// 2 fields + wrapper + 1 nested field
	assert.Equal(t, 4, def.Metadata.Complexity)

	empty := NewFragmentDefinition("E", "User", nil)
	require.NotNil(t, empty.Selections)
	assert.Equal(t, 0, empty.Metadata.Complexity)
}

func TestOverrideApply(t *testing.T) {
	def := NewFragmentDefinition("UserFields", "User", SelectionMap{
		"id":       true,
		"secret":   true,
		"fullName": true,
		"posts": &Relation{Select: SelectionMap{
			"title": true,
			"draft": true,
		}},
	})
	def.Metadata.UsageCount = 5

	override := &FragmentOverride{
		Fragment:      "UserFields",
		ExcludeFields: []string{"secret"},
		IncludeFields: []string{"email"},
		RenameFields:  map[string]string{"fullName": "name"},
		AddSelections: SelectionMap{"avatar": &Relation{Select: SelectionMap{"url": true}}},
		RemovePaths:   []string{"posts.draft"},
	}

	patched := override.Apply(def)
	assertJSONEqual(t, `
	{
		"id": true,
		"email": true,
		"name": true,
		"posts": { "select": { "title": true } },
		"avatar": { "select": { "url": true } }
	}`, patched.Selections)

	// size and complexity recomputed, usage carried over
	assert.Equal(t, patched.Selections.estimatedSize(), patched.Metadata.Size)
	assert.Equal(t, 5, patched.Metadata.UsageCount)

	// the input definition is never mutated
	assert.Contains(t, def.Selections, "secret")
	assert.Contains(t, def.Selections["posts"].(*Relation).Select, "draft")
	assert.NotContains(t, def.Selections, "email")
}

func TestOverrideApplyFunctionalRename(t *testing.T) {
	def := NewFragmentDefinition("F", "User", SelectionMap{"createdAt": true, "blogPosts": true})

	patched := (&FragmentOverride{RenameField: SnakeCaseFields}).Apply(def)
	assert.Equal(t, SelectionMap{"created_at": true, "blog_posts": true}, patched.Selections)
}

func TestOverrideApplies(t *testing.T) {
	def := NewFragmentDefinition("F", "User", SelectionMap{"id": true})

	assert.True(t, (&FragmentOverride{}).Applies(def, nil))
	assert.True(t, (&FragmentOverride{Fragment: "F"}).Applies(def, nil))
	assert.False(t, (&FragmentOverride{Fragment: "Other"}).Applies(def, nil))

	conditional := &FragmentOverride{Condition: func(ctx DynamicContext) bool { return ctx["on"] == true }}
	assert.True(t, conditional.Applies(def, DynamicContext{"on": true}))
	assert.False(t, conditional.Applies(def, DynamicContext{}))

	// a panicking condition deactivates the override
	panicky := &FragmentOverride{Condition: func(DynamicContext) bool { panic("boom") }}
	assert.False(t, panicky.Applies(def, nil))
}

func TestOverrideRemoveMissingPathIsNoop(t *testing.T) {
	def := NewFragmentDefinition("F", "User", SelectionMap{"id": true})
	patched := (&FragmentOverride{RemovePaths: []string{"posts.title", "id.deeper"}}).Apply(def)
	assert.Equal(t, SelectionMap{"id": true}, patched.Selections)
}
