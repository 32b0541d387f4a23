package gqlselect

import (
	"time"
)

// FragmentDefinition is a named, reusable selection set plus bookkeeping
// metadata. The registry owns the canonical copy of registered definitions;
// usage metadata mutates only through the registry's own accessors.
type FragmentDefinition struct {
	Name       string
	Type       string
	Selections SelectionMap
	Metadata   FragmentMetadata
}

// FragmentMetadata carries derived and usage information for a fragment.
type FragmentMetadata struct {
	Size         int
	Complexity   int
	Dependencies []string
	UsageCount   int
	LastUsed     time.Time
}

// NewFragmentDefinition builds a definition with size and complexity
// computed from the selections.
func NewFragmentDefinition(name, typeName string, selections SelectionMap) *FragmentDefinition {
	if selections == nil {
		selections = SelectionMap{}
	}
	return &FragmentDefinition{
		Name:       name,
		Type:       typeName,
		Selections: selections,
		Metadata: FragmentMetadata{
			Size:       selections.estimatedSize(),
			Complexity: selections.complexityScore(),
		},
	}
}

// FragmentOverride is a declarative patch over a fragment definition. It is
// pure data: Apply produces a new definition and never mutates its input.
type FragmentOverride struct {
	// Fragment is the target fragment name; empty matches any fragment.
	Fragment string
	// ExcludeFields are removed from the fragment's top level.
	ExcludeFields []string
	// IncludeFields are added as scalar leaves.
	IncludeFields []string
	// RenameFields maps old top-level names to new ones.
	RenameFields map[string]string
	// RenameField is a functional rename, applied after RenameFields.
	RenameField func(string) string
	// AddSelections is deep-merged into the fragment's selections.
	AddSelections SelectionMap
	// RemovePaths are dotted paths pruned from the result.
	RemovePaths []string
	// Condition gates the override; nil means always active.
	Condition func(DynamicContext) bool
}

// Applies reports whether the override targets def and its condition (if
// any) activates for ctx. A panicking condition deactivates the override.
func (o *FragmentOverride) Applies(def *FragmentDefinition, ctx DynamicContext) bool {
	if o.Fragment != "" && o.Fragment != def.Name {
		return false
	}
	return safeCondition(o.Condition, ctx, "override:"+o.Fragment)
}

// Apply produces a patched copy of def. Size and complexity are recomputed
// from the patched selections; usage metadata carries over.
func (o *FragmentOverride) Apply(def *FragmentDefinition) *FragmentDefinition {
	selections := def.Selections.deepCopy()
	for _, name := range o.ExcludeFields {
		delete(selections, name)
	}
	for _, name := range o.IncludeFields {
		selections[name] = true
	}
	if len(o.RenameFields) > 0 || o.RenameField != nil {
		renamed := make(SelectionMap, len(selections))
		for k, v := range selections {
			name := k
			if to, ok := o.RenameFields[k]; ok {
				name = to
			}
			if o.RenameField != nil {
				name = o.RenameField(name)
			}
			renamed[name] = v
		}
		selections = renamed
	}
	if len(o.AddSelections) > 0 {
		selections = MergeSelections(selections, o.AddSelections)
	}
	for _, path := range o.RemovePaths {
		removePath(selections, splitPath(path))
	}

	out := NewFragmentDefinition(def.Name, def.Type, selections)
	out.Metadata.Dependencies = append([]string(nil), def.Metadata.Dependencies...)
	out.Metadata.UsageCount = def.Metadata.UsageCount
	out.Metadata.LastUsed = def.Metadata.LastUsed
	return out
}

// removePath deletes the entry named by segments, descending through
// relation wrappers. Missing segments are a no-op: overrides patch whatever
// is there, they do not validate paths.
func removePath(m SelectionMap, segments []string) {
	if len(segments) == 0 {
		return
	}
	head, rest := segments[0], segments[1:]
	if len(rest) == 0 {
		delete(m, head)
		return
	}
	if rel, ok := m[head].(*Relation); ok {
		removePath(rel.inner(), rest)
	}
}
