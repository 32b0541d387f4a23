package gqlselect

import (
	"sort"
	"strings"
)

// InlineFragmentDef returns the fragment's selections verbatim while its
// usage count is at or below usageThreshold. Heavily used fragments stay
// referenced instead: the result is the marker map {name: true}.
func InlineFragmentDef(def *FragmentDefinition, usageThreshold int) SelectionMap {
	if def.Metadata.UsageCount <= usageThreshold {
		return def.Selections
	}
	return SelectionMap{def.Name: true}
}

// Deduplicate rebuilds the map, dropping nested wrappers that become empty
// after their own deduplication. Booleans pass through unchanged. The input
// is never mutated.
func Deduplicate(m SelectionMap) SelectionMap {
	out := make(SelectionMap, len(m))
	for k, v := range m {
		rel, ok := v.(*Relation)
		if !ok {
			out[k] = v
			continue
		}
		inner := Deduplicate(rel.inner())
		if len(inner) == 0 {
			continue
		}
		if rel.Select != nil {
			out[k] = &Relation{Select: inner}
		} else {
			out[k] = &Relation{Include: inner}
		}
	}
	return out
}

// MergeCompatible deep-merges fragments sharing one declared type into a
// single definition named Merged<name1>_<name2>_... Dependency lists are
// unioned, complexity and usage count take the max across inputs, and
// estimated sizes are summed. A single input is returned unchanged; inputs
// of differing types fail with *IncompatibleTypeError.
func MergeCompatible(defs ...*FragmentDefinition) (*FragmentDefinition, error) {
	if len(defs) == 0 {
		return nil, &MissingInputError{Reason: "at least one fragment is required to merge"}
	}
	first := defs[0]
	for _, def := range defs[1:] {
		if def.Type != first.Type {
			return nil, &IncompatibleTypeError{Fragment: def.Name, Want: first.Type, Got: def.Type}
		}
	}
	if len(defs) == 1 {
		return first, nil
	}

	names := make([]string, len(defs))
	selections := SelectionMap{}
	var deps []string
	seen := map[string]struct{}{}
	size, complexity, usage := 0, 0, 0
	for i, def := range defs {
		names[i] = def.Name
		selections = MergeSelections(selections, def.Selections)
		for _, dep := range def.Metadata.Dependencies {
			if _, ok := seen[dep]; !ok {
				seen[dep] = struct{}{}
				deps = append(deps, dep)
			}
		}
		size += def.Metadata.Size
		if def.Metadata.Complexity > complexity {
			complexity = def.Metadata.Complexity
		}
		if def.Metadata.UsageCount > usage {
			usage = def.Metadata.UsageCount
		}
	}

	return &FragmentDefinition{
		Name:       "Merged" + strings.Join(names, "_"),
		Type:       first.Type,
		Selections: selections,
		Metadata: FragmentMetadata{
			Size:         size,
			Complexity:   complexity,
			Dependencies: deps,
			UsageCount:   usage,
		},
	}, nil
}

// MergeSelections deep-merges maps left to right into a fresh map. A literal
// true never downgrades back to a wrapper (OR semantics); when both sides
// hold wrappers at a key the inner maps merge recursively and the later
// map's select/include choice wins. Inputs are never mutated.
func MergeSelections(maps ...SelectionMap) SelectionMap {
	out := SelectionMap{}
	for _, m := range maps {
		for k, v := range m {
			existing, ok := out[k]
			if !ok {
				out[k] = v
				continue
			}
			if leaf, isBool := existing.(bool); isBool && leaf {
				continue
			}
			rel, isRel := v.(*Relation)
			exRel, exIsRel := existing.(*Relation)
			if !isRel || !exIsRel {
				out[k] = v
				continue
			}
			inner := MergeSelections(exRel.inner(), rel.inner())
			if rel.Select != nil {
				out[k] = &Relation{Select: inner}
			} else {
				out[k] = &Relation{Include: inner}
			}
		}
	}
	return out
}

// OptimizeForCaching returns a copy whose dependency list is pruned to the
// names that actually appear somewhere in the selection tree. Deterministic
// key ordering is a property of the canonical serialization, which always
// emits sorted keys.
func OptimizeForCaching(def *FragmentDefinition) *FragmentDefinition {
	selections := def.Selections.deepCopy()
	present := map[string]struct{}{}
	selections.collectFieldNames(present)

	var deps []string
	for _, dep := range def.Metadata.Dependencies {
		if _, ok := present[dep]; ok {
			deps = append(deps, dep)
		}
	}
	sort.Strings(deps)

	out := *def
	out.Selections = selections
	out.Metadata.Dependencies = deps
	return &out
}
