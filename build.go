package gqlselect

import (
	"context"

	"github.com/vektah/gqlparser/v2/ast"
	"go.opentelemetry.io/otel/attribute"
)

// defaultExcludedFields is applied when a BuildContext carries no exclusion
// list of its own. __typename is meta information and never maps to a column.
var defaultExcludedFields = []string{"__typename"}

// BuildContext contains the necessary information used to build a selection
// tree from a query's requested fields.
type BuildContext struct {
	// SelectionSet is the requested field tree, as produced by an upstream
	// GraphQL execution layer. Required.
	SelectionSet ast.SelectionSet
	// Fragments is the fragment table attached to the query. Spreads inside
	// fragment bodies resolve against this same table.
	Fragments ast.FragmentDefinitionList
	// ExcludedFields are field names skipped at every nesting level. nil
	// means the default ["__typename"]; an empty non-nil slice disables
	// exclusion entirely.
	ExcludedFields []string
	// Registry optionally resolves spreads whose names are absent from
	// Fragments. Every successful lookup counts as a use.
	Registry *FragmentRegistry
	// TransformFieldName optionally maps requested field names to their
	// stored counterparts (e.g. SnakeCaseFields).
	TransformFieldName func(string) string
}

// Build walks the requested selection set and returns the equivalent
// select/include tree. Unresolvable fragment spreads fail with
// *FragmentNotFoundError; a nil context or selection set fails with
// *MissingInputError.
func Build(ctx context.Context, bc *BuildContext) (*Relation, error) {
	ctx, span := startSpan(ctx, "gqlselect.build")
	defer span.End()

	if bc == nil || bc.SelectionSet == nil {
		err := &MissingInputError{Reason: "selection set is required"}
		recordSpanError(span, err)
		return nil, err
	}

	excluded := excludedSet(bc.ExcludedFields)
	resolver, err := newFragmentResolver(ctx, bc.Fragments, bc.Registry, excluded, bc.TransformFieldName)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	b := &builder{
		excluded:      excluded,
		transform:     bc.TransformFieldName,
		resolveSpread: resolver.resolve,
	}
	m, err := b.buildSelectionSet(bc.SelectionSet)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("gqlselect.fragments", len(bc.Fragments)),
		attribute.Int("gqlselect.root_fields", len(m)),
	)
	return normalizeSelection(m), nil
}

func excludedSet(names []string) map[string]struct{} {
	if names == nil {
		names = defaultExcludedFields
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

type builder struct {
	excluded      map[string]struct{}
	transform     func(string) string
	resolveSpread func(name string) (SelectionMap, error)
}

// buildSelectionSet accumulates one level of requested fields. Identically
// named entries follow last-write-wins in declaration order, whether they
// come from plain fields or from fragment merges.
func (b *builder) buildSelectionSet(selectionSet ast.SelectionSet) (SelectionMap, error) {
	result := SelectionMap{}
	for _, selection := range selectionSet {
		switch selection := selection.(type) {
		case *ast.Field:
			if _, skip := b.excluded[selection.Name]; skip {
				continue
			}
			name := selection.Name
			if b.transform != nil {
				name = b.transform(name)
			}
			if len(selection.SelectionSet) == 0 {
				result[name] = true
				continue
			}
			child, err := b.buildSelectionSet(selection.SelectionSet)
			if err != nil {
				return nil, err
			}
			if len(child) == 0 {
				// a sub-selection that built down to nothing (explicitly
				// empty, or all fields excluded) behaves like a scalar leaf
				result[name] = true
				continue
			}
			result[name] = normalizeSelection(child)
		case *ast.FragmentSpread:
			fields, err := b.resolveSpread(selection.Name)
			if err != nil {
				return nil, err
			}
			for k, v := range fields {
				result[k] = v
			}
		case *ast.InlineFragment:
			// no schema is available here, so the type condition cannot be
			// checked; the fragment's fields fold into the surrounding level
			fields, err := b.buildSelectionSet(selection.SelectionSet)
			if err != nil {
				return nil, err
			}
			for k, v := range fields {
				result[k] = v
			}
		default:
			// unknown selection kinds must not abort the build
		}
	}
	return result, nil
}

// normalizeSelection classifies a built map: any literal leaf makes it a
// select, wrapper-only maps are an include, and an empty map is an empty
// include. The choice is evaluated independently at every nesting level.
func normalizeSelection(m SelectionMap) *Relation {
	if len(m) == 0 {
		return &Relation{Include: SelectionMap{}}
	}
	for _, v := range m {
		if _, ok := v.(bool); ok {
			return &Relation{Select: m}
		}
	}
	return &Relation{Include: m}
}
