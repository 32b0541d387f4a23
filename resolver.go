package gqlselect

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/vektah/gqlparser/v2/ast"
)

// fragmentResolver eagerly transforms every fragment in the query's table
// into a normalized SelectionMap, once per query. Spreads inside fragment
// bodies resolve against the table itself, so fragment-referencing-fragment
// chains never need the primary tree builder.
type fragmentResolver struct {
	table    map[string]*ast.FragmentDefinition
	resolved map[string]SelectionMap
	registry *FragmentRegistry
}

func newFragmentResolver(ctx context.Context, table ast.FragmentDefinitionList, registry *FragmentRegistry, excluded map[string]struct{}, transform func(string) string) (*fragmentResolver, error) {
	r := &fragmentResolver{
		table:    make(map[string]*ast.FragmentDefinition, len(table)),
		resolved: make(map[string]SelectionMap, len(table)),
		registry: registry,
	}
	for _, def := range table {
		r.table[def.Name] = def
	}

	// names currently being expanded on this stack; revisiting one of them
	// is a cycle and contributes no additional fields at that point
	visiting := map[string]struct{}{}
	b := &builder{excluded: excluded, transform: transform}
	b.resolveSpread = func(name string) (SelectionMap, error) {
		return r.expand(name, visiting, b)
	}

	for _, def := range table {
		fields, err := r.expand(def.Name, visiting, b)
		if err != nil {
			return nil, err
		}
		if log.IsLevelEnabled(log.DebugLevel) {
			log.WithFields(log.Fields{
				"fragment": def.Name,
				"type":     def.TypeCondition,
				"fields":   len(fields),
			}).Debugf("resolved fragment %s", formatSelectionSetSingleLine(ctx, def.SelectionSet))
		}
	}
	return r, nil
}

func (r *fragmentResolver) expand(name string, visiting map[string]struct{}, b *builder) (SelectionMap, error) {
	if m, ok := r.resolved[name]; ok {
		return m, nil
	}
	if _, active := visiting[name]; active {
		return SelectionMap{}, nil
	}
	def, ok := r.table[name]
	if !ok {
		return r.lookupRegistry(name)
	}

	visiting[name] = struct{}{}
	m, err := b.buildSelectionSet(def.SelectionSet)
	delete(visiting, name)
	if err != nil {
		return nil, err
	}
	r.resolved[name] = m
	return m, nil
}

// resolve is a pure map read once the eager phase is done, falling back to
// pre-registered fragments for names outside the query's table.
func (r *fragmentResolver) resolve(name string) (SelectionMap, error) {
	if m, ok := r.resolved[name]; ok {
		return m, nil
	}
	return r.lookupRegistry(name)
}

func (r *fragmentResolver) lookupRegistry(name string) (SelectionMap, error) {
	if r.registry != nil {
		if def, ok := r.registry.Get(name); ok {
			// the registry keeps the canonical copy; hand out a fresh tree
			return def.Selections.deepCopy(), nil
		}
	}
	return nil, &FragmentNotFoundError{Name: name}
}
