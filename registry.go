package gqlselect

import (
	"context"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vektah/gqlparser/v2/ast"
)

// FragmentRegistry is a process-lifetime store of named fragment definitions
// shared across queries. Construct one per application (or per test) and
// pass it explicitly; all methods are safe for concurrent use.
type FragmentRegistry struct {
	mu    sync.RWMutex
	defs  map[string]*FragmentDefinition
	order []string
}

// NewFragmentRegistry returns an empty registry.
func NewFragmentRegistry() *FragmentRegistry {
	return &FragmentRegistry{defs: map[string]*FragmentDefinition{}}
}

// Register inserts or overwrites by name. Registration stamps LastUsed but
// does not count as a use. The registry takes ownership of def.
func (r *FragmentRegistry) Register(def *FragmentDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	def.Metadata.LastUsed = time.Now()
	r.defs[def.Name] = def
}

// RegisterFragmentAST normalizes a parsed fragment definition through the
// same pipeline as query-time builds and registers the result. Spreads
// inside def resolve against table, then against this registry.
func (r *FragmentRegistry) RegisterFragmentAST(ctx context.Context, def *ast.FragmentDefinition, table ast.FragmentDefinitionList) (*FragmentDefinition, error) {
	resolver, err := newFragmentResolver(ctx, table, r, excludedSet(nil), nil)
	if err != nil {
		return nil, err
	}
	b := &builder{excluded: excludedSet(nil), resolveSpread: resolver.resolve}
	selections, err := b.buildSelectionSet(def.SelectionSet)
	if err != nil {
		return nil, err
	}

	fd := NewFragmentDefinition(def.Name, def.TypeCondition, selections)
	fd.Metadata.Dependencies = fragmentDependencies(def.SelectionSet)
	r.Register(fd)
	if log.IsLevelEnabled(log.DebugLevel) {
		log.WithField("fragment", def.Name).Debugf("registered fragment %s", formatSelectionSetSingleLine(ctx, def.SelectionSet))
	}
	return fd, nil
}

// Get returns the definition for name. Every successful lookup is a use:
// the usage counter is incremented and LastUsed refreshed.
func (r *FragmentRegistry) Get(name string) (*FragmentDefinition, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	def, ok := r.defs[name]
	if !ok {
		promRegistryLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	def.Metadata.UsageCount++
	def.Metadata.LastUsed = time.Now()
	promRegistryLookups.WithLabelValues("hit").Inc()
	return def, true
}

// GetWithOverride returns the definition for name, patched by override when
// it targets the fragment and its condition activates for ctx.
func (r *FragmentRegistry) GetWithOverride(name string, override *FragmentOverride, ctx DynamicContext) (*FragmentDefinition, bool) {
	def, ok := r.Get(name)
	if !ok {
		return nil, false
	}
	if override == nil || !override.Applies(def, ctx) {
		return def, true
	}
	return override.Apply(def), true
}

// List returns all definitions in registration order, optionally filtered
// by declared type (empty matches all). Listing does not count as a use.
func (r *FragmentRegistry) List(typeFilter string) []*FragmentDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*FragmentDefinition
	for _, name := range r.order {
		def := r.defs[name]
		if typeFilter != "" && def.Type != typeFilter {
			continue
		}
		out = append(out, def)
	}
	return out
}

// Unregister removes one definition and its usage counters.
func (r *FragmentRegistry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[name]; !ok {
		return false
	}
	delete(r.defs, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes all definitions.
func (r *FragmentRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs = map[string]*FragmentDefinition{}
	r.order = nil
}

// RegistryStats aggregates usage over the current registry contents.
type RegistryStats struct {
	Count             int
	TotalSize         int
	AverageComplexity float64
	MostUsed          []string
	LeastUsed         []string
}

// UsageStats returns counts, sizes and the five most and least used
// fragment names.
func (r *FragmentRegistry) UsageStats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{Count: len(r.defs)}
	if stats.Count == 0 {
		return stats
	}

	totalComplexity := 0
	for _, def := range r.defs {
		stats.TotalSize += def.Metadata.Size
		totalComplexity += def.Metadata.Complexity
	}
	stats.AverageComplexity = float64(totalComplexity) / float64(stats.Count)

	byUsageDesc := append([]string(nil), r.order...)
	sort.SliceStable(byUsageDesc, func(i, j int) bool {
		return r.defs[byUsageDesc[i]].Metadata.UsageCount > r.defs[byUsageDesc[j]].Metadata.UsageCount
	})
	stats.MostUsed = topN(byUsageDesc, 5)

	byUsageAsc := append([]string(nil), r.order...)
	sort.SliceStable(byUsageAsc, func(i, j int) bool {
		return r.defs[byUsageAsc[i]].Metadata.UsageCount < r.defs[byUsageAsc[j]].Metadata.UsageCount
	})
	stats.LeastUsed = topN(byUsageAsc, 5)

	return stats
}

func topN(names []string, n int) []string {
	if len(names) > n {
		names = names[:n]
	}
	return append([]string(nil), names...)
}

// fragmentDependencies lists the fragment names spread anywhere inside the
// selection set, in first-seen order.
func fragmentDependencies(selectionSet ast.SelectionSet) []string {
	seen := map[string]struct{}{}
	var names []string
	var walk func(ast.SelectionSet)
	walk = func(ss ast.SelectionSet) {
		for _, selection := range ss {
			switch selection := selection.(type) {
			case *ast.Field:
				walk(selection.SelectionSet)
			case *ast.InlineFragment:
				walk(selection.SelectionSet)
			case *ast.FragmentSpread:
				if _, ok := seen[selection.Name]; !ok {
					seen[selection.Name] = struct{}{}
					names = append(names, selection.Name)
				}
			}
		}
	}
	walk(selectionSet)
	return names
}
