package gqlselect

import (
	"fmt"
)

// Analysis is the report produced by Analyze over a fragment corpus.
type Analysis struct {
	Fragments     []*FragmentDefinition
	Unused        []string
	Duplicates    []DuplicateGroup
	Opportunities []Optimization
}

// DuplicateGroup is a cluster of fragments whose selections are similar
// enough to be merge candidates.
type DuplicateGroup struct {
	Names      []string
	MergedSize int
	Savings    int
}

// Optimization is a qualitative suggestion over the analyzed corpus.
type Optimization struct {
	Kind        string // "inline", "merge" or "cache"
	Description string
	Impact      string
	Effort      string
	Fragments   []string
}

const duplicateSimilarityThreshold = 0.5

// Analyze reports unused fragments, near-duplicate groups and optimization
// opportunities over the given corpus.
func Analyze(defs []*FragmentDefinition) *Analysis {
	analysis := &Analysis{Fragments: defs}
	for _, def := range defs {
		if def.Metadata.UsageCount == 0 {
			analysis.Unused = append(analysis.Unused, def.Name)
		}
	}

	// single left-to-right pass with a processed exclusion set: a fragment
	// already placed in a group is never re-evaluated as a comparison base
	processed := map[string]struct{}{}
	for i, def := range defs {
		if _, done := processed[def.Name]; done {
			continue
		}
		group := []*FragmentDefinition{def}
		for _, candidate := range defs[i+1:] {
			if _, done := processed[candidate.Name]; done {
				continue
			}
			if selectionSimilarity(def, candidate) > duplicateSimilarityThreshold {
				group = append(group, candidate)
				processed[candidate.Name] = struct{}{}
			}
		}
		if len(group) < 2 {
			continue
		}
		processed[def.Name] = struct{}{}
		analysis.Duplicates = append(analysis.Duplicates, newDuplicateGroup(group))
	}

	analysis.Opportunities = SuggestOptimizations(analysis)
	return analysis
}

func newDuplicateGroup(group []*FragmentDefinition) DuplicateGroup {
	dg := DuplicateGroup{Names: make([]string, len(group))}
	total := 0
	for i, def := range group {
		dg.Names[i] = def.Name
		total += def.Metadata.Size
	}

	merged, err := MergeCompatible(group...)
	if err != nil {
		// members with differing declared types cannot actually merge
		dg.MergedSize = total
		return dg
	}
	dg.MergedSize = merged.Selections.estimatedSize()
	if savings := total - dg.MergedSize; savings > 0 {
		dg.Savings = savings
	}
	return dg
}

// selectionSimilarity is 1 for identical serialized selections, otherwise
// the Jaccard index over the sets of top-level field names. Nesting below
// the top level does not contribute.
func selectionSimilarity(a, b *FragmentDefinition) float64 {
	if a.Selections.serialize() == b.Selections.serialize() {
		return 1
	}
	union := map[string]struct{}{}
	for k := range a.Selections {
		union[k] = struct{}{}
	}
	intersection := 0
	for k := range b.Selections {
		if _, ok := union[k]; ok {
			intersection++
		}
		union[k] = struct{}{}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}

const (
	inlineSizeThreshold = 100 // bytes
	cacheUsageThreshold = 10
)

// SuggestOptimizations derives at most one suggestion per category: inline
// for tiny fragments, merge when duplicate groups exist, cache for heavily
// used fragments. Impact and effort ratings are fixed per category.
func SuggestOptimizations(analysis *Analysis) []Optimization {
	var suggestions []Optimization

	var small []string
	for _, def := range analysis.Fragments {
		if def.Metadata.Size < inlineSizeThreshold {
			small = append(small, def.Name)
		}
	}
	if len(small) > 0 {
		suggestions = append(suggestions, Optimization{
			Kind:        "inline",
			Description: fmt.Sprintf("%d fragment(s) under %d bytes could be inlined at their spread sites", len(small), inlineSizeThreshold),
			Impact:      "low",
			Effort:      "low",
			Fragments:   small,
		})
	}

	if len(analysis.Duplicates) > 0 {
		totalSavings := 0
		var names []string
		for _, group := range analysis.Duplicates {
			totalSavings += group.Savings
			names = append(names, group.Names...)
		}
		suggestions = append(suggestions, Optimization{
			Kind:        "merge",
			Description: fmt.Sprintf("merging %d duplicate group(s) would save an estimated %d bytes", len(analysis.Duplicates), totalSavings),
			Impact:      "high",
			Effort:      "medium",
			Fragments:   names,
		})
	}

	var hot []string
	for _, def := range analysis.Fragments {
		if def.Metadata.UsageCount > cacheUsageThreshold {
			hot = append(hot, def.Name)
		}
	}
	if len(hot) > 0 {
		suggestions = append(suggestions, Optimization{
			Kind:        "cache",
			Description: fmt.Sprintf("%d fragment(s) used more than %d times are cache candidates", len(hot), cacheUsageThreshold),
			Impact:      "medium",
			Effort:      "low",
			Fragments:   hot,
		})
	}

	return suggestions
}
