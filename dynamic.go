package gqlselect

import (
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

// DynamicContext is the caller-supplied request context dynamic fragments
// and override conditions are evaluated against.
type DynamicContext map[string]interface{}

// SelectionSource yields a dynamic fragment's selections, either literally
// or computed from the request context.
type SelectionSource interface {
	resolveSelections(ctx DynamicContext) SelectionMap
}

// StaticSelections is a literal selection map.
type StaticSelections SelectionMap

func (s StaticSelections) resolveSelections(DynamicContext) SelectionMap {
	return SelectionMap(s)
}

// ComputedSelections derives the selection map from the request context.
type ComputedSelections func(DynamicContext) SelectionMap

func (f ComputedSelections) resolveSelections(ctx DynamicContext) SelectionMap {
	return f(ctx)
}

// DynamicFragment is a conditionally activated fragment, evaluated per
// request and never persisted. Lower priority is evaluated and kept first.
type DynamicFragment struct {
	Name       string
	Condition  func(DynamicContext) bool // nil means always active
	Selections SelectionSource
	Priority   int
}

// EvaluateDynamic evaluates the fragments against ctx in ascending priority
// order and synthesizes one definition, typed "Dynamic", per activated
// entry. Panics inside conditions or producers are recovered and logged as
// warnings: a failing condition does not activate, a failing producer
// contributes an empty selection.
func EvaluateDynamic(fragments []DynamicFragment, ctx DynamicContext) []*FragmentDefinition {
	ordered := make([]DynamicFragment, len(fragments))
	copy(ordered, fragments)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })

	var result []*FragmentDefinition
	for _, df := range ordered {
		if !safeCondition(df.Condition, ctx, df.Name) {
			continue
		}
		def := NewFragmentDefinition(df.Name, "Dynamic", safeSelections(df.Selections, ctx, df.Name))
		def.Metadata.UsageCount = 1
		def.Metadata.LastUsed = time.Now()
		result = append(result, def)
	}
	return result
}

// MergeDynamic folds the activating dynamic fragments into base via
// MergeCompatible. Dynamic fragments are type-agnostic until merged, so each
// evaluated result is retyped to base's type. Evaluation uses an empty
// context; when nothing activates, base is returned unchanged.
func MergeDynamic(base *FragmentDefinition, fragments []DynamicFragment) (*FragmentDefinition, error) {
	evaluated := EvaluateDynamic(fragments, DynamicContext{})
	if len(evaluated) == 0 {
		return base, nil
	}
	defs := make([]*FragmentDefinition, 0, len(evaluated)+1)
	defs = append(defs, base)
	for _, def := range evaluated {
		def.Type = base.Type
		defs = append(defs, def)
	}
	return MergeCompatible(defs...)
}

// HasMatchingFragment reports whether any dynamic fragment activates for
// ctx, with the same recovery policy as EvaluateDynamic.
func HasMatchingFragment(fragments []DynamicFragment, ctx DynamicContext) bool {
	for _, df := range fragments {
		if safeCondition(df.Condition, ctx, df.Name) {
			return true
		}
	}
	return false
}

// MatchingFragments lists the dynamic fragments that activate for ctx.
func MatchingFragments(fragments []DynamicFragment, ctx DynamicContext) []DynamicFragment {
	var matched []DynamicFragment
	for _, df := range fragments {
		if safeCondition(df.Condition, ctx, df.Name) {
			matched = append(matched, df)
		}
	}
	return matched
}

func safeCondition(cond func(DynamicContext) bool, ctx DynamicContext, name string) (active bool) {
	if cond == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{"fragment": name, "panic": r}).Warn("fragment condition panicked, treating as inactive")
			active = false
		}
	}()
	return cond(ctx)
}

func safeSelections(src SelectionSource, ctx DynamicContext, name string) (selections SelectionMap) {
	if src == nil {
		return SelectionMap{}
	}
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{"fragment": name, "panic": r}).Warn("fragment selection producer panicked, contributing no fields")
			selections = SelectionMap{}
		}
	}()
	selections = src.resolveSelections(ctx)
	if selections == nil {
		selections = SelectionMap{}
	}
	return selections
}
