package gqlselect

import (
	"encoding/json"
	"sort"
	"strings"
)

// SelectionMap maps a field name to either the literal true (a scalar leaf)
// or a *Relation wrapping a nested selection.
type SelectionMap map[string]interface{}

// Relation wraps a nested selection for relation traversal. Exactly one of
// Select and Include is non-nil: Select when the nested selection contains at
// least one scalar leaf, Include when every entry is itself a relation. An
// empty selection is Include with an empty map.
type Relation struct {
	Select  SelectionMap
	Include SelectionMap
}

// MarshalJSON emits the populated side only, keeping `{"include":{}}` for
// empty relations (omitempty would drop the empty map).
func (r *Relation) MarshalJSON() ([]byte, error) {
	if r.Select != nil {
		return json.Marshal(struct {
			Select SelectionMap `json:"select"`
		}{r.Select})
	}
	return json.Marshal(struct {
		Include SelectionMap `json:"include"`
	}{r.Include})
}

func (r *Relation) inner() SelectionMap {
	if r.Select != nil {
		return r.Select
	}
	return r.Include
}

// serialize renders the map in canonical form: keys sorted at every nesting
// level, each wrapper tagged with its select/include choice. Maps with the
// same content always serialize identically regardless of construction order.
func (m SelectionMap) serialize() string {
	var sb strings.Builder
	m.writeTo(&sb)
	return sb.String()
}

func (m SelectionMap) writeTo(sb *strings.Builder) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(k)
		if rel, ok := m[k].(*Relation); ok {
			if rel.Select != nil {
				sb.WriteString(":select")
				rel.Select.writeTo(sb)
			} else {
				sb.WriteString(":include")
				rel.Include.writeTo(sb)
			}
		}
	}
	sb.WriteByte('}')
}

// estimatedSize is the byte length of the canonical serialization.
func (m SelectionMap) estimatedSize() int {
	return len(m.serialize())
}

// complexityScore counts one point per field and one per relation wrapper
// entered, so deeply nested selections score higher than flat ones of the
// same field count.
func (m SelectionMap) complexityScore() int {
	score := len(m)
	for _, v := range m {
		if rel, ok := v.(*Relation); ok {
			score += 1 + rel.inner().complexityScore()
		}
	}
	return score
}

func (m SelectionMap) deepCopy() SelectionMap {
	out := make(SelectionMap, len(m))
	for k, v := range m {
		if rel, ok := v.(*Relation); ok {
			cp := &Relation{}
			if rel.Select != nil {
				cp.Select = rel.Select.deepCopy()
			} else {
				cp.Include = rel.Include.deepCopy()
			}
			out[k] = cp
			continue
		}
		out[k] = v
	}
	return out
}

// collectFieldNames adds every key at every nesting level to the given set.
func (m SelectionMap) collectFieldNames(into map[string]struct{}) {
	for k, v := range m {
		into[k] = struct{}{}
		if rel, ok := v.(*Relation); ok {
			rel.inner().collectFieldNames(into)
		}
	}
}
