package gqlselect

import (
	"strings"
	"sync"
)

// pathSegmentsMemo caches path-string → segment splits. It is process-wide
// and never invalidated: paths are configuration-time literals, so the memo
// stays small. Do not feed it untrusted, high-cardinality strings.
var pathSegmentsMemo sync.Map // string -> []string

// ExtractPath descends through a built select/include tree along the dotted
// path and returns the relation found at the final segment. An empty path
// returns root unchanged. A segment naming a missing key or a scalar leaf
// fails with *InvalidPathError: surfacing the configuration mistake beats
// silently returning nothing.
func ExtractPath(root *Relation, path string) (*Relation, error) {
	if path == "" {
		return root, nil
	}
	return extractSegments(root, splitPath(path), path)
}

// ExtractPathSegments is ExtractPath for an already-split path.
func ExtractPathSegments(root *Relation, segments []string) (*Relation, error) {
	if len(segments) == 0 {
		return root, nil
	}
	return extractSegments(root, segments, strings.Join(segments, "."))
}

func extractSegments(root *Relation, segments []string, path string) (*Relation, error) {
	if root == nil {
		return nil, &InvalidPathError{Path: path, Segment: segments[0]}
	}
	current := root
	for _, segment := range segments {
		rel, ok := current.inner()[segment].(*Relation)
		if !ok {
			return nil, &InvalidPathError{Path: path, Segment: segment}
		}
		current = rel
	}
	return current, nil
}

func splitPath(path string) []string {
	if cached, ok := pathSegmentsMemo.Load(path); ok {
		return cached.([]string)
	}
	segments := strings.Split(path, ".")
	pathSegmentsMemo.Store(path, segments)
	return segments
}
