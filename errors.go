package gqlselect

import "fmt"

// MissingInputError is returned by a public entry point when the selection
// tree (or another required input) is absent. The engine never substitutes a
// default tree.
type MissingInputError struct {
	Reason string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing input: %s", e.Reason)
}

// FragmentNotFoundError is returned when a fragment spread references a name
// that is present neither in the query's fragment table nor in the registry.
// A missing fragment is never treated as "no fields": silently dropping the
// spread would under-fetch data the caller explicitly requested.
type FragmentNotFoundError struct {
	Name string
}

func (e *FragmentNotFoundError) Error() string {
	return fmt.Sprintf("fragment %q not found", e.Name)
}

// IncompatibleTypeError is returned when merging fragments whose declared
// GraphQL types differ.
type IncompatibleTypeError struct {
	Fragment string
	Want     string
	Got      string
}

func (e *IncompatibleTypeError) Error() string {
	return fmt.Sprintf("cannot merge fragment %q of type %q into type %q", e.Fragment, e.Got, e.Want)
}

// InvalidPathError is returned when a path segment cannot be descended into
// because the current node has no further select/include to follow.
type InvalidPathError struct {
	Path    string
	Segment string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: cannot descend into segment %q", e.Path, e.Segment)
}
