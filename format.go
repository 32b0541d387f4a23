package gqlselect

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"
)

func formatSelectionSet(ctx context.Context, selection ast.SelectionSet) string {
	vars := map[string]interface{}{}
	if graphql.HasOperationContext(ctx) {
		if opctx := graphql.GetOperationContext(ctx); opctx != nil {
			vars = opctx.Variables
		}
	}

	sb := strings.Builder{}
	sb.WriteString("{")
	formatSelection(&sb, vars, selection)
	sb.WriteString(" }")

	return sb.String()
}

var multipleSpacesRegex = regexp.MustCompile(`\s+`)

func formatSelectionSetSingleLine(ctx context.Context, selection ast.SelectionSet) string {
	return multipleSpacesRegex.ReplaceAllString(formatSelectionSet(ctx, selection), " ")
}

func formatSelection(sb *strings.Builder, vars map[string]interface{}, selectionSet ast.SelectionSet) {
	for _, selection := range selectionSet {
		sb.WriteByte(' ')
		switch selection := selection.(type) {
		case *ast.Field:
			if selection.Alias != "" && selection.Alias != selection.Name {
				sb.WriteString(selection.Alias)
				sb.WriteString(": ")
			}
			sb.WriteString(selection.Name)
			formatArgumentList(sb, vars, selection.Arguments)
			if len(selection.SelectionSet) > 0 {
				sb.WriteString(" {")
				formatSelection(sb, vars, selection.SelectionSet)
				sb.WriteString(" }")
			}
		case *ast.InlineFragment:
			fmt.Fprintf(sb, "... on %v {", selection.TypeCondition)
			formatSelection(sb, vars, selection.SelectionSet)
			sb.WriteString(" }")
		case *ast.FragmentSpread:
			sb.WriteString("...")
			sb.WriteString(selection.Name)
		}
	}
}

func formatArgumentList(sb *strings.Builder, vars map[string]interface{}, args ast.ArgumentList) {
	if len(args) == 0 {
		return
	}
	sb.WriteString("(")
	for i, arg := range args {
		if i != 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "%s: %s", arg.Name, formatArgument(arg.Value, vars))
	}
	sb.WriteString(")")
}

func formatArgument(v *ast.Value, vars map[string]interface{}) string {
	if v == nil {
		return "<nil>"
	}
	if v.Kind == ast.Variable {
		if value, ok := vars[v.Raw]; ok {
			if b, err := json.Marshal(value); err == nil {
				return string(b)
			}
		}
	}
	return v.String()
}
