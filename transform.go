package gqlselect

import "github.com/iancoleman/strcase"

// SnakeCaseFields maps camelCase GraphQL field names onto snake_case store
// names. Plug into BuildContext.TransformFieldName.
func SnakeCaseFields(name string) string {
	return strcase.ToSnake(name)
}

// CamelCaseFields is the inverse direction, for stores that keep lowerCamel
// names.
func CamelCaseFields(name string) string {
	return strcase.ToLowerCamel(name)
}
