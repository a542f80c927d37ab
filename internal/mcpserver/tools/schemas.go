package tools

// Common JSON Schema building blocks

// StringSchema creates a JSON schema for a string field
func StringSchema(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
	}
}

// UUIDSchema creates a JSON schema for a UUID field
func UUIDSchema(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"format":      "uuid",
		"description": description,
	}
}

// BuildSchema creates a complete JSON schema object with properties and required fields.
// Required is always emitted, as an empty list when nothing is required.
func BuildSchema(properties map[string]any, required []string) map[string]any {
	if properties == nil {
		properties = map[string]any{}
	}
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// EmptySchema returns the schema of a tool that takes no arguments
func EmptySchema() map[string]any {
	return BuildSchema(nil, nil)
}

// UUIDResultSchema returns the output schema of the get_uuid tool
func UUIDResultSchema() map[string]any {
	return BuildSchema(map[string]any{
		"uuid": UUIDSchema("The generated v4 UUID"),
	}, []string{"uuid"})
}
