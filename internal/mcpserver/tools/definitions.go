package tools

import "github.com/google/uuid"

// ToolGetUUID is the name of the UUID generation tool
const ToolGetUUID = "get_uuid"

// RegisterAllTools registers all available tools with the registry
func RegisterAllTools(r *Registry) {
	registerUUIDTools(r, uuid.NewRandom)
}

func registerUUIDTools(r *Registry, gen Generator) {
	// get_uuid
	r.MustRegister(ToolDefinition{
		Name:         ToolGetUUID,
		Description:  "Generate a version 4 UUID",
		InputSchema:  EmptySchema(),
		OutputSchema: UUIDResultSchema(),
	}, NewGetUUIDHandler(gen))
}
