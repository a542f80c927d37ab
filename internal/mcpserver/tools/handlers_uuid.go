package tools

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Generator produces a random UUID. uuid.NewRandom is the production generator.
type Generator func() (uuid.UUID, error)

// NewGetUUIDHandler returns the get_uuid handler backed by gen.
// Arguments are accepted and ignored.
func NewGetUUIDHandler(gen Generator) Handler {
	return func(ctx context.Context, tc *ToolContext, _ json.RawMessage) (interface{}, error) {
		id, err := gen()
		if err != nil {
			return nil, NewToolError(ErrCodeGenerationFailed, "Failed to generate UUID: "+err.Error())
		}

		value := id.String()
		tc.logger().Debug().Str("uuid", value).Msg("generated UUID")

		// structuredContent must satisfy the advertised outputSchema
		result := TextResult(value)
		result.StructuredContent = map[string]any{"uuid": value}
		return result, nil
	}
}
