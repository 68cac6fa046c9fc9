package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/engram/pkg/model"
)

// Input schemas are written out explicitly instead of inferred from the
// parameter structs so the type enumeration and importance bounds are
// visible to the calling assistant.

func fptr(f float64) *float64 { return &f }

func memoryTypeEnum() []any {
	types := model.MemoryTypes()
	enum := make([]any, len(types))
	for i, t := range types {
		enum[i] = string(t)
	}
	return enum
}

func memoryTypeSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: "Category of the memory",
		Enum:        memoryTypeEnum(),
	}
}

func rememberSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"content": {
				Type:        "string",
				Description: "The information to remember",
			},
			"type": memoryTypeSchema(),
			"importance": {
				Type:        "number",
				Description: "How important this memory is, from 0.0 to 1.0 (default 0.5)",
				Minimum:     fptr(0),
				Maximum:     fptr(1),
			},
			"metadata": {
				Type:        "object",
				Description: "Optional key-value annotations stored with the memory",
			},
		},
		Required: []string{"content"},
	}
}

func recallSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {
				Type:        "string",
				Description: "What to search for",
			},
			"limit": {
				Type:        "integer",
				Description: "Maximum number of memories to return (default 5)",
			},
			"types": {
				Type:        "array",
				Description: "Restrict results to these memory types",
				Items:       memoryTypeSchema(),
			},
		},
		Required: []string{"query"},
	}
}

func forgetSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"memory_id": {
				Type:        "string",
				Description: "ID of the memory to delete",
			},
			"reason": {
				Type:        "string",
				Description: "Optional reason for deleting it",
			},
		},
		Required: []string{"memory_id"},
	}
}

func listMemoriesSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"limit": {
				Type:        "integer",
				Description: "Maximum number of memories to list (default 10)",
			},
		},
	}
}

func memoryStatusSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{},
	}
}
