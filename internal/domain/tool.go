package domain

// Tool represents a callable operation exposed to MCP clients.
// Based on MCP Spec 2024-11-05: https://modelcontextprotocol.io/specification/2024-11-05
type Tool struct {
	// Name follows the pattern "{prefix}-{verb}-{resource}".
	// It MUST be unique within the MCP server.
	Name string `json:"name"`

	// Description provides a natural language explanation of what the tool does.
	// This is what lets the LLM decide when to use the tool.
	Description string `json:"description"`

	// InputSchema defines the structure of the data the tool expects,
	// in JSON Schema form.
	InputSchema JSONSchemaProps `json:"inputSchema"`
}

// JSONSchemaProps is the subset of JSON Schema this server needs for its
// tool inputs: flat objects of described string fields.
type JSONSchemaProps struct {
	Type        string                     `json:"type"`                  // "object" at the top level, "string" for fields
	Description string                     `json:"description,omitempty"` // For field schemas
	Properties  map[string]JSONSchemaProps `json:"properties,omitempty"`  // For type "object"
	Required    []string                   `json:"required,omitempty"`    // For type "object"
}
