package mcpjsonrpc

import "encoding/json"

// Based on JSON-RPC 2.0 Specification: https://www.jsonrpc.org/specification

// Version is the only protocol version this package speaks.
const Version = "2.0"

// Request represents a JSON-RPC request object as decoded from one stdio frame.
// Params is kept raw so each handler can decode its own parameter shape.
type Request struct {
	Version string          `json:"jsonrpc"`          // MUST be "2.0"
	Method  string          `json:"method"`           // Method to be invoked
	Params  json.RawMessage `json:"params,omitempty"` // Parameters (structured value)
	ID      interface{}     `json:"id,omitempty"`     // Request identifier (string, number, or null)
}

// IsNotification reports whether the request carries no ID and therefore
// must never be answered.
func (r Request) IsNotification() bool {
	return r.ID == nil
}

// Response represents a JSON-RPC response object.
type Response struct {
	Version string      `json:"jsonrpc"`          // MUST be "2.0"
	Result  interface{} `json:"result,omitempty"` // Required on success
	Error   *Error      `json:"error,omitempty"`  // Required on error
	ID      interface{} `json:"id"`               // Must match request ID (or null if it could not be determined)
}

// Error represents a JSON-RPC error object.
type Error struct {
	Code    int         `json:"code"`           // Error code
	Message string      `json:"message"`        // Error message
	Data    interface{} `json:"data,omitempty"` // Additional data about the error
}

// Error codes (subset, based on JSON-RPC spec)
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// CallToolParams defines the structure of the "params" field for the
// MCP "tools/call" method.
type CallToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// NewResult builds a success response for the given request ID.
func NewResult(id, result interface{}) Response {
	return Response{Version: Version, Result: result, ID: id}
}

// NewError builds an error response for the given request ID. Pass a nil id
// for errors that could not be tied to a request, such as parse failures.
func NewError(id interface{}, code int, message string) Response {
	return Response{Version: Version, Error: &Error{Code: code, Message: message}, ID: id}
}
