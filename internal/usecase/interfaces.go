package usecase

import (
	"context"
	"errors"

	"github.com/markweb/markweb-mcp/internal/domain"
)

// Standard errors returned by use cases and adapters.
var (
	ErrToolNotFound = errors.New("tool not found")
)

// InvocationKind classifies how a tool call maps onto the upstream proxy.
type InvocationKind string

const (
	// InvocationFetch concatenates the url argument onto the base URL.
	// The argument is passed through byte-for-byte so already-encoded URLs
	// survive the round trip.
	InvocationFetch InvocationKind = "fetch"

	// InvocationVariant is InvocationFetch with a mode segment between
	// base URL and target ("{base}/{variant}/{url}").
	InvocationVariant InvocationKind = "variant"

	// InvocationSearch percent-encodes the query argument into
	// "{base}/search?q={query}".
	InvocationSearch InvocationKind = "search"
)

// InvocationDetails holds what the invoker needs to turn one tool call into
// one upstream GET. Generated alongside each Tool and stored by name.
type InvocationDetails struct {
	// Kind selects the URL construction rule.
	Kind InvocationKind `json:"kind"`

	// Variant is the mode segment for InvocationVariant details.
	Variant domain.Variant `json:"variant,omitempty"`

	// RequiredField names the single argument the tool cannot run without
	// ("url" or "query"). Mirrors the tool's InputSchema.Required entry.
	RequiredField string `json:"required_field"`

	// Headers are static headers sent with every call to this tool,
	// in addition to the API key header.
	Headers map[string]string `json:"headers,omitempty"`
}

// Fetcher defines the outbound HTTP contract: one GET, redirects followed,
// full body returned as text.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) (string, error)
}

// ToolGenerator expands a service profile into the ordered tool catalog and
// the matching invocation details.
type ToolGenerator interface {
	Generate(profile domain.ServiceProfile) ([]domain.Tool, []InvocationDetails, error)
}

// ToolRepository defines the contract for storing and retrieving generated
// Tools and their InvocationDetails. The catalog is written once at startup
// and read for the rest of the process lifetime.
type ToolRepository interface {
	// Save stores a list of tools and their associated invocation details.
	// Tools and details correspond by index and must have the same length.
	Save(ctx context.Context, tools []domain.Tool, details []InvocationDetails) error

	// List retrieves all stored tools in the order they were saved.
	List(ctx context.Context) ([]domain.Tool, error)

	// FindToolByName retrieves a tool definition by its unique name.
	FindToolByName(ctx context.Context, name string) (*domain.Tool, error)

	// FindInvocationDetailsByName retrieves the invocation details for a tool.
	FindInvocationDetailsByName(ctx context.Context, name string) (*InvocationDetails, error)
}
