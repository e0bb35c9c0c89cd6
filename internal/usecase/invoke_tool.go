package usecase

import (
	"context"
	"log/slog"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/markweb/markweb-mcp/internal/domain"
)

// Credentials is the immutable per-process upstream configuration. It is
// resolved once at startup and never reassigned afterward.
type Credentials struct {
	// HeaderName is the request header carrying the API key.
	HeaderName string

	// KeyEnvVar names the environment variable the key was read from,
	// for error messages when it is empty.
	KeyEnvVar string

	// APIKey is the key value. Empty means no credential was configured
	// and every invocation fails with a ConfigurationError.
	APIKey string

	// BaseURL is the proxy origin, with any trailing slash already stripped.
	BaseURL string
}

// InvokeToolUseCase turns a tool name plus argument object into exactly one
// upstream HTTP fetch and returns the proxied body verbatim.
type InvokeToolUseCase struct {
	repository ToolRepository
	fetcher    Fetcher
	creds      Credentials
	headers    map[string]string // static operator-configured headers
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewInvokeToolUseCase creates a new InvokeToolUseCase. The extra headers are
// sent on every upstream request after the per-tool headers.
func NewInvokeToolUseCase(repo ToolRepository, fetcher Fetcher, creds Credentials, headers map[string]string, logger *slog.Logger) *InvokeToolUseCase {
	return &InvokeToolUseCase{
		repository: repo,
		fetcher:    fetcher,
		creds:      creds,
		headers:    headers,
		logger:     logger.With("usecase", "InvokeTool"),
		tracer:     otel.Tracer("markweb-mcp/usecase"),
	}
}

// Execute validates the invocation and performs the upstream fetch.
// The credential check runs before anything else so a misconfigured process
// rejects every call uniformly. Errors are typed (ConfigurationError,
// UnknownToolError, ValidationError, plus whatever the fetcher raises) and
// carry messages suitable for surfacing to the MCP client as-is.
func (uc *InvokeToolUseCase) Execute(ctx context.Context, toolName string, args map[string]interface{}) (string, error) {
	log := uc.logger.With(slog.String("tool_name", toolName))

	ctx, span := uc.tracer.Start(ctx, "tools/call",
		trace.WithAttributes(attribute.String("mcp.tool.name", toolName)))
	defer span.End()

	if uc.creds.APIKey == "" {
		err := &domain.ConfigurationError{EnvVar: uc.creds.KeyEnvVar}
		log.Warn("Rejecting invocation, no API key configured.", slog.String("env_var", uc.creds.KeyEnvVar))
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	details, err := uc.repository.FindInvocationDetailsByName(ctx, toolName)
	if err != nil {
		log.Warn("Tool not present in registry.")
		span.SetStatus(codes.Error, "unknown tool")
		return "", &domain.UnknownToolError{Name: toolName}
	}

	arg, ok := args[details.RequiredField].(string)
	if !ok || arg == "" {
		log.Warn("Missing required argument.", slog.String("field", details.RequiredField))
		span.SetStatus(codes.Error, "missing argument")
		return "", &domain.ValidationError{Field: details.RequiredField}
	}

	target := uc.buildTarget(details, arg)

	headers := make(map[string]string, 2+len(details.Headers)+len(uc.headers))
	headers[uc.creds.HeaderName] = uc.creds.APIKey
	for k, v := range details.Headers {
		headers[k] = v
	}
	for k, v := range uc.headers {
		headers[k] = v
	}

	log.Info("Invoking upstream proxy.", slog.String("kind", string(details.Kind)))
	body, err := uc.fetcher.Fetch(ctx, target, headers)
	if err != nil {
		log.Error("Upstream fetch failed.", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	log.Debug("Upstream fetch succeeded.", slog.Int("body_bytes", len(body)))
	return body, nil
}

// buildTarget applies the URL construction rule for the invocation kind.
// Fetch-style targets concatenate the caller's URL without re-encoding so
// pre-encoded URLs pass through untouched; only search queries are escaped.
func (uc *InvokeToolUseCase) buildTarget(details *InvocationDetails, arg string) string {
	switch details.Kind {
	case InvocationSearch:
		return uc.creds.BaseURL + "/search?q=" + url.QueryEscape(arg)
	case InvocationVariant:
		return uc.creds.BaseURL + "/" + string(details.Variant) + "/" + arg
	default:
		return uc.creds.BaseURL + "/" + arg
	}
}
