package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/markweb/markweb-mcp/configs"
	"github.com/markweb/markweb-mcp/internal/adapter/inbound/mcpstdio"
	"github.com/markweb/markweb-mcp/internal/adapter/outbound/httpfetch"
	"github.com/markweb/markweb-mcp/internal/adapter/outbound/memrepo"
	"github.com/markweb/markweb-mcp/internal/adapter/outbound/profilegen"
	"github.com/markweb/markweb-mcp/internal/domain"
	"github.com/markweb/markweb-mcp/internal/usecase"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	serverName    = "markweb-mcp"
	serverVersion = "0.1.0"
)

// oneShotTools maps CLI subcommands to tool-name suffixes and the argument
// field they populate. Variant subcommands resolve to tools the selected
// profile may not enable, in which case the invocation fails like any other
// unknown tool.
var oneShotTools = map[string]struct {
	suffix string
	field  string
}{
	"fetch":      {"fetch-url", "url"},
	"search":     {"search-web", "query"},
	"render":     {"render-url", "url"},
	"raw":        {"raw-url", "url"},
	"nocache":    {"nocache-url", "url"},
	"screenshot": {"screenshot-url", "url"},
}

func main() {
	// Best effort; a missing .env file is the normal case.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === Configuration ===
	cfg, err := configs.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// === Logging ===
	// Both modes own their stdout (JSON-RPC frames or the one-shot result),
	// so logs go to a file, falling back to discard if it cannot be opened.
	logLevel := cfg.ParsedLogLevel()
	var logger *slog.Logger
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: logLevel}))
	} else {
		logger = slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: logLevel}))
	}
	slog.SetDefault(logger)
	logger.Info("Logger initialized.", slog.String("level", logLevel.String()))

	// === Profile Selection ===
	profile, ok := domain.ProfileByName(cfg.Profile)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown profile %q\n", cfg.Profile)
		os.Exit(1)
	}
	logger.Info("Profile selected.", slog.String("profile", profile.Name))

	// === OpenTelemetry Initialization ===
	shutdownOtel, err := initOtelProvider(cfg)
	if err != nil {
		logger.Error("Failed to initialize OpenTelemetry.", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := shutdownOtel(context.Background()); err != nil {
			logger.Error("Failed to shutdown OpenTelemetry TracerProvider.", slog.Any("error", err))
		}
	}()

	// === Dependency Injection ===
	fetcher := httpfetch.New(&http.Client{}, cfg.MaxRedirects, cfg.HTTPClientTimeout, logger)
	repo := memrepo.NewInMemoryToolRepository(logger)

	generator := profilegen.NewToolGenerator(logger)
	tools, details, err := generator.Generate(profile)
	if err != nil {
		logger.Error("Failed to generate tool catalog.", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Failed to generate tool catalog: %v\n", err)
		os.Exit(1)
	}
	if err := repo.Save(ctx, tools, details); err != nil {
		logger.Error("Failed to store tool catalog.", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Failed to store tool catalog: %v\n", err)
		os.Exit(1)
	}

	creds := cfg.ResolveCredentials(profile)
	invokeUC := usecase.NewInvokeToolUseCase(repo, fetcher, creds, cfg.Headers, logger)
	serveUC := usecase.NewServeToolsUseCase(repo, logger)

	// === Mode Selection ===
	// A recognized subcommand means one-shot CLI mode; otherwise serve MCP
	// over stdio until the input stream ends.
	if args := os.Args[1:]; len(args) > 0 {
		os.Exit(runOneShot(ctx, invokeUC, profile, args))
	}

	server := mcpstdio.NewServer(serverName, serverVersion, serveUC, invokeUC, logger)
	if err := server.Run(ctx, os.Stdin, os.Stdout); err != nil {
		logger.Error("Stdio server error.", slog.Any("error", err))
		os.Exit(1)
	}
}

// runOneShot performs exactly one tool invocation for the given subcommand
// and positional argument, writing the raw result to stdout. Failures print
// "Error: <message>" to stderr and exit 1.
func runOneShot(ctx context.Context, invokeUC *usecase.InvokeToolUseCase, profile domain.ServiceProfile, args []string) int {
	sub, ok := oneShotTools[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", args[0])
		return 1
	}
	if len(args) != 2 {
		fmt.Fprintf(os.Stderr, "Error: usage: %s %s <%s>\n", serverName, args[0], sub.field)
		return 1
	}

	text, err := invokeUC.Execute(ctx, profile.NamePrefix+"-"+sub.suffix, map[string]interface{}{sub.field: args[1]})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Println(text)
	return 0
}

// initOtelProvider initializes the OpenTelemetry SDK and sets up the OTLP
// trace exporter. It returns a shutdown function to be called on exit.
// Tracing is disabled (no-op shutdown) when no endpoint is configured, which
// is the usual case for a stdio server spawned by an agent host.
func initOtelProvider(cfg *configs.Config) (func(context.Context) error, error) {
	ctx := context.Background()

	if cfg.OtelExporterOtlpEndpoint == "" {
		slog.Debug("OTEL_EXPORTER_OTLP_ENDPOINT not set, tracing disabled.")
		return func(context.Context) error { return nil }, nil
	}

	slog.Info("Initializing OTLP exporter.", slog.String("endpoint", cfg.OtelExporterOtlpEndpoint))

	grpcOpts := []grpc.DialOption{}
	if cfg.OtelExporterOtlpInsecure {
		grpcOpts = append(grpcOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		slog.Warn("Using insecure connection for OTLP exporter.")
	}

	conn, err := grpc.NewClient(cfg.OtelExporterOtlpEndpoint, grpcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to OTLP endpoint: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serverName),
		),
	)
	if err != nil {
		_ = traceExporter.Shutdown(ctx)
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(r),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) error {
		providerErr := tp.Shutdown(ctx)
		connErr := conn.Close()
		return errors.Join(providerErr, connErr)
	}, nil
}
