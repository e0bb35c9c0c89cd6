package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/markweb/markweb-mcp/internal/adapter/outbound/memrepo"
	"github.com/markweb/markweb-mcp/internal/adapter/outbound/profilegen"
	"github.com/markweb/markweb-mcp/internal/domain"
	"github.com/markweb/markweb-mcp/internal/usecase"
)

// MockFetcher is a mock implementation of the Fetcher interface.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, url string, headers map[string]string) (string, error) {
	args := m.Called(ctx, url, headers)
	return args.String(0), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newPopulatedRepo builds a repository holding the snapweb catalog, which
// covers all three invocation kinds.
func newPopulatedRepo(t *testing.T) usecase.ToolRepository {
	t.Helper()
	logger := testLogger()
	profile, ok := domain.ProfileByName("snapweb")
	require.True(t, ok)

	tools, details, err := profilegen.NewToolGenerator(logger).Generate(profile)
	require.NoError(t, err)

	repo := memrepo.NewInMemoryToolRepository(logger)
	require.NoError(t, repo.Save(context.Background(), tools, details))
	return repo
}

func testCreds() usecase.Credentials {
	return usecase.Credentials{
		HeaderName: "x-snapweb-api-token",
		KeyEnvVar:  "SNAPWEB_API_KEY",
		APIKey:     "test-key",
		BaseURL:    "https://snapweb.dev",
	}
}

func TestExecute_URLConstruction(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		toolName    string
		args        map[string]interface{}
		wantURL     string
		wantHeaders map[string]string
	}{
		{
			name:     "fetch passes pre-encoded URLs through untouched",
			toolName: "snapweb-fetch-url",
			args:     map[string]interface{}{"url": "https://example.com/a%20b?x=1&y=2"},
			wantURL:  "https://snapweb.dev/https://example.com/a%20b?x=1&y=2",
			wantHeaders: map[string]string{
				"x-snapweb-api-token": "test-key",
			},
		},
		{
			name:     "search percent-encodes the query and asks for markdown",
			toolName: "snapweb-search-web",
			args:     map[string]interface{}{"query": "golang http/2 proxies?"},
			wantURL:  "https://snapweb.dev/search?q=golang+http%2F2+proxies%3F",
			wantHeaders: map[string]string{
				"x-snapweb-api-token": "test-key",
				"Accept":              "text/markdown",
			},
		},
		{
			name:     "variant inserts the mode segment",
			toolName: "snapweb-screenshot-url",
			args:     map[string]interface{}{"url": "https://example.com"},
			wantURL:  "https://snapweb.dev/screenshot/https://example.com",
			wantHeaders: map[string]string{
				"x-snapweb-api-token": "test-key",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := new(MockFetcher)
			fetcher.On("Fetch", mock.Anything, tt.wantURL, tt.wantHeaders).Return("# body", nil).Once()

			uc := usecase.NewInvokeToolUseCase(newPopulatedRepo(t), fetcher, testCreds(), nil, testLogger())
			body, err := uc.Execute(ctx, tt.toolName, tt.args)

			require.NoError(t, err)
			assert.Equal(t, "# body", body)
			fetcher.AssertExpectations(t)
		})
	}
}

func TestExecute_MissingCredentialCheckedFirst(t *testing.T) {
	fetcher := new(MockFetcher)
	creds := testCreds()
	creds.APIKey = ""

	uc := usecase.NewInvokeToolUseCase(newPopulatedRepo(t), fetcher, creds, nil, testLogger())

	// Even an unknown tool with no arguments fails on the credential first.
	_, err := uc.Execute(context.Background(), "not-a-tool", nil)

	var confErr *domain.ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Contains(t, err.Error(), "SNAPWEB_API_KEY")
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_UnknownTool(t *testing.T) {
	uc := usecase.NewInvokeToolUseCase(newPopulatedRepo(t), new(MockFetcher), testCreds(), nil, testLogger())

	_, err := uc.Execute(context.Background(), "snapweb-teleport-url", nil)

	var unknownErr *domain.UnknownToolError
	require.ErrorAs(t, err, &unknownErr)
	assert.Contains(t, err.Error(), "snapweb-teleport-url")
}

func TestExecute_MissingRequiredArgument(t *testing.T) {
	tests := []struct {
		name      string
		toolName  string
		args      map[string]interface{}
		wantField string
	}{
		{"no arguments at all", "snapweb-fetch-url", nil, "url"},
		{"empty arguments object", "snapweb-fetch-url", map[string]interface{}{}, "url"},
		{"wrong type", "snapweb-fetch-url", map[string]interface{}{"url": 42}, "url"},
		{"search needs query", "snapweb-search-web", map[string]interface{}{"url": "https://x"}, "query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := usecase.NewInvokeToolUseCase(newPopulatedRepo(t), new(MockFetcher), testCreds(), nil, testLogger())

			_, err := uc.Execute(context.Background(), tt.toolName, tt.args)

			var valErr *domain.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tt.wantField+" is required", err.Error())
		})
	}
}

func TestExecute_StaticHeadersApplied(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, mock.Anything, mock.MatchedBy(func(h map[string]string) bool {
		return h["x-trace-origin"] == "ci" && h["x-snapweb-api-token"] == "test-key"
	})).Return("ok", nil).Once()

	uc := usecase.NewInvokeToolUseCase(newPopulatedRepo(t), fetcher, testCreds(),
		map[string]string{"x-trace-origin": "ci"}, testLogger())

	_, err := uc.Execute(context.Background(), "snapweb-fetch-url", map[string]interface{}{"url": "https://example.com"})
	require.NoError(t, err)
	fetcher.AssertExpectations(t)
}

func TestExecute_FetcherErrorsPassThrough(t *testing.T) {
	fetchErr := &domain.NetworkError{Err: errors.New("connection refused")}
	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything).Return("", fetchErr).Once()

	uc := usecase.NewInvokeToolUseCase(newPopulatedRepo(t), fetcher, testCreds(), nil, testLogger())

	_, err := uc.Execute(context.Background(), "snapweb-fetch-url", map[string]interface{}{"url": "https://example.com"})
	require.Error(t, err)
	assert.Equal(t, "connection refused", err.Error())
}

// Every listed tool must be invokable with just its required field; the
// listing and invocation paths read the same repository, and this pins it.
func TestListedToolsAreInvokable(t *testing.T) {
	ctx := context.Background()
	logger := testLogger()

	for _, profile := range domain.Profiles() {
		t.Run(profile.Name, func(t *testing.T) {
			tools, details, err := profilegen.NewToolGenerator(logger).Generate(profile)
			require.NoError(t, err)

			repo := memrepo.NewInMemoryToolRepository(logger)
			require.NoError(t, repo.Save(ctx, tools, details))

			fetcher := new(MockFetcher)
			fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything).Return("ok", nil)

			creds := testCreds()
			uc := usecase.NewInvokeToolUseCase(repo, fetcher, creds, nil, logger)
			serveUC := usecase.NewServeToolsUseCase(repo, logger)

			listed, err := serveUC.Execute(ctx)
			require.NoError(t, err)
			require.Len(t, listed, len(tools))

			for _, tool := range listed {
				require.Len(t, tool.InputSchema.Required, 1, tool.Name)
				args := map[string]interface{}{tool.InputSchema.Required[0]: "probe"}

				_, err := uc.Execute(ctx, tool.Name, args)
				assert.NoError(t, err, tool.Name)
			}
		})
	}
}
