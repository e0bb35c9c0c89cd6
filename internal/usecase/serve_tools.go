package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/markweb/markweb-mcp/internal/domain"
)

// ServeToolsUseCase provides the functionality to list available tools.
type ServeToolsUseCase struct {
	repository ToolRepository
	logger     *slog.Logger
}

// NewServeToolsUseCase creates a new ServeToolsUseCase.
func NewServeToolsUseCase(repository ToolRepository, logger *slog.Logger) *ServeToolsUseCase {
	return &ServeToolsUseCase{
		repository: repository,
		logger:     logger.With("usecase", "ServeTools"),
	}
}

// Execute retrieves the tool catalog in its stable listing order. Every name
// it returns is accepted by InvokeToolUseCase and vice versa; both read the
// same repository.
func (uc *ServeToolsUseCase) Execute(ctx context.Context) ([]domain.Tool, error) {
	tools, err := uc.repository.List(ctx)
	if err != nil {
		uc.logger.Error("Failed to list tools from repository.", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list tools from repository: %w", err)
	}
	uc.logger.Debug("Listed tools.", slog.Int("count", len(tools)))
	return tools, nil
}
