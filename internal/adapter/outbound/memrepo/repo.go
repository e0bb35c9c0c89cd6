package memrepo

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/markweb/markweb-mcp/internal/domain"
	"github.com/markweb/markweb-mcp/internal/usecase"
)

// InMemoryToolRepository provides an in-memory implementation of the
// ToolRepository. Listing preserves save order, which is what keeps the
// tools/list output stable between calls.
type InMemoryToolRepository struct {
	mu                sync.RWMutex
	order             []string
	tools             map[string]domain.Tool
	invocationDetails map[string]usecase.InvocationDetails
	logger            *slog.Logger
}

// NewInMemoryToolRepository creates a new in-memory repository.
func NewInMemoryToolRepository(logger *slog.Logger) *InMemoryToolRepository {
	return &InMemoryToolRepository{
		tools:             make(map[string]domain.Tool),
		invocationDetails: make(map[string]usecase.InvocationDetails),
		logger:            logger.With("component", "mem_repo"),
	}
}

// Save stores the given tools and their corresponding invocation details.
// Tools and details correspond by index; re-saving an existing name replaces
// it without changing its listing position.
func (r *InMemoryToolRepository) Save(ctx context.Context, tools []domain.Tool, details []usecase.InvocationDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(tools) != len(details) {
		msg := fmt.Sprintf("mismatch between number of tools (%d) and invocation details (%d)", len(tools), len(details))
		r.logger.Error("Failed to save tools and details.", slog.String("reason", msg))
		return fmt.Errorf("save failed: %s", msg)
	}

	for i, tool := range tools {
		if tool.Name == "" {
			r.logger.Warn("Skipping tool with empty name during save.", slog.Int("index", i))
			continue
		}
		if _, exists := r.tools[tool.Name]; !exists {
			r.order = append(r.order, tool.Name)
		}
		r.tools[tool.Name] = tool
		r.invocationDetails[tool.Name] = details[i]
	}
	r.logger.Info("Saved tools and invocation details.", slog.Int("total_tools", len(r.tools)))
	return nil
}

// List returns all tools in the order they were first saved.
func (r *InMemoryToolRepository) List(ctx context.Context) ([]domain.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]domain.Tool, 0, len(r.order))
	for _, name := range r.order {
		list = append(list, r.tools[name])
	}
	return list, nil
}

// FindToolByName retrieves a tool definition by its name.
func (r *InMemoryToolRepository) FindToolByName(ctx context.Context, name string) (*domain.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return nil, usecase.ErrToolNotFound
	}
	return &tool, nil
}

// FindInvocationDetailsByName retrieves invocation details by tool name.
func (r *InMemoryToolRepository) FindInvocationDetailsByName(ctx context.Context, name string) (*usecase.InvocationDetails, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	details, ok := r.invocationDetails[name]
	if !ok {
		return nil, usecase.ErrToolNotFound
	}
	return &details, nil
}
