package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/markweb/markweb-mcp/internal/domain"
	"github.com/markweb/markweb-mcp/internal/usecase"
)

// MockToolRepository is a mock implementation of the ToolRepository interface.
type MockToolRepository struct {
	mock.Mock
}

func (m *MockToolRepository) Save(ctx context.Context, tools []domain.Tool, details []usecase.InvocationDetails) error {
	args := m.Called(ctx, tools, details)
	return args.Error(0)
}

func (m *MockToolRepository) List(ctx context.Context) ([]domain.Tool, error) {
	args := m.Called(ctx)
	result := args.Get(0)
	if result == nil {
		return nil, args.Error(1)
	}
	return result.([]domain.Tool), args.Error(1)
}

func (m *MockToolRepository) FindToolByName(ctx context.Context, name string) (*domain.Tool, error) {
	args := m.Called(ctx, name)
	result := args.Get(0)
	if result == nil {
		return nil, args.Error(1)
	}
	return result.(*domain.Tool), args.Error(1)
}

func (m *MockToolRepository) FindInvocationDetailsByName(ctx context.Context, name string) (*usecase.InvocationDetails, error) {
	args := m.Called(ctx, name)
	result := args.Get(0)
	if result == nil {
		return nil, args.Error(1)
	}
	return result.(*usecase.InvocationDetails), args.Error(1)
}

func TestServeToolsUseCase_Execute(t *testing.T) {
	ctx := context.Background()

	expectedTools := []domain.Tool{
		{Name: "markweb-fetch-url", Description: "Fetch"},
		{Name: "markweb-search-web", Description: "Search"},
	}
	repoError := errors.New("repository error")

	tests := []struct {
		name      string
		mockSetup func(*MockToolRepository)
		wantErr   bool
		wantTools []domain.Tool
	}{
		{
			name: "Success - tools found",
			mockSetup: func(repo *MockToolRepository) {
				repo.On("List", ctx).Return(expectedTools, nil).Once()
			},
			wantTools: expectedTools,
		},
		{
			name: "Success - empty catalog",
			mockSetup: func(repo *MockToolRepository) {
				repo.On("List", ctx).Return([]domain.Tool{}, nil).Once()
			},
			wantTools: []domain.Tool{},
		},
		{
			name: "Failure - repository error",
			mockSetup: func(repo *MockToolRepository) {
				repo.On("List", ctx).Return(nil, repoError).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockToolRepository)
			tt.mockSetup(repo)

			uc := usecase.NewServeToolsUseCase(repo, testLogger())
			tools, err := uc.Execute(ctx)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, repoError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantTools, tools)
			}
			repo.AssertExpectations(t)
		})
	}
}
