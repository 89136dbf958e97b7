// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/kgraph/internal/config"
	"github.com/xkilldash9x/kgraph/internal/llmclient"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

// --- Getters ---

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Database() config.DatabaseConfig {
	args := m.Called()
	return args.Get(0).(config.DatabaseConfig)
}

func (m *MockConfig) LLM() config.LLMModelConfig {
	args := m.Called()
	return args.Get(0).(config.LLMModelConfig)
}

func (m *MockConfig) Fetch() config.FetchConfig {
	args := m.Called()
	return args.Get(0).(config.FetchConfig)
}

func (m *MockConfig) Storage() config.StorageConfig {
	args := m.Called()
	return args.Get(0).(config.StorageConfig)
}

func (m *MockConfig) Graph() config.GraphConfig {
	args := m.Called()
	return args.Get(0).(config.GraphConfig)
}

func (m *MockConfig) Render() config.RenderConfig {
	args := m.Called()
	return args.Get(0).(config.RenderConfig)
}

// --- Setters ---

func (m *MockConfig) SetLLMModel(model string) { m.Called(model) }
func (m *MockConfig) SetStrictNodeIDs(b bool)  { m.Called(b) }
func (m *MockConfig) SetRenderPhysics(b bool)  { m.Called(b) }

var _ config.Interface = (*MockConfig)(nil)

// -- LLM Client Mock --

// MockLLMClient mocks the llmclient.Client interface.
type MockLLMClient struct {
	mock.Mock
}

// Generate provides a mock function for LLM calls.
func (m *MockLLMClient) Generate(ctx context.Context, req llmclient.GenerationRequest) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// Close returns the configured error, or nil when no expectation is set.
func (m *MockLLMClient) Close() error {
	for _, c := range m.ExpectedCalls {
		if c.Method == "Close" {
			return m.Called().Error(0)
		}
	}
	return nil
}

var _ llmclient.Client = (*MockLLMClient)(nil)

// -- Fetcher Mock --

// MockTextFetcher mocks anything that turns a URL into page text.
type MockTextFetcher struct {
	mock.Mock
}

func (m *MockTextFetcher) FetchText(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}
