// Package ai implements the model-completion capability as a
// configuration-driven HTTP provider speaking the chat-completions
// wire format with function calling.
package ai

import (
	"net/http"
	"time"

	"github.com/doeshing/cmdagent/internal/domain"
	"github.com/doeshing/cmdagent/internal/ports"
)

const httpClientTimeout = 120 * time.Second

// Factory creates completion providers from model definitions. A
// single HTTP client is shared across all providers.
type Factory struct {
	httpClient *http.Client
}

// NewFactory creates a provider factory with a configured HTTP client.
func NewFactory() *Factory {
	return &Factory{
		httpClient: &http.Client{Timeout: httpClientTimeout},
	}
}

// ForModel builds a provider for the model definition. All
// provider-specific behavior is driven by the model's APIFormat.
func (f *Factory) ForModel(model domain.ModelDefinition) (ports.CompletionProvider, error) {
	return newHTTPProvider(model, f.httpClient), nil
}

var _ ports.ProviderFactory = (*Factory)(nil)
