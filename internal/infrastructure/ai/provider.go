package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/doeshing/cmdagent/internal/domain"
	"github.com/doeshing/cmdagent/internal/ports"
)

const providerName = "http"

// wireCodec shapes request bodies and decodes response bodies for one
// API wire format. Auth headers and transport are shared; only the
// JSON shapes differ between vendors.
type wireCodec struct {
	buildRequest  func(model domain.ModelDefinition, messages []domain.Message, tool domain.ToolSchema) ([]byte, error)
	parseResponse func(raw []byte) (domain.Completion, error)
}

func codecFor(format domain.APIFormat) wireCodec {
	if format.IsAnthropicWire() {
		return anthropicCodec
	}
	return openaiCodec
}

// httpProvider is a configuration-driven completion client. Request
// shaping (auth headers, system message placement, wire format) comes
// from the model's APIFormat.
type httpProvider struct {
	model      domain.ModelDefinition
	httpClient *http.Client
	codec      wireCodec
}

func newHTTPProvider(model domain.ModelDefinition, client *http.Client) *httpProvider {
	return &httpProvider{
		model:      model,
		httpClient: client,
		codec:      codecFor(model.APIFormat),
	}
}

func (p *httpProvider) Name() string {
	return providerName
}

// Complete implements ports.CompletionProvider. Transient failures
// (429, 5xx, network errors) are retried with capped exponential
// backoff; anything else surfaces immediately.
func (p *httpProvider) Complete(ctx context.Context, messages []domain.Message, tool domain.ToolSchema) (domain.Completion, error) {
	body, err := p.codec.buildRequest(p.model, messages, tool)
	if err != nil {
		return domain.Completion{}, fmt.Errorf("build request: %w", err)
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))

	var completion domain.Completion
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, err := p.complete(ctx, body)
		if err != nil {
			return err
		}
		completion = c
		return nil
	})
	if err != nil {
		return domain.Completion{}, err
	}
	return completion, nil
}

func (p *httpProvider) complete(ctx context.Context, body []byte) (domain.Completion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.model.Endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Completion{}, fmt.Errorf("create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := p.setAuthHeaders(req); err != nil {
		return domain.Completion{}, err
	}
	for key, value := range p.model.APIFormat.ExtraHeaders {
		req.Header.Set(key, value)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domain.Completion{}, retry.RetryableError(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Completion{}, retry.RetryableError(fmt.Errorf("read response body: %w", err))
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return domain.Completion{}, retry.RetryableError(fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status))
	}
	if resp.StatusCode >= 400 {
		return domain.Completion{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(raw))
	}

	return p.codec.parseResponse(raw)
}

func (p *httpProvider) setAuthHeaders(req *http.Request) error {
	apiKey := ""
	if p.model.AuthEnvVar != "" {
		apiKey = os.Getenv(p.model.AuthEnvVar)
	}
	if apiKey == "" {
		return fmt.Errorf("missing API key: set %s environment variable", p.model.AuthEnvVar)
	}
	format := p.model.APIFormat
	req.Header.Set(format.GetAuthHeaderName(), format.GetAuthHeaderPrefix()+apiKey)
	return nil
}

var _ ports.CompletionProvider = (*httpProvider)(nil)
