// Package domain defines the core entities and value objects of the
// command-execution engine. It is independent of infrastructure
// concerns and carries no imports beyond the standard library.
package domain

// ModelDefinition describes one completion provider endpoint declared
// in the config file, including how to authenticate against it and how
// to shape requests and parse responses.
type ModelDefinition struct {
	Name       string    `yaml:"name"`
	Endpoint   string    `yaml:"endpoint"`
	AuthEnvVar string    `yaml:"auth_env_var"`
	ModelID    string    `yaml:"model_id"`
	MaxTokens  int       `yaml:"max_tokens"`
	APIFormat  APIFormat `yaml:"api_format,omitempty"`
}

// APIFormat defines how to construct requests and parse responses for
// different chat-completion APIs. All fields are optional with
// OpenAI-compatible defaults.
type APIFormat struct {
	// AuthHeaderName is the HTTP header carrying the API key.
	// Default "Authorization".
	AuthHeaderName string `yaml:"auth_header_name,omitempty"`

	// AuthHeaderPrefix is prepended to the key value. Default
	// "Bearer "; providers using a bare key header (e.g. x-api-key)
	// leave it empty.
	AuthHeaderPrefix string `yaml:"auth_header_prefix,omitempty"`

	// SystemMessageMode is "inline" (system turns stay in the
	// messages array, default) or "separate" (a top-level system
	// field, Anthropic style).
	SystemMessageMode string `yaml:"system_message_mode,omitempty"`

	// WireFormat selects the request and response body shapes:
	// "openai" (chat completions with function calling, default) or
	// "anthropic" (the /v1/messages content-block format).
	WireFormat string `yaml:"wire_format,omitempty"`

	// ExtraHeaders are sent verbatim with every request.
	ExtraHeaders map[string]string `yaml:"extra_headers,omitempty"`
}

const (
	DefaultAuthHeaderName   = "Authorization"
	DefaultAuthHeaderPrefix = "Bearer "

	SystemMessageModeInline   = "inline"
	SystemMessageModeSeparate = "separate"

	WireFormatOpenAI    = "openai"
	WireFormatAnthropic = "anthropic"
)

// GetAuthHeaderName returns the auth header name with default fallback.
func (f APIFormat) GetAuthHeaderName() string {
	if f.AuthHeaderName == "" {
		return DefaultAuthHeaderName
	}
	return f.AuthHeaderName
}

// GetAuthHeaderPrefix returns the auth header prefix. A customized
// header name with an empty prefix is intentional (x-api-key style).
func (f APIFormat) GetAuthHeaderPrefix() string {
	if f.AuthHeaderName != "" && f.AuthHeaderPrefix == "" {
		return ""
	}
	if f.AuthHeaderPrefix == "" {
		return DefaultAuthHeaderPrefix
	}
	return f.AuthHeaderPrefix
}

// IsSystemMessageSeparate reports whether system turns go in a
// separate top-level field.
func (f APIFormat) IsSystemMessageSeparate() bool {
	return f.SystemMessageMode == SystemMessageModeSeparate
}

// IsAnthropicWire reports whether request and response bodies use the
// Anthropic messages format instead of OpenAI chat completions.
func (f APIFormat) IsAnthropicWire() bool {
	return f.WireFormat == WireFormatAnthropic
}
