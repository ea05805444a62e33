// ABOUTME: OpenAI client for structured-output chat completions
// ABOUTME: Adds retries with backoff, per-attempt timeouts and request throttling
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"golang.org/x/time/rate"

	"github.com/harper/pedagogy/internal/util"
)

const (
	// DefaultChatModel is the default model for all oracle calls
	DefaultChatModel = "gpt-4o"
)

// ErrEmptyResponse is returned when the API answers without a usable choice
var ErrEmptyResponse = errors.New("no completion choices returned")

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	// RateLimit is requests per second; zero disables throttling
	RateLimit float64
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:     apiKey,
		ChatModel:  DefaultChatModel,
		Timeout:    120 * time.Second,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	}
}

// OpenAIClient wraps the OpenAI API client with retry logic
type OpenAIClient struct {
	client     *openai.Client
	chatModel  string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	limiter    *rate.Limiter
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	apiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		apiConfig.BaseURL = config.BaseURL
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}

	model := config.ChatModel
	if model == "" {
		model = DefaultChatModel
	}

	return &OpenAIClient{
		client:     openai.NewClientWithConfig(apiConfig),
		chatModel:  model,
		timeout:    config.Timeout,
		maxRetries: config.MaxRetries,
		retryDelay: config.RetryDelay,
		limiter:    rate.NewLimiter(limit, 1),
	}, nil
}

// Model returns the chat model used for completions
func (c *OpenAIClient) Model() string {
	return c.chatModel
}

// CompleteJSON sends prompt as a single user message and decodes the reply
// into out. The response is constrained by a strict JSON schema generated
// from out's type.
func (c *OpenAIClient) CompleteJSON(ctx context.Context, schemaName, prompt string, out any) error {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return fmt.Errorf("%s: output must be a non-nil pointer", schemaName)
	}
	schema, err := jsonschema.GenerateSchemaForType(target.Elem().Interface())
	if err != nil {
		return fmt.Errorf("failed to build %s schema: %w", schemaName, err)
	}

	req := openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: schema,
				Strict: true,
			},
		},
	}

	err = util.Retry(ctx, c.maxRetries, c.retryDelay, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		attemptCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		resp, err := c.client.CreateChatCompletion(attemptCtx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return ErrEmptyResponse
		}
		if refusal := resp.Choices[0].Message.Refusal; refusal != "" {
			return fmt.Errorf("model refused: %s", refusal)
		}

		if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), out); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s completion: %w", schemaName, err)
	}
	return nil
}
