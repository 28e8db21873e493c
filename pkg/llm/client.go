package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/sashabaranov/go-openai"
)

// Limiter gates every oracle call by the shared quota
type Limiter interface {
	WaitIfNeeded(ctx context.Context) error
}

// Recorder observes finished oracle calls
type Recorder interface {
	ObserveOracleCall(model string, dur time.Duration, err error)
}

// Request is a single oracle call. Schema is a sample value of the expected answer,
// it is reflected into json schema when the client runs in json schema mode.
type Request struct {
	Model        string
	Temperature  float32
	Instructions []string
	Prompt       string
	Schema       any
	SchemaName   string
}

// Options defines client parameters
type Options struct {
	Endpoint   string
	APIKey     string
	MaxTokens  int
	Timeout    time.Duration
	JSONSchema bool // send json_schema response format, json_object otherwise
	Limiter    Limiter
	Recorder   Recorder
}

// Client calls OpenAI-compatible chat completion endpoint and returns untyped payloads
type Client struct {
	client *openai.Client
	opts   Options
}

// NewClient makes oracle client
func NewClient(opts Options) *Client {
	clientConfig := openai.DefaultConfig(opts.APIKey)
	if opts.Endpoint != "" {
		clientConfig.BaseURL = opts.Endpoint
	}
	return &Client{client: openai.NewClientWithConfig(clientConfig), opts: opts}
}

// Call waits for the rate limiter, sends request and decodes the answer into untyped json payload
func (c *Client) Call(ctx context.Context, req Request) (any, error) {
	if c.opts.Limiter != nil {
		if err := c.opts.Limiter.WaitIfNeeded(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limit: %w", err)
		}
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   c.opts.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: strings.Join(req.Instructions, "\n")},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		ResponseFormat: c.responseFormat(req),
	}

	start := time.Now()
	payload, err := c.complete(ctx, chatReq)
	if c.opts.Recorder != nil {
		c.opts.Recorder.ObserveOracleCall(req.Model, time.Since(start), err)
	}
	return payload, err
}

func (c *Client) complete(ctx context.Context, chatReq openai.ChatCompletionRequest) (any, error) {
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("llm request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from llm")
	}
	payload, err := decodePayload(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("decode llm response: %w", err)
	}
	return payload, nil
}

func (c *Client) responseFormat(req Request) *openai.ChatCompletionResponseFormat {
	if !c.opts.JSONSchema || req.Schema == nil {
		return &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	name := req.SchemaName
	if name == "" {
		name = "response"
	}
	r := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	return &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   name,
			Schema: r.Reflect(req.Schema),
		},
	}
}

// decodePayload parses model answer leniently. Code fences and text around
// the outermost json object or array are ignored.
func decodePayload(content string) (any, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("empty response")
	}

	var payload any
	if err := json.Unmarshal([]byte(content), &payload); err == nil {
		return payload, nil
	}

	content = stripFences(content)
	start := strings.IndexAny(content, "{[")
	if start == -1 {
		return nil, errors.New("no json found in response")
	}
	closing := "}"
	if content[start] == '[' {
		closing = "]"
	}
	end := strings.LastIndex(content, closing)
	if end <= start {
		return nil, errors.New("no json found in response")
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse json: %w", err)
	}
	return payload, nil
}

// marshalPrompt renders v as indented json without html escaping
func marshalPrompt(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.Index(s, "\n"); nl != -1 {
		s = s[nl+1:] // drop language tag
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}
