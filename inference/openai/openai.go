// Package openai provides an inference.Processor backed by an OpenAI-style
// chat completion API. Each batch is submitted as one completion request
// that must answer with a JSON array holding one result object per input.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"

	"github.com/shivakharbanda/agent-builder/inference"
	"github.com/shivakharbanda/agent-builder/log"
)

const defaultModel = "gpt-4o-mini"

const systemPrompt = "You are a data-processing agent inside a workflow engine. " +
	"You receive a JSON array of input objects. Process every object and reply " +
	"with a JSON array of the same length, one result object per input, in the " +
	"same order. Reply with the JSON array only."

// Processor implements inference.Processor on top of openai-go.
type Processor struct {
	client      openai.Client
	model       string
	instruction string
}

// Option configures a Processor.
type Option func(*options)

type options struct {
	apiKey      string
	baseURL     string
	model       string
	instruction string
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithBaseURL sets the API base URL, for OpenAI-compatible endpoints.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(o *options) { o.model = model }
}

// WithInstruction sets an extra instruction appended to the system prompt,
// typically the configured agent's own prompt.
func WithInstruction(instruction string) Option {
	return func(o *options) { o.instruction = instruction }
}

// New creates a Processor.
func New(opts ...Option) *Processor {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var clientOpts []openaiopt.RequestOption
	if o.apiKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(o.apiKey))
	}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(o.baseURL))
	}

	model := o.model
	if model == "" {
		model = defaultModel
	}

	return &Processor{
		client:      openai.NewClient(clientOpts...),
		model:       model,
		instruction: o.instruction,
	}
}

// ProcessBatch implements inference.Processor.
func (p *Processor) ProcessBatch(ctx context.Context, req *inference.Request) ([]inference.Result, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	payload, err := json.Marshal(req.Batch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}

	prompt := systemPrompt
	if p.instruction != "" {
		prompt += "\n\n" + p.instruction
	}

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt),
			openai.UserMessage(string(payload)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("agent %d batch call failed: %w", req.AgentID, err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("agent %d returned no choices", req.AgentID)
	}

	results, err := parseResults(completion.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("agent %d returned malformed results: %w", req.AgentID, err)
	}
	if len(results) != len(req.Batch) {
		return nil, fmt.Errorf("agent %d returned %d results for %d inputs",
			req.AgentID, len(results), len(req.Batch))
	}

	log.Debugf("agent %d processed batch of %d records", req.AgentID, len(req.Batch))
	return results, nil
}

// parseResults decodes the model reply, tolerating a fenced code block
// around the JSON array.
func parseResults(content string) ([]inference.Result, error) {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		trimmed = strings.TrimSpace(trimmed)
	}
	var results []inference.Result
	if err := json.Unmarshal([]byte(trimmed), &results); err != nil {
		return nil, err
	}
	return results, nil
}
