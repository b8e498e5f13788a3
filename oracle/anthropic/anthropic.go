//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package anthropic implements the decision oracle on the Anthropic Messages
// API. Both selection modes and structured generation are expressed as
// forced tool use.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/invopop/jsonschema"

	"trpc.group/trpc-go/trpc-agent-group/oracle"
)

const (
	defaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 1024
)

// Option configures the oracle.
type Option func(*options)

type options struct {
	model         string
	maxTokens     int64
	temperature   float64
	clientOptions []anthropicopt.RequestOption
}

// WithModel sets the default model.
func WithModel(model string) Option {
	return func(o *options) { o.model = model }
}

// WithMaxTokens sets the default completion budget.
func WithMaxTokens(n int64) Option {
	return func(o *options) { o.maxTokens = n }
}

// WithTemperature sets the sampling temperature, 0 by default.
func WithTemperature(t float64) Option {
	return func(o *options) { o.temperature = t }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(o *options) { o.clientOptions = append(o.clientOptions, anthropicopt.WithAPIKey(key)) }
}

// WithBaseURL points the client at a custom endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) { o.clientOptions = append(o.clientOptions, anthropicopt.WithBaseURL(url)) }
}

// WithAnthropicOptions appends raw client options.
func WithAnthropicOptions(opts ...anthropicopt.RequestOption) Option {
	return func(o *options) { o.clientOptions = append(o.clientOptions, opts...) }
}

// Oracle is an Anthropic backed decision oracle.
type Oracle struct {
	client anthropic.Client
	opts   options
}

// New creates the oracle. The client itself never retries.
func New(opts ...Option) *Oracle {
	o := options{model: defaultModel, maxTokens: defaultMaxTokens}
	for _, opt := range opts {
		opt(&o)
	}
	clientOpts := append([]anthropicopt.RequestOption{anthropicopt.WithMaxRetries(0)}, o.clientOptions...)
	return &Oracle{client: anthropic.NewClient(clientOpts...), opts: o}
}

func (o *Oracle) params(model, system, prompt string, maxTokens int64) anthropic.MessageNewParams {
	if model == "" {
		model = o.opts.model
	}
	if maxTokens <= 0 {
		maxTokens = o.opts.maxTokens
	}
	p := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(o.opts.temperature),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
	}
	if system != "" {
		p.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return p
}

// Select implements oracle.Oracle.
func (o *Oracle) Select(ctx context.Context, req *oracle.SelectRequest) (string, error) {
	if len(req.Candidates) == 0 {
		return "", oracle.ErrNoCandidates
	}
	if req.Mode == oracle.SelectByEnum {
		set := oracle.CandidateSet(req.Candidates)
		out, err := o.forceTool(ctx, o.params(req.Model, req.System, req.Prompt, 0),
			"NextSpeaker", "the next member to talk", oracle.ChoiceSchema(set))
		if err != nil {
			return "", fmt.Errorf("anthropic: select: %w", err)
		}
		return oracle.DecodeChoice(out, set)
	}

	names := oracle.NewToolNames(req.Candidates)
	p := o.params(req.Model, req.System, req.Prompt, 0)
	p.Tools = make([]anthropic.ToolUnionParam, len(req.Candidates))
	for i, c := range req.Candidates {
		p.Tools[i] = anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        names.Name(i),
			Description: anthropic.String(names.Description(i, c)),
			InputSchema: anthropic.ToolInputSchemaParam{Properties: map[string]any{}},
		}}
	}
	p.ToolChoice = anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}
	msg, err := o.client.Messages.New(ctx, p)
	if err != nil {
		return "", fmt.Errorf("anthropic: select: %w", err)
	}
	for _, block := range msg.Content {
		if block.Type == "tool_use" {
			return names.Resolve(block.Name)
		}
	}
	return "", oracle.ErrEmptyResponse
}

// Generate implements oracle.Oracle.
func (o *Oracle) Generate(ctx context.Context, req *oracle.GenerateRequest) ([]byte, error) {
	out, err := o.forceTool(ctx, o.params(req.Model, req.System, req.Prompt, req.MaxTokens),
		req.Name, req.Description, req.Schema)
	if err != nil {
		return nil, fmt.Errorf("anthropic: generate %s: %w", req.Name, err)
	}
	return out, nil
}

// forceTool declares a single tool shaped by schema, forces the model to call
// it and returns the call input.
func (o *Oracle) forceTool(
	ctx context.Context, p anthropic.MessageNewParams, name, description string, schema *jsonschema.Schema,
) ([]byte, error) {
	wrapped := schema != nil && schema.Type != "object"
	input, err := inputSchema(schema)
	if err != nil {
		return nil, err
	}
	p.Tools = []anthropic.ToolUnionParam{{OfTool: &anthropic.ToolParam{
		Name:        name,
		Description: anthropic.String(description),
		InputSchema: input,
	}}}
	p.ToolChoice = anthropic.ToolChoiceUnionParam{OfTool: &anthropic.ToolChoiceToolParam{Name: name}}
	msg, err := o.client.Messages.New(ctx, p)
	if err != nil {
		return nil, err
	}
	for _, block := range msg.Content {
		if block.Type != "tool_use" || block.Name != name || len(block.Input) == 0 {
			continue
		}
		if !wrapped {
			return []byte(block.Input), nil
		}
		var v struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(block.Input, &v); err != nil {
			return nil, fmt.Errorf("decode tool input: %w", err)
		}
		if len(v.Value) == 0 {
			return nil, oracle.ErrEmptyResponse
		}
		return []byte(v.Value), nil
	}
	return nil, oracle.ErrEmptyResponse
}

// inputSchema maps an object schema onto the tool input shape. Non object
// schemas are wrapped under a single "value" property.
func inputSchema(schema *jsonschema.Schema) (anthropic.ToolInputSchemaParam, error) {
	if schema == nil {
		return anthropic.ToolInputSchemaParam{Properties: map[string]any{}}, nil
	}
	if schema.Type != "object" {
		schema = oracle.Object(oracle.Property{Name: "value", Schema: schema})
	}
	m, err := oracle.SchemaMap(schema)
	if err != nil {
		return anthropic.ToolInputSchemaParam{}, err
	}
	in := anthropic.ToolInputSchemaParam{Properties: m["properties"]}
	if req, ok := m["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				in.Required = append(in.Required, s)
			}
		}
	}
	if ap, ok := m["additionalProperties"]; ok {
		in.ExtraFields = map[string]any{"additionalProperties": ap}
	}
	return in, nil
}
