//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package openai implements the decision oracle on OpenAI compatible chat
// completion APIs.
package openai

import (
	"context"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"trpc.group/trpc-go/trpc-agent-group/oracle"
)

const (
	defaultModel = "gpt-4o-mini"
	// selectBaseTokens covers the JSON framing of a structured selection.
	selectBaseTokens = 32
)

// Option configures the oracle.
type Option func(*options)

type options struct {
	model         string
	temperature   float64
	clientOptions []openaiopt.RequestOption
}

// WithModel sets the default model.
func WithModel(model string) Option {
	return func(o *options) { o.model = model }
}

// WithTemperature sets the sampling temperature, 0 by default.
func WithTemperature(t float64) Option {
	return func(o *options) { o.temperature = t }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(o *options) { o.clientOptions = append(o.clientOptions, openaiopt.WithAPIKey(key)) }
}

// WithBaseURL points the client at an OpenAI compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) { o.clientOptions = append(o.clientOptions, openaiopt.WithBaseURL(url)) }
}

// WithOpenAIOptions appends raw client options.
func WithOpenAIOptions(opts ...openaiopt.RequestOption) Option {
	return func(o *options) { o.clientOptions = append(o.clientOptions, opts...) }
}

// Oracle is an OpenAI backed decision oracle.
type Oracle struct {
	client openai.Client
	opts   options
}

// New creates the oracle. Retries are left to the caller, the client does not
// retry on its own.
func New(opts ...Option) *Oracle {
	o := options{model: defaultModel}
	for _, opt := range opts {
		opt(&o)
	}
	clientOpts := append([]openaiopt.RequestOption{openaiopt.WithMaxRetries(0)}, o.clientOptions...)
	return &Oracle{client: openai.NewClient(clientOpts...), opts: o}
}

func (o *Oracle) model(override string) shared.ChatModel {
	if override != "" {
		return shared.ChatModel(override)
	}
	return shared.ChatModel(o.opts.model)
}

func messages(system, prompt string) []openai.ChatCompletionMessageParamUnion {
	var msgs []openai.ChatCompletionMessageParamUnion
	if system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	return append(msgs, openai.UserMessage(prompt))
}

// Select implements oracle.Oracle.
func (o *Oracle) Select(ctx context.Context, req *oracle.SelectRequest) (string, error) {
	if len(req.Candidates) == 0 {
		return "", oracle.ErrNoCandidates
	}
	if req.Mode == oracle.SelectByEnum {
		return o.selectByEnum(ctx, req)
	}
	return o.selectByTool(ctx, req)
}

func (o *Oracle) selectByTool(ctx context.Context, req *oracle.SelectRequest) (string, error) {
	names := oracle.NewToolNames(req.Candidates)
	tools := make([]openai.ChatCompletionToolParam, len(req.Candidates))
	for i, c := range req.Candidates {
		tools[i] = openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        names.Name(i),
				Description: openai.String(names.Description(i, c)),
				Parameters: openai.FunctionParameters{
					"type":       "object",
					"properties": map[string]any{},
					"required":   []string{},
				},
			},
		}
	}
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       o.model(req.Model),
		Messages:    messages(req.System, req.Prompt),
		Temperature: openai.Float(o.opts.temperature),
		Tools:       tools,
		ToolChoice:  openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("required")},
	})
	if err != nil {
		return "", fmt.Errorf("openai: select: %w", err)
	}
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return "", oracle.ErrEmptyResponse
	}
	return names.Resolve(resp.Choices[0].Message.ToolCalls[0].Function.Name)
}

func (o *Oracle) selectByEnum(ctx context.Context, req *oracle.SelectRequest) (string, error) {
	set := oracle.CandidateSet(req.Candidates)
	out, err := o.complete(ctx, req.Model, req.System, req.Prompt, "NextSpeaker",
		"the next member to talk", oracle.ChoiceSchema(set), selectMaxTokens(set))
	if err != nil {
		return "", fmt.Errorf("openai: select: %w", err)
	}
	return oracle.DecodeChoice(out, set)
}

// selectMaxTokens leaves room for the longest legal answer. A token never
// spans less than one byte of output.
func selectMaxTokens(set *oracle.ClosedSet) int64 {
	longest := 0
	for _, v := range set.Values() {
		longest = max(longest, len(v))
	}
	return int64(selectBaseTokens + longest)
}

// Generate implements oracle.Oracle.
func (o *Oracle) Generate(ctx context.Context, req *oracle.GenerateRequest) ([]byte, error) {
	out, err := o.complete(ctx, req.Model, req.System, req.Prompt, req.Name, req.Description, req.Schema, req.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("openai: generate %s: %w", req.Name, err)
	}
	return out, nil
}

func (o *Oracle) complete(
	ctx context.Context, model, system, prompt, name, description string, schema *jsonschema.Schema, maxTokens int64,
) ([]byte, error) {
	schemaMap, err := oracle.SchemaMap(schema)
	if err != nil {
		return nil, err
	}
	params := openai.ChatCompletionNewParams{
		Model:       o.model(model),
		Messages:    messages(system, prompt),
		Temperature: openai.Float(o.opts.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        name,
					Description: openai.String(description),
					Schema:      schemaMap,
					Strict:      openai.Bool(true),
				},
			},
		},
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(maxTokens)
	}
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, oracle.ErrEmptyResponse
	}
	return []byte(resp.Choices[0].Message.Content), nil
}
