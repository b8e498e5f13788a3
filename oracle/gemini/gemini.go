//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package gemini implements the decision oracle on the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"net/http"

	"github.com/invopop/jsonschema"
	"google.golang.org/genai"

	"trpc.group/trpc-go/trpc-agent-group/oracle"
)

const defaultModel = "gemini-2.0-flash"

// Option configures the oracle.
type Option func(*options)

type options struct {
	model       string
	apiKey      string
	baseURL     string
	temperature float32
	httpClient  *http.Client
}

// WithModel sets the default model.
func WithModel(model string) Option {
	return func(o *options) { o.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithBaseURL points the client at a custom endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithTemperature sets the sampling temperature, 0 by default.
func WithTemperature(t float32) Option {
	return func(o *options) { o.temperature = t }
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// Oracle is a Gemini backed decision oracle.
type Oracle struct {
	client *genai.Client
	opts   options
}

// New creates the oracle.
func New(ctx context.Context, opts ...Option) (*Oracle, error) {
	o := options{model: defaultModel}
	for _, opt := range opts {
		opt(&o)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      o.apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  o.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: o.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Oracle{client: client, opts: o}, nil
}

func (o *Oracle) config(system string) *genai.GenerateContentConfig {
	t := o.opts.temperature
	cfg := &genai.GenerateContentConfig{Temperature: &t}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return cfg
}

func (o *Oracle) model(override string) string {
	if override != "" {
		return override
	}
	return o.opts.model
}

// Select implements oracle.Oracle.
func (o *Oracle) Select(ctx context.Context, req *oracle.SelectRequest) (string, error) {
	if len(req.Candidates) == 0 {
		return "", oracle.ErrNoCandidates
	}
	if req.Mode == oracle.SelectByEnum {
		set := oracle.CandidateSet(req.Candidates)
		out, err := o.structured(ctx, req.Model, req.System, req.Prompt, oracle.ChoiceSchema(set), 0)
		if err != nil {
			return "", fmt.Errorf("gemini: select: %w", err)
		}
		return oracle.DecodeChoice(out, set)
	}

	cfg := o.config(req.System)
	toolNames := oracle.NewToolNames(req.Candidates)
	decls := make([]*genai.FunctionDeclaration, len(req.Candidates))
	names := make([]string, len(req.Candidates))
	for i, c := range req.Candidates {
		names[i] = toolNames.Name(i)
		decls[i] = &genai.FunctionDeclaration{Name: names[i], Description: toolNames.Description(i, c)}
	}
	cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	cfg.ToolConfig = &genai.ToolConfig{FunctionCallingConfig: &genai.FunctionCallingConfig{
		Mode:                 genai.FunctionCallingConfigModeAny,
		AllowedFunctionNames: names,
	}}
	resp, err := o.client.Models.GenerateContent(ctx, o.model(req.Model),
		[]*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: select: %w", err)
	}
	calls := resp.FunctionCalls()
	if len(calls) == 0 {
		return "", oracle.ErrEmptyResponse
	}
	return toolNames.Resolve(calls[0].Name)
}

// Generate implements oracle.Oracle.
func (o *Oracle) Generate(ctx context.Context, req *oracle.GenerateRequest) ([]byte, error) {
	out, err := o.structured(ctx, req.Model, req.System, req.Prompt, req.Schema, req.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate %s: %w", req.Name, err)
	}
	return out, nil
}

func (o *Oracle) structured(
	ctx context.Context, model, system, prompt string, schema *jsonschema.Schema, maxTokens int64,
) ([]byte, error) {
	cfg := o.config(system)
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseSchema = Schema(schema)
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}
	resp, err := o.client.Models.GenerateContent(ctx, o.model(model),
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, cfg)
	if err != nil {
		return nil, err
	}
	text := resp.Text()
	if text == "" {
		return nil, oracle.ErrEmptyResponse
	}
	return []byte(text), nil
}

// Schema converts a JSON schema into the OpenAPI subset Gemini accepts.
// Keywords without a Gemini counterpart are dropped.
func Schema(s *jsonschema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{Description: s.Description}
	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
	case "array":
		out.Type = genai.TypeArray
	case "boolean":
		out.Type = genai.TypeBoolean
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	default:
		out.Type = genai.TypeString
	}
	for _, e := range s.Enum {
		out.Enum = append(out.Enum, fmt.Sprint(e))
	}
	if len(out.Enum) > 0 {
		out.Format = "enum"
	}
	if s.Items != nil {
		out.Items = Schema(s.Items)
	}
	if s.Properties != nil {
		out.Properties = make(map[string]*genai.Schema, s.Properties.Len())
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			out.Properties[pair.Key] = Schema(pair.Value)
			out.PropertyOrdering = append(out.PropertyOrdering, pair.Key)
		}
	}
	out.Required = append(out.Required, s.Required...)
	return out
}
