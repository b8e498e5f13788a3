//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package llm provides a group member backed by an OpenAI compatible chat
// model, optionally equipped with function tools.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"

	"trpc.group/trpc-go/trpc-agent-group/log"
	"trpc.group/trpc-go/trpc-agent-group/member"
	"trpc.group/trpc-go/trpc-agent-group/message"
)

const (
	defaultModel = "gpt-4o-mini"

	toolFollowUp = "Based on the results from the tools, respond to my previous question."
)

// Option configures a Member.
type Option func(*options)

type options struct {
	description   string
	persona       string
	model         string
	tools         []member.Tool
	workingMemory int
	clientOptions []openaiopt.RequestOption
}

// WithDescription sets the short public description.
func WithDescription(d string) Option {
	return func(o *options) { o.description = d }
}

// WithPersona sets the detailed persona placed in the system instructions.
func WithPersona(p string) Option {
	return func(o *options) { o.persona = p }
}

// WithModel sets the chat model.
func WithModel(m string) Option {
	return func(o *options) { o.model = m }
}

// WithTools equips the member with tools.
func WithTools(tools ...member.Tool) Option {
	return func(o *options) { o.tools = append(o.tools, tools...) }
}

// WithWorkingMemory keeps the last n exchanges of the member and shows them
// before every new query. n <= 0 disables it, the default.
func WithWorkingMemory(n int) Option {
	return func(o *options) { o.workingMemory = n }
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

// Member is a model backed group member.
type Member struct {
	info     member.Info
	persona  string
	model    string
	client   openai.Client
	tools    map[string]member.Tool
	toolDefs []openai.ChatCompletionToolParam
	memory   *workingMemory
}

// New creates a model backed member.
func New(name, role string, opts ...Option) (*Member, error) {
	o := options{model: defaultModel}
	for _, opt := range opts {
		opt(&o)
	}
	m := &Member{
		info: member.Info{
			Name:        name,
			Role:        role,
			Description: o.description,
			Tools:       member.ToolNames(o.tools),
		},
		persona: o.persona,
		model:   o.model,
		client:  openai.NewClient(o.clientOptions...),
		tools:   make(map[string]member.Tool, len(o.tools)),
	}
	if o.workingMemory > 0 {
		m.memory = newWorkingMemory(o.workingMemory)
	}
	for _, t := range o.tools {
		decl := t.Declaration()
		params, err := decl.ParametersMap()
		if err != nil {
			return nil, err
		}
		m.tools[decl.Name] = t
		m.toolDefs = append(m.toolDefs, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        decl.Name,
				Description: openai.String(decl.Description),
				Parameters:  openai.FunctionParameters(params),
			},
		})
	}
	return m, nil
}

// Info implements member.Member.
func (m *Member) Info() member.Info {
	return m.info
}

func (m *Member) instructions() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Your Name is :\n %s\n\n", m.info.Name)
	fmt.Fprintf(&b, "## Your Role is :\n %s\n\n", m.info.Role)
	fmt.Fprintf(&b, "## Description:\n %s\n\n", m.info.Description)
	if m.persona != "" {
		fmt.Fprintf(&b, "## Your Persona is :\n %s\n\n", m.persona)
	}
	return b.String()
}

// ResetMemory forgets the remembered exchanges.
func (m *Member) ResetMemory() {
	if m.memory != nil {
		m.memory.reset()
	}
}

// Do implements member.Member. When the model requests tools they are run in
// order and the model is asked once more to answer from their results. With
// working memory the query is prefixed by the recent exchanges and the answer
// is remembered.
func (m *Member) Do(ctx context.Context, prompt string) ([]message.Message, error) {
	query := prompt
	if m.memory != nil {
		query = m.memory.prefix() + prompt
	}
	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(m.instructions()),
		openai.UserMessage(query),
	}
	params := openai.ChatCompletionNewParams{Model: openai.ChatModel(m.model), Messages: msgs}
	if len(m.toolDefs) > 0 {
		params.Tools = m.toolDefs
	}
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("member %s: chat: %w", m.info.Name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("member %s: chat: no choices", m.info.Name)
	}
	reply := resp.Choices[0].Message
	if len(reply.ToolCalls) == 0 {
		return m.answer(prompt, reply.Content), nil
	}

	for _, call := range reply.ToolCalls {
		result, err := m.callTool(ctx, call.Function.Name, call.Function.Arguments)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, openai.AssistantMessage(fmt.Sprintf(
			"By using the tool '%s' with the arguments %s, the result is '%s'.",
			call.Function.Name, call.Function.Arguments, result)))
	}
	log.Debugf("member %s: all tool calls completed", m.info.Name)
	msgs = append(msgs, openai.UserMessage(toolFollowUp))

	resp, err = m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(m.model),
		Messages: msgs,
	})
	if err != nil {
		return nil, fmt.Errorf("member %s: chat after tools: %w", m.info.Name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("member %s: chat after tools: no choices", m.info.Name)
	}
	return m.answer(prompt, resp.Choices[0].Message.Content), nil
}

func (m *Member) answer(prompt, content string) []message.Message {
	if m.memory != nil {
		m.memory.add(prompt, content)
	}
	return []message.Message{message.Talk(m.info.Name, content)}
}

func (m *Member) callTool(ctx context.Context, name, args string) (string, error) {
	t, ok := m.tools[name]
	if !ok {
		return "", fmt.Errorf("member %s: unknown tool %q", m.info.Name, name)
	}
	log.Infof("member %s: tool call [%s] with arguments %s", m.info.Name, name, args)
	out, err := t.Call(ctx, []byte(args))
	if err != nil {
		return "", fmt.Errorf("member %s: tool %s: %w", m.info.Name, name, err)
	}
	if s, ok := out.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprint(out), nil
	}
	return string(b), nil
}
