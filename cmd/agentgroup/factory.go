//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/viper"

	"trpc.group/trpc-go/trpc-agent-group/env"
	"trpc.group/trpc-go/trpc-agent-group/group"
	"trpc.group/trpc-go/trpc-agent-group/log"
	"trpc.group/trpc-go/trpc-agent-group/member"
	"trpc.group/trpc-go/trpc-agent-group/member/a2a"
	"trpc.group/trpc-go/trpc-agent-group/member/llm"
	"trpc.group/trpc-go/trpc-agent-group/member/mcp"
	"trpc.group/trpc-go/trpc-agent-group/member/ws"
	"trpc.group/trpc-go/trpc-agent-group/oracle"
	"trpc.group/trpc-go/trpc-agent-group/oracle/anthropic"
	"trpc.group/trpc-go/trpc-agent-group/oracle/gemini"
	"trpc.group/trpc-go/trpc-agent-group/oracle/openai"
	"trpc.group/trpc-go/trpc-agent-group/telemetry/metric"
	"trpc.group/trpc-go/trpc-agent-group/telemetry/trace"
)

// Oracle providers.
const (
	providerOpenAI    = "openai"
	providerAnthropic = "anthropic"
	providerGemini    = "gemini"
)

var errUnknownProvider = errors.New("unknown oracle provider")

// oracleConfig selects and configures the decision oracle.
type oracleConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

func oracleConfigFrom(v *viper.Viper) oracleConfig {
	return oracleConfig{
		Provider: v.GetString(keyOracleProvider),
		Model:    v.GetString(keyOracleModel),
		APIKey:   os.ExpandEnv(v.GetString(keyOracleAPIKey)),
		BaseURL:  v.GetString(keyOracleBaseURL),
	}
}

// newOracle builds the configured provider wrapped with telemetry.
func newOracle(ctx context.Context, c oracleConfig) (oracle.Oracle, error) {
	var o oracle.Oracle
	switch c.Provider {
	case providerOpenAI, "":
		var opts []openai.Option
		if c.Model != "" {
			opts = append(opts, openai.WithModel(c.Model))
		}
		if c.APIKey != "" {
			opts = append(opts, openai.WithAPIKey(c.APIKey))
		}
		if c.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(c.BaseURL))
		}
		o = openai.New(opts...)
	case providerAnthropic:
		var opts []anthropic.Option
		if c.Model != "" {
			opts = append(opts, anthropic.WithModel(c.Model))
		}
		if c.APIKey != "" {
			opts = append(opts, anthropic.WithAPIKey(c.APIKey))
		}
		if c.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(c.BaseURL))
		}
		o = anthropic.New(opts...)
	case providerGemini:
		opts := []gemini.Option{gemini.WithHTTPClient(http.DefaultClient)}
		if c.Model != "" {
			opts = append(opts, gemini.WithModel(c.Model))
		}
		if c.APIKey != "" {
			opts = append(opts, gemini.WithAPIKey(c.APIKey))
		}
		if c.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(c.BaseURL))
		}
		g, err := gemini.New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		o = g
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownProvider, c.Provider)
	}
	return oracle.Instrument(o, c.Provider), nil
}

// memberBuilder builds members by kind and owns the MCP sessions their
// tools use. Model backed members talk to the OpenAI compatible endpoint of
// the oracle config unless they name their own.
type memberBuilder struct {
	ctx      context.Context
	oracle   oracleConfig
	toolSets []*mcp.ToolSet
}

func newMemberBuilder(ctx context.Context, c oracleConfig) *memberBuilder {
	return &memberBuilder{ctx: ctx, oracle: c}
}

func (b *memberBuilder) build(mc env.MemberConfig) (member.Member, error) {
	apiKey := os.ExpandEnv(mc.APIKey)
	if len(mc.Tools) > 0 && mc.Kind != env.KindLLM && mc.Kind != "" {
		return nil, fmt.Errorf("member %s: tools need kind %s, got %s", mc.Name, env.KindLLM, mc.Kind)
	}
	switch mc.Kind {
	case env.KindLLM, "":
		tools, err := b.connectTools(mc.Tools)
		if err != nil {
			return nil, fmt.Errorf("member %s: %w", mc.Name, err)
		}
		opts := []llm.Option{
			llm.WithDescription(mc.Description),
			llm.WithPersona(mc.Persona),
			llm.WithTools(tools...),
			llm.WithWorkingMemory(mc.WorkingMemory),
		}
		if mc.Model != "" {
			opts = append(opts, llm.WithModel(mc.Model))
		}
		if apiKey == "" && b.oracle.Provider == providerOpenAI {
			apiKey = b.oracle.APIKey
		}
		if apiKey != "" {
			opts = append(opts, llm.WithAPIKey(apiKey))
		}
		if mc.URL != "" {
			opts = append(opts, llm.WithBaseURL(mc.URL))
		} else if b.oracle.BaseURL != "" && b.oracle.Provider == providerOpenAI {
			opts = append(opts, llm.WithBaseURL(b.oracle.BaseURL))
		}
		m, err := llm.New(mc.Name, mc.Role, opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	case env.KindA2A:
		opts := []a2a.Option{a2a.WithDescription(mc.Description)}
		if apiKey != "" {
			header := mc.APIKeyHeader
			if header == "" {
				header = "X-API-Key"
			}
			opts = append(opts, a2a.WithAPIKey(apiKey, header))
		}
		m, err := a2a.New(mc.Name, mc.Role, mc.URL, opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	case env.KindWS:
		opts := []ws.Option{ws.WithDescription(mc.Description)}
		if apiKey != "" {
			header := mc.APIKeyHeader
			if header == "" {
				header = "Authorization"
			}
			opts = append(opts, ws.WithHeader(http.Header{header: []string{apiKey}}))
		}
		return ws.New(mc.Name, mc.Role, mc.URL, opts...), nil
	default:
		return nil, fmt.Errorf("unknown member kind %q", mc.Kind)
	}
}

// connectTools opens one MCP session per config. Header values may carry
// ${VAR} references.
func (b *memberBuilder) connectTools(cfgs []env.ToolConfig) ([]member.Tool, error) {
	var tools []member.Tool
	for _, tc := range cfgs {
		headers := make(map[string]string, len(tc.Headers))
		for k, v := range tc.Headers {
			headers[k] = os.ExpandEnv(v)
		}
		set, err := mcp.Connect(b.ctx, mcp.Config{
			Transport: tc.Transport,
			URL:       tc.URL,
			Headers:   headers,
			Command:   tc.Command,
			Args:      tc.Args,
			Include:   tc.Include,
		})
		if err != nil {
			return nil, err
		}
		b.toolSets = append(b.toolSets, set)
		tools = append(tools, set.Tools()...)
	}
	return tools, nil
}

func (b *memberBuilder) close() {
	for _, set := range b.toolSets {
		if err := set.Close(); err != nil {
			log.Warnf("close mcp session: %v", err)
		}
	}
	b.toolSets = nil
}

// buildGroup loads the env file and creates the group. The returned clean
// function closes MCP sessions and flushes telemetry.
func buildGroup(ctx context.Context, v *viper.Viper) (*group.Group, func(), error) {
	clean, err := startTelemetry(ctx, v)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := env.Load(v.GetString(keyEnv))
	if err != nil {
		clean()
		return nil, nil, err
	}
	oc := oracleConfigFrom(v)
	o, err := newOracle(ctx, oc)
	if err != nil {
		clean()
		return nil, nil, err
	}
	builder := newMemberBuilder(ctx, oc)
	stop := func() {
		builder.close()
		clean()
	}
	e, err := cfg.Build(builder.build)
	if err != nil {
		stop()
		return nil, nil, err
	}
	opts := []group.Option{
		group.WithModel(oc.Model),
		group.WithPlanningModel(v.GetString(keyPlanningModel)),
		group.WithHandoffMaxTurns(v.GetInt(keyHandoffMaxTurns)),
		group.WithMessageCutOff(v.GetInt(keyMessageCutOff)),
	}
	if dir := v.GetString(keyWorkspace); dir != "" {
		opts = append(opts, group.WithWorkspace(dir))
	}
	g, err := group.New(e, o, opts...)
	if err != nil {
		stop()
		return nil, nil, err
	}
	return g, stop, nil
}

// startTelemetry exports traces and metrics when telemetry.endpoint is set.
func startTelemetry(ctx context.Context, v *viper.Viper) (func(), error) {
	endpoint := v.GetString(keyTelemetryEndpoint)
	if endpoint == "" {
		return func() {}, nil
	}
	protocol := v.GetString(keyTelemetryProtocol)
	stopTrace, err := trace.Start(ctx, trace.WithEndpoint(endpoint), trace.WithProtocol(protocol))
	if err != nil {
		return nil, fmt.Errorf("start tracing: %w", err)
	}
	mp, err := metric.NewMeterProvider(ctx, metric.WithEndpoint(endpoint), metric.WithProtocol(protocol))
	if err != nil {
		_ = stopTrace()
		return nil, fmt.Errorf("start metrics: %w", err)
	}
	if err := metric.InitMeterProvider(mp); err != nil {
		_ = stopTrace()
		return nil, err
	}
	return func() {
		if err := stopTrace(); err != nil {
			log.Warnf("stop tracing: %v", err)
		}
		if err := mp.Shutdown(context.Background()); err != nil {
			log.Warnf("stop metrics: %v", err)
		}
	}, nil
}
