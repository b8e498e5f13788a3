//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package mcp exposes the tools of an MCP server as member tools, so a model
// backed member can advertise and call them.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"trpc.group/trpc-go/trpc-agent-group/log"
	"trpc.group/trpc-go/trpc-agent-group/member"
)

// Transports.
const (
	TransportStreamable = "streamable"
	TransportStdio      = "stdio"
)

const defaultTimeout = 30 * time.Second

var clientInfo = mcp.Implementation{
	Name:    "trpc-agent-group",
	Version: "1.0.0",
}

// Config describes how to reach an MCP server.
type Config struct {
	// Transport is streamable (default) or stdio.
	Transport string
	// URL of a streamable HTTP server.
	URL     string
	Headers map[string]string
	// Command and Args start a stdio server.
	Command string
	Args    []string
	Timeout time.Duration
	// Include keeps only the named tools when not empty.
	Include []string
}

// ToolSet is a live connection to an MCP server and the tools it lists.
type ToolSet struct {
	client mcp.Connector
	tools  []member.Tool
}

// Connect opens the session, initializes it and lists the server tools.
func Connect(ctx context.Context, cfg Config) (*ToolSet, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	s := &ToolSet{client: client}
	if err := s.load(ctx, cfg.Include); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			log.Warnf("mcp: close client after failed connect: %v", closeErr)
		}
		return nil, err
	}
	return s, nil
}

func newClient(cfg Config) (mcp.Connector, error) {
	switch cfg.Transport {
	case TransportStreamable, "streamable_http", "":
		if cfg.URL == "" {
			return nil, fmt.Errorf("mcp: url is required for transport %s", TransportStreamable)
		}
		opts := []mcp.ClientOption{mcp.WithClientLogger(mcp.GetDefaultLogger())}
		if len(cfg.Headers) > 0 {
			h := http.Header{}
			for k, v := range cfg.Headers {
				h.Set(k, v)
			}
			opts = append(opts, mcp.WithHTTPHeaders(h))
		}
		c, err := mcp.NewClient(cfg.URL, clientInfo, opts...)
		if err != nil {
			return nil, fmt.Errorf("mcp: create client: %w", err)
		}
		return c, nil
	case TransportStdio:
		if cfg.Command == "" {
			return nil, fmt.Errorf("mcp: command is required for transport %s", TransportStdio)
		}
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		c, err := mcp.NewStdioClient(mcp.StdioTransportConfig{
			ServerParams: mcp.StdioServerParameters{Command: cfg.Command, Args: cfg.Args},
			Timeout:      timeout,
		}, clientInfo)
		if err != nil {
			return nil, fmt.Errorf("mcp: create stdio client: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("mcp: unsupported transport %q, supported: %s, %s",
			cfg.Transport, TransportStreamable, TransportStdio)
	}
}

func (s *ToolSet) load(ctx context.Context, include []string) error {
	initResp, err := s.client.Initialize(ctx, &mcp.InitializeRequest{})
	if err != nil {
		return fmt.Errorf("mcp: initialize: %w", err)
	}
	log.Infof("mcp session initialized with %s %s", initResp.ServerInfo.Name, initResp.ServerInfo.Version)

	listResp, err := s.client.ListTools(ctx, &mcp.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("mcp: list tools: %w", err)
	}
	for _, t := range listResp.Tools {
		if len(include) > 0 && !slices.Contains(include, t.Name) {
			continue
		}
		params, err := inputSchema(t)
		if err != nil {
			return fmt.Errorf("mcp: tool %s: %w", t.Name, err)
		}
		s.tools = append(s.tools, &tool{
			client: s.client,
			decl:   &member.Declaration{Name: t.Name, Description: t.Description, Parameters: params},
		})
	}
	log.Debugf("mcp: %d tools loaded", len(s.tools))
	return nil
}

// inputSchema reads the inputSchema field of the wire form of t.
func inputSchema(t mcp.Tool) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	var wire struct {
		InputSchema json.RawMessage `json:"inputSchema"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}
	if len(wire.InputSchema) == 0 || string(wire.InputSchema) == "null" {
		return nil, nil
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(wire.InputSchema, &s); err != nil {
		return nil, fmt.Errorf("decode input schema: %w", err)
	}
	return &s, nil
}

// Tools returns the listed tools.
func (s *ToolSet) Tools() []member.Tool {
	return slices.Clone(s.tools)
}

// Close ends the session.
func (s *ToolSet) Close() error {
	return s.client.Close()
}

type tool struct {
	client mcp.Connector
	decl   *member.Declaration
}

// Declaration implements member.Tool.
func (t *tool) Declaration() *member.Declaration {
	return t.decl
}

// Call implements member.Tool. Text results are joined by new lines, other
// content is returned in its JSON form.
func (t *tool) Call(ctx context.Context, args []byte) (any, error) {
	var arguments map[string]any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &arguments); err != nil {
			return nil, fmt.Errorf("mcp: tool %s: decode arguments: %w", t.decl.Name, err)
		}
	}
	req := &mcp.CallToolRequest{}
	req.Params.Name = t.decl.Name
	req.Params.Arguments = arguments
	resp, err := t.client.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("mcp: call tool %s: %w", t.decl.Name, err)
	}
	text, err := contentText(resp.Content)
	if err != nil {
		return nil, err
	}
	if resp.IsError {
		return nil, fmt.Errorf("mcp: tool %s returned error: %s", t.decl.Name, text)
	}
	return text, nil
}

func contentText(contents []mcp.Content) (string, error) {
	parts := make([]string, 0, len(contents))
	for _, c := range contents {
		switch tc := c.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
			continue
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
			continue
		}
		b, err := json.Marshal(c)
		if err != nil {
			return "", fmt.Errorf("mcp: encode content: %w", err)
		}
		parts = append(parts, string(b))
	}
	return strings.Join(parts, "\n"), nil
}
