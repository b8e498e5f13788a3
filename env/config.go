//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package env

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"trpc.group/trpc-go/trpc-agent-group/member"
)

// Member kinds understood by the loader.
const (
	KindLLM = "llm"
	KindA2A = "a2a"
	KindWS  = "ws"
)

// Config is the on-disk form of an Env.
type Config struct {
	Description   string         `yaml:"description"`
	Language      string         `yaml:"language,omitempty"`
	Entry         string         `yaml:"entry,omitempty"`
	Exit          string         `yaml:"exit,omitempty"`
	Members       []MemberConfig `yaml:"members"`
	Relationships *Relationships `yaml:"relationships,omitempty"`
}

// MemberConfig describes how to construct one member.
type MemberConfig struct {
	Name        string `yaml:"name"`
	Role        string `yaml:"role"`
	Description string `yaml:"description,omitempty"`
	Persona     string `yaml:"persona,omitempty"`
	// Kind selects the implementation, llm when empty.
	Kind  string `yaml:"kind,omitempty"`
	Model string `yaml:"model,omitempty"`
	URL   string `yaml:"url,omitempty"`
	// APIKey authenticates remote members. The CLI expands ${VAR}
	// references in it.
	APIKey       string `yaml:"api_key,omitempty"`
	APIKeyHeader string `yaml:"api_key_header,omitempty"`
	// WorkingMemory is how many recent exchanges an llm member keeps.
	WorkingMemory int `yaml:"working_memory,omitempty"`
	// Tools lists MCP servers whose tools an llm member may call.
	Tools []ToolConfig `yaml:"tools,omitempty"`
}

// ToolConfig connects a member to the tools of an MCP server.
type ToolConfig struct {
	// Transport is streamable (default) or stdio.
	Transport string            `yaml:"transport,omitempty"`
	URL       string            `yaml:"url,omitempty"`
	Headers   map[string]string `yaml:"headers,omitempty"`
	Command   string            `yaml:"command,omitempty"`
	Args      []string          `yaml:"args,omitempty"`
	// Include keeps only the named tools when not empty.
	Include []string `yaml:"include,omitempty"`
}

// Factory constructs a member from its configuration.
type Factory func(MemberConfig) (member.Member, error)

// Load reads a YAML environment file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("env: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML environment document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("env: parse: %w", err)
	}
	for i := range cfg.Members {
		if cfg.Members[i].Kind == "" {
			cfg.Members[i].Kind = KindLLM
		}
	}
	return &cfg, nil
}

// Build constructs the Env, creating every member through factory.
func (c *Config) Build(factory Factory) (*Env, error) {
	e := &Env{
		Description:   c.Description,
		Relationships: c.Relationships,
		Language:      c.Language,
		Entry:         c.Entry,
		Exit:          c.Exit,
	}
	for _, mc := range c.Members {
		m, err := factory(mc)
		if err != nil {
			return nil, fmt.Errorf("env: build member %s: %w", mc.Name, err)
		}
		e.Members = append(e.Members, m)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// UnmarshalYAML accepts either a list of two element lists (undirected pairs)
// or a mapping from member to the members it may hand off to.
func (r *Relationships) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var raw [][]string
		if err := node.Decode(&raw); err != nil {
			return err
		}
		for _, p := range raw {
			if len(p) != 2 {
				return fmt.Errorf("%w: relationship pair %v must have two members", ErrInvalidEnv, p)
			}
			r.Pairs = append(r.Pairs, [2]string{p[0], p[1]})
		}
		return nil
	case yaml.MappingNode:
		return node.Decode(&r.Mapping)
	default:
		return fmt.Errorf("%w: relationships must be a list of pairs or a mapping", ErrInvalidEnv)
	}
}

// MarshalYAML writes the form the relationships were given in.
func (r Relationships) MarshalYAML() (any, error) {
	if r.Mapping != nil {
		return r.Mapping, nil
	}
	pairs := make([][]string, len(r.Pairs))
	for i, p := range r.Pairs {
		pairs[i] = []string{p[0], p[1]}
	}
	return pairs, nil
}
