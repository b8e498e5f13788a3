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
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mcpgo "trpc.group/trpc-go/trpc-mcp-go"

	"trpc.group/trpc-go/trpc-agent-group/env"
	"trpc.group/trpc-go/trpc-agent-group/group"
	"trpc.group/trpc-go/trpc-agent-group/handoff"
	"trpc.group/trpc-go/trpc-agent-group/member"
	"trpc.group/trpc-go/trpc-agent-group/member/a2a"
	"trpc.group/trpc-go/trpc-agent-group/member/llm"
	"trpc.group/trpc-go/trpc-agent-group/member/ws"
	"trpc.group/trpc-go/trpc-agent-group/message"
	"trpc.group/trpc-go/trpc-agent-group/oracle"
)

const envFile = `description: a newsroom
entry: researcher
exit: editor
members:
  - name: researcher
    role: Researcher
  - name: writer
    role: Writer
  - name: editor
    role: Editor
relationships:
  researcher: [writer]
  writer: [editor]
`

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, "validate", "--env", writeEnv(t, envFile))
	require.NoError(t, err)
	assert.Contains(t, out, "members: 3")
	assert.Contains(t, out, "structure: SEQUENCE")
	assert.Contains(t, out, "researcher -> writer")
}

func TestValidateFallsBackToCustom(t *testing.T) {
	cfg, err := env.Parse([]byte(`entry: a
exit: c
members: [{name: a, role: A}, {name: b, role: B}, {name: c, role: C}]
relationships: [[a, b], [a, c]]
`))
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, validate(&out, cfg))
	assert.Contains(t, out.String(), "structure: CUSTOM")
	assert.Contains(t, out.String(), "sequence check:")
}

func TestValidateErrors(t *testing.T) {
	cfg, err := env.Parse([]byte(`members: []`))
	require.NoError(t, err)
	require.ErrorIs(t, validate(&bytes.Buffer{}, cfg), env.ErrInvalidEnv)

	cfg, err = env.Parse([]byte(`members: [{name: a}]
relationships: {a: [ghost]}`))
	require.NoError(t, err)
	require.ErrorIs(t, validate(&bytes.Buffer{}, cfg), member.ErrNotFound)
}

func TestOracleConfig(t *testing.T) {
	v := viper.New()
	t.Setenv("AGENTGROUP_ORACLE_PROVIDER", "anthropic")
	t.Setenv("AGENTGROUP_ORACLE_API_KEY", "${TEST_ORACLE_KEY}")
	t.Setenv("TEST_ORACLE_KEY", "secret")
	require.NoError(t, initConfig(v))

	c := oracleConfigFrom(v)
	assert.Equal(t, "anthropic", c.Provider)
	assert.Equal(t, "secret", c.APIKey)
	assert.Equal(t, 3, v.GetInt(keyHandoffMaxTurns))
	assert.Equal(t, ":8080", v.GetString(keyServerAddr))
}

func TestNewOracle(t *testing.T) {
	ctx := context.Background()
	for _, p := range []string{providerOpenAI, providerAnthropic, providerGemini} {
		o, err := newOracle(ctx, oracleConfig{Provider: p, APIKey: "k", Model: "m"})
		require.NoError(t, err, p)
		assert.NotNil(t, o)
	}
	_, err := newOracle(ctx, oracleConfig{Provider: "mystery"})
	require.ErrorIs(t, err, errUnknownProvider)
}

func TestMemberFactory(t *testing.T) {
	t.Setenv("TEST_MEMBER_KEY", "abc")
	b := newMemberBuilder(context.Background(), oracleConfig{Provider: providerOpenAI, APIKey: "k"})
	f := b.build

	m, err := f(env.MemberConfig{Name: "w", Role: "Writer", Kind: env.KindLLM})
	require.NoError(t, err)
	assert.IsType(t, &llm.Member{}, m)
	assert.Equal(t, "w", m.Info().Name)

	m, err = f(env.MemberConfig{Name: "r", Role: "Remote", Kind: env.KindA2A,
		URL: "http://localhost:9999/", APIKey: "${TEST_MEMBER_KEY}"})
	require.NoError(t, err)
	assert.IsType(t, &a2a.Member{}, m)

	m, err = f(env.MemberConfig{Name: "s", Role: "Socket", Kind: env.KindWS, URL: "ws://localhost:9999/"})
	require.NoError(t, err)
	assert.IsType(t, &ws.Member{}, m)

	_, err = f(env.MemberConfig{Name: "x", Kind: "carrier-pigeon"})
	require.Error(t, err)
}

func TestMemberBuilderConnectsTools(t *testing.T) {
	s := mcpgo.NewServer("tools", "1.0.0")
	s.RegisterTool(mcpgo.NewTool("search", mcpgo.WithDescription("Searches the web"),
		mcpgo.WithString("query", mcpgo.Description("search terms"), mcpgo.Required()),
	), func(context.Context, *mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		return mcpgo.NewTextResult("nothing found"), nil
	})
	s.RegisterTool(mcpgo.NewTool("fetch", mcpgo.WithDescription("Fetches a page")),
		func(context.Context, *mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
			return mcpgo.NewTextResult("<html/>"), nil
		})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	b := newMemberBuilder(context.Background(), oracleConfig{Provider: providerOpenAI, APIKey: "k"})
	t.Cleanup(b.close)

	m, err := b.build(env.MemberConfig{Name: "r", Role: "Researcher", Kind: env.KindLLM, WorkingMemory: 3,
		Tools: []env.ToolConfig{{URL: srv.URL + "/mcp", Include: []string{"search"}}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"search"}, m.Info().Tools)
	require.Len(t, b.toolSets, 1)

	_, err = b.build(env.MemberConfig{Name: "x", Role: "Remote", Kind: env.KindA2A, URL: "http://localhost:9999/",
		Tools: []env.ToolConfig{{URL: srv.URL + "/mcp"}}})
	require.Error(t, err)

	_, err = b.build(env.MemberConfig{Name: "y", Role: "Broken", Kind: env.KindLLM,
		Tools: []env.ToolConfig{{Transport: "carrier-pigeon"}}})
	require.ErrorContains(t, err, "unsupported transport")
}

type echo struct{ name string }

func (e *echo) Info() member.Info { return member.Info{Name: e.name, Role: "Echo"} }

func (e *echo) Do(context.Context, string) ([]message.Message, error) {
	return []message.Message{message.Talk(e.name, "ok")}, nil
}

type noOracle struct{}

func (noOracle) Select(context.Context, *oracle.SelectRequest) (string, error) {
	return "", errors.New("unused")
}

func (noOracle) Generate(context.Context, *oracle.GenerateRequest) ([]byte, error) {
	return nil, errors.New("unused")
}

func TestChatLoop(t *testing.T) {
	g, err := group.New(&env.Env{Members: []member.Member{&echo{"a"}, &echo{"b"}}}, noOracle{})
	require.NoError(t, err)

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetIn(strings.NewReader("hello\n\nagain\n/exit\nignored\n"))
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, chatLoop(cmd, g, group.DefaultThread, handoff.ModeOrder))
	assert.Contains(t, out.String(), "[b] ok\n")
	assert.Contains(t, out.String(), "[a] ok\n")
	assert.Len(t, g.Protocol().Context, 4)
}
