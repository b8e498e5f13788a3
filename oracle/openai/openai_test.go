//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agent-group/oracle"
)

type capture struct {
	body map[string]any
}

func newServer(t *testing.T, c *capture, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(raw, &c.body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func completion(message string) string {
	return `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
"choices":[{"index":0,"finish_reason":"stop","logprobs":null,"message":` + message + `}]}`
}

var candidates = []oracle.Candidate{
	{Name: "writer", Description: "writes (Writer)"},
	{Name: "editor", Description: "edits (Editor)"},
}

func TestSelectByTool(t *testing.T) {
	c := &capture{}
	srv := newServer(t, c, completion(`{"role":"assistant","content":null,"refusal":null,
"tool_calls":[{"id":"call_1","type":"function","function":{"name":"editor","arguments":"{}"}}]}`))

	o := New(WithAPIKey("test"), WithBaseURL(srv.URL+"/"), WithModel("gpt-test"))
	name, err := o.Select(context.Background(), &oracle.SelectRequest{
		System:     "Decide who talks next.",
		Prompt:     "### Messages",
		Candidates: candidates,
		Mode:       oracle.SelectByTool,
	})
	require.NoError(t, err)
	assert.Equal(t, "editor", name)

	assert.Equal(t, "gpt-test", c.body["model"])
	assert.Equal(t, "required", c.body["tool_choice"])
	tools := c.body["tools"].([]any)
	require.Len(t, tools, 2)
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "writer", fn["name"])
}

func TestSelectByEnum(t *testing.T) {
	c := &capture{}
	srv := newServer(t, c, completion(`{"role":"assistant","refusal":null,"content":"{\"agent_name\":\"writer\"}"}`))

	o := New(WithAPIKey("test"), WithBaseURL(srv.URL+"/"))
	name, err := o.Select(context.Background(), &oracle.SelectRequest{
		Prompt:     "p",
		Candidates: candidates,
		Mode:       oracle.SelectByEnum,
	})
	require.NoError(t, err)
	assert.Equal(t, "writer", name)

	rf := c.body["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", rf["type"])
	js := rf["json_schema"].(map[string]any)
	assert.Equal(t, true, js["strict"])
	assert.Equal(t, defaultModel, c.body["model"])
}

func TestSelectByEnumOutOfSet(t *testing.T) {
	srv := newServer(t, &capture{}, completion(`{"role":"assistant","refusal":null,"content":"{\"agent_name\":\"ghost\"}"}`))
	o := New(WithAPIKey("test"), WithBaseURL(srv.URL+"/"))
	_, err := o.Select(context.Background(), &oracle.SelectRequest{Candidates: candidates, Mode: oracle.SelectByEnum})
	require.ErrorIs(t, err, oracle.ErrOutOfSet)
}

func TestSelectByToolSanitizesNames(t *testing.T) {
	c := &capture{}
	srv := newServer(t, c, completion(`{"role":"assistant","content":null,"refusal":null,
"tool_calls":[{"id":"call_1","type":"function","function":{"name":"Senior_Editor","arguments":"{}"}}]}`))

	o := New(WithAPIKey("test"), WithBaseURL(srv.URL+"/"))
	name, err := o.Select(context.Background(), &oracle.SelectRequest{
		Candidates: []oracle.Candidate{{Name: "writer"}, {Name: "Senior Editor", Description: "edits"}},
		Mode:       oracle.SelectByTool,
	})
	require.NoError(t, err)
	assert.Equal(t, "Senior Editor", name)

	fn := c.body["tools"].([]any)[1].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "Senior_Editor", fn["name"])
	assert.Equal(t, "Senior Editor: edits", fn["description"])
}

func TestSelectByEnumSizesMaxTokens(t *testing.T) {
	long := strings.Repeat("reviewer-", 12)
	c := &capture{}
	srv := newServer(t, c, completion(`{"role":"assistant","refusal":null,"content":"{\"agent_name\":\"`+long+`\"}"}`))
	o := New(WithAPIKey("test"), WithBaseURL(srv.URL+"/"))
	name, err := o.Select(context.Background(), &oracle.SelectRequest{
		Candidates: []oracle.Candidate{{Name: "writer"}, {Name: long}},
		Mode:       oracle.SelectByEnum,
	})
	require.NoError(t, err)
	assert.Equal(t, long, name)
	assert.EqualValues(t, selectBaseTokens+len(long), c.body["max_completion_tokens"])
}

func TestSelectWithoutCandidates(t *testing.T) {
	_, err := New(WithAPIKey("test")).Select(context.Background(), &oracle.SelectRequest{})
	require.ErrorIs(t, err, oracle.ErrNoCandidates)
}

func TestGenerate(t *testing.T) {
	c := &capture{}
	srv := newServer(t, c, completion(`{"role":"assistant","refusal":null,"content":"{\"add_extra_tasks\":false,\"tasks\":[]}"}`))
	o := New(WithAPIKey("test"), WithBaseURL(srv.URL+"/"))

	out, err := o.Generate(context.Background(), &oracle.GenerateRequest{
		Name:      "ExtraTasks",
		Prompt:    "p",
		Schema:    oracle.Object(oracle.Property{Name: "add_extra_tasks", Schema: oracle.Boolean()}),
		MaxTokens: 100,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"add_extra_tasks":false,"tasks":[]}`, string(out))
	assert.EqualValues(t, 100, c.body["max_completion_tokens"])
}

func TestGenerateEmpty(t *testing.T) {
	srv := newServer(t, &capture{}, completion(`{"role":"assistant","refusal":null,"content":""}`))
	o := New(WithAPIKey("test"), WithBaseURL(srv.URL+"/"))
	_, err := o.Generate(context.Background(), &oracle.GenerateRequest{Name: "x", Schema: oracle.String()})
	require.ErrorIs(t, err, oracle.ErrEmptyResponse)
}
