//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package gemini

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
	"google.golang.org/genai"

	"trpc.group/trpc-go/trpc-agent-group/oracle"
)

type capture struct {
	path string
	body map[string]any
}

func newOracle(t *testing.T, c *capture, parts string) *Oracle {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.path = r.URL.Path
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(raw, &c.body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":`+parts+`},"finishReason":"STOP"}]}`)
	}))
	t.Cleanup(srv.Close)
	o, err := New(context.Background(), WithAPIKey("test"), WithBaseURL(srv.URL), WithModel("gemini-test"))
	require.NoError(t, err)
	return o
}

var candidates = []oracle.Candidate{
	{Name: "writer", Description: "writes (Writer)"},
	{Name: "editor", Description: "edits (Editor)"},
}

func TestSelectByTool(t *testing.T) {
	c := &capture{}
	o := newOracle(t, c, `[{"functionCall":{"name":"editor","args":{}}}]`)
	name, err := o.Select(context.Background(), &oracle.SelectRequest{
		System:     "Decide who talks next.",
		Prompt:     "p",
		Candidates: candidates,
	})
	require.NoError(t, err)
	assert.Equal(t, "editor", name)

	assert.True(t, strings.HasSuffix(c.path, "gemini-test:generateContent"), c.path)
	fc := c.body["toolConfig"].(map[string]any)["functionCallingConfig"].(map[string]any)
	assert.Equal(t, "ANY", fc["mode"])
	assert.Equal(t, []any{"writer", "editor"}, fc["allowedFunctionNames"])
}

func TestSelectByEnum(t *testing.T) {
	c := &capture{}
	o := newOracle(t, c, `[{"text":"{\"agent_name\":\"writer\"}"}]`)
	name, err := o.Select(context.Background(), &oracle.SelectRequest{
		Prompt:     "p",
		Candidates: candidates,
		Mode:       oracle.SelectByEnum,
	})
	require.NoError(t, err)
	assert.Equal(t, "writer", name)

	gen := c.body["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", gen["responseMimeType"])
}

func TestSelectByEnumOutOfSet(t *testing.T) {
	o := newOracle(t, &capture{}, `[{"text":"{\"agent_name\":\"ghost\"}"}]`)
	_, err := o.Select(context.Background(), &oracle.SelectRequest{Candidates: candidates, Mode: oracle.SelectByEnum})
	require.ErrorIs(t, err, oracle.ErrOutOfSet)
}

func TestSelectWithoutCall(t *testing.T) {
	o := newOracle(t, &capture{}, `[{"text":"the writer"}]`)
	_, err := o.Select(context.Background(), &oracle.SelectRequest{Candidates: candidates})
	require.ErrorIs(t, err, oracle.ErrEmptyResponse)
}

func TestGenerate(t *testing.T) {
	o := newOracle(t, &capture{}, `[{"text":"{\"tasks\":[]}"}]`)
	out, err := o.Generate(context.Background(), &oracle.GenerateRequest{
		Name:   "Plan",
		Schema: oracle.Object(oracle.Property{Name: "tasks", Schema: oracle.Array(oracle.String())}),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tasks":[]}`, string(out))
}

func TestSchema(t *testing.T) {
	s := Schema(oracle.Object(
		oracle.Property{Name: "agent_name", Schema: oracle.NewClosedSet("a", "b").Schema()},
		oracle.Property{Name: "items", Schema: oracle.Array(oracle.Boolean())},
	))
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"agent_name", "items"}, s.Required)
	assert.Equal(t, []string{"agent_name", "items"}, s.PropertyOrdering)
	assert.Equal(t, []string{"a", "b"}, s.Properties["agent_name"].Enum)
	assert.Equal(t, genai.TypeArray, s.Properties["items"].Type)
	assert.Equal(t, genai.TypeBoolean, s.Properties["items"].Items.Type)
	assert.Nil(t, Schema(nil))
}
