//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agent-group/env"
	"trpc.group/trpc-go/trpc-agent-group/group"
	"trpc.group/trpc-go/trpc-agent-group/member"
	"trpc.group/trpc-go/trpc-agent-group/message"
	"trpc.group/trpc-go/trpc-agent-group/oracle"
)

type echoMember struct{ name string }

func (e *echoMember) Info() member.Info { return member.Info{Name: e.name, Role: "Echo"} }

func (e *echoMember) Do(context.Context, string) ([]message.Message, error) {
	return []message.Message{message.Talk(e.name, "hi from "+e.name)}, nil
}

type fixedOracle struct{ answer string }

func (f *fixedOracle) Select(context.Context, *oracle.SelectRequest) (string, error) {
	return f.answer, nil
}

func (f *fixedOracle) Generate(context.Context, *oracle.GenerateRequest) ([]byte, error) {
	return nil, errors.New("no planning in this test")
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	g, err := group.New(&env.Env{
		Description: "test group",
		Members:     []member.Member{&echoMember{"A"}, &echoMember{"B"}, &echoMember{"C"}},
	}, &fixedOracle{answer: "C"})
	require.NoError(t, err)
	srv := httptest.NewServer(New(g).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestChat(t *testing.T) {
	srv := newServer(t)
	resp := do(t, http.MethodPost, srv.URL+"/chat", `{"text":"hello"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out chatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "C", out.NextAgent)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, "hi from C", out.Messages[0].Result)

	resp = do(t, http.MethodGet, srv.URL+"/messages", "")
	var p group.Protocol
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	require.Len(t, p.Context, 2)
	assert.Equal(t, "C", p.NextAgent)
	assert.Equal(t, "test group", p.Env.Description)

	resp = do(t, http.MethodPost, srv.URL+"/reset", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, http.MethodGet, srv.URL+"/messages", "")
	p = group.Protocol{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	assert.Empty(t, p.Context)
}

func TestChatErrors(t *testing.T) {
	srv := newServer(t)
	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, srv.URL+"/chat", `{`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, srv.URL+"/chat", `{"text":"x","mode":"loud"}`).StatusCode)
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodPost, srv.URL+"/chat", `{"text":"x","agent":"Z"}`).StatusCode)
}

func TestTask(t *testing.T) {
	srv := newServer(t)
	resp := do(t, http.MethodPost, srv.URL+"/task", `{"task":"count","strategy":"sequential"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out taskResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Messages, 1)
	assert.Equal(t, "C", out.Messages[0].Sender)
	assert.Empty(t, out.Plan)

	assert.Equal(t, http.StatusNotImplemented,
		do(t, http.MethodPost, srv.URL+"/task", `{"task":"x","strategy":"hierarchical"}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest,
		do(t, http.MethodPost, srv.URL+"/task", `{"task":"x","strategy":"parallel"}`).StatusCode)
	assert.Equal(t, http.StatusInternalServerError,
		do(t, http.MethodPost, srv.URL+"/task", `{"task":"x"}`).StatusCode)
}

func TestMembers(t *testing.T) {
	srv := newServer(t)
	resp := do(t, http.MethodPut, srv.URL+"/threads/default/current", `{"agent":"B"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/members/B", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodDelete, srv.URL+"/members/B", "").StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/members", "")
	var infos []member.Info
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "A", infos[0].Name)

	resp = do(t, http.MethodGet, srv.URL+"/threads/default/current", "")
	var cur currentAgent
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cur))
	assert.Contains(t, []string{"A", "C"}, cur.Agent)
}

func TestChatNextAgentUnderConcurrentTurns(t *testing.T) {
	srv := newServer(t)
	agents := []string{"A", "B", "C"}
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		agent := agents[i%len(agents)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			body := fmt.Sprintf(`{"thread":"shared","text":"hi","agent":%q}`, agent)
			resp, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader(body))
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()
			var out chatResponse
			if !assert.NoError(t, json.NewDecoder(resp.Body).Decode(&out)) {
				return
			}
			assert.Equal(t, agent, out.NextAgent)
			if assert.Len(t, out.Messages, 1) {
				assert.Equal(t, agent, out.Messages[0].Sender)
			}
		}()
	}
	wg.Wait()
}

func TestStructure(t *testing.T) {
	srv := newServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/structure", "")
	var out structureResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "CONNECTED", out.Structure)
	assert.Empty(t, out.Error)
}

func TestCORS(t *testing.T) {
	srv := newServer(t)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/members", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
