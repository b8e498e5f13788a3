//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package a2a

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
)

type rpcRequest struct {
	Method string `json:"method"`
	ID     any    `json:"id"`
	Params struct {
		Message struct {
			ContextID string `json:"contextId"`
			Parts     []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"message"`
	} `json:"params"`
}

func rpcServer(t *testing.T, result string, got *[]rpcRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var req rpcRequest
		assert.NoError(t, json.Unmarshal(raw, &req))
		*got = append(*got, req)
		id, _ := json.Marshal(req.ID)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":`+string(id)+`,"result":`+result+`}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDoMessageResult(t *testing.T) {
	var got []rpcRequest
	srv := rpcServer(t,
		`{"kind":"message","messageId":"m1","role":"agent","parts":[{"kind":"text","text":"Hello from remote."}]}`,
		&got)
	m, err := New("remote", "Researcher", srv.URL, WithDescription("remote researcher"))
	require.NoError(t, err)
	assert.Equal(t, "remote", m.Info().Name)

	out, err := m.Do(context.Background(), "hi")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "remote", out[0].Sender)
	assert.Equal(t, "Hello from remote.", out[0].Result)

	_, err = m.Do(context.Background(), "again")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "message/send", got[0].Method)
	assert.Equal(t, "hi", got[0].Params.Message.Parts[0].Text)
	assert.NotEmpty(t, got[0].Params.Message.ContextID)
	assert.Equal(t, got[0].Params.Message.ContextID, got[1].Params.Message.ContextID)
}

func TestDoTaskResult(t *testing.T) {
	var got []rpcRequest
	srv := rpcServer(t, `{"kind":"task","id":"t1","contextId":"c1","status":{"state":"completed"},
"artifacts":[{"artifactId":"a1","parts":[{"kind":"text","text":"final answer"}]}]}`, &got)
	m, err := New("remote", "Researcher", srv.URL)
	require.NoError(t, err)

	out, err := m.Do(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "final answer", out[0].Result)
}

func TestDoRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":"1","error":{"code":-32603,"message":"boom"}}`)
	}))
	defer srv.Close()
	m, err := New("remote", "Researcher", srv.URL)
	require.NoError(t, err)
	_, err = m.Do(context.Background(), "q")
	require.Error(t, err)
}

func TestResultTextFallsBackToHistory(t *testing.T) {
	task := &protocol.Task{History: []protocol.Message{
		protocol.NewMessage(protocol.MessageRoleUser, []protocol.Part{protocol.NewTextPart("q")}),
		protocol.NewMessage(protocol.MessageRoleAgent, []protocol.Part{protocol.NewTextPart("from history")}),
	}}
	assert.Equal(t, "from history", resultText(task))
	assert.Equal(t, "", resultText(nil))
}
