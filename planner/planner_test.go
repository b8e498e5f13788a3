//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agent-group/member"
	"trpc.group/trpc-go/trpc-agent-group/message"
	"trpc.group/trpc-go/trpc-agent-group/oracle"
)

type fakeOracle struct {
	outputs []string
	reqs    []*oracle.GenerateRequest
}

func (f *fakeOracle) Select(context.Context, *oracle.SelectRequest) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeOracle) Generate(_ context.Context, req *oracle.GenerateRequest) ([]byte, error) {
	f.reqs = append(f.reqs, req)
	if len(f.outputs) == 0 {
		return nil, errors.New("no more outputs")
	}
	out := f.outputs[0]
	f.outputs = f.outputs[1:]
	return []byte(out), nil
}

type fakeMember struct {
	info    member.Info
	reply   string
	prompts []string
}

func (f *fakeMember) Info() member.Info { return f.info }

func (f *fakeMember) Do(_ context.Context, prompt string) ([]message.Message, error) {
	f.prompts = append(f.prompts, prompt)
	return []message.Message{message.Talk(f.info.Name, f.reply)}, nil
}

var roster = []member.Info{
	{Name: "researcher", Role: "Researcher", Tools: []string{"search"}},
	{Name: "writer", Role: "Writer"},
}

const draft = `{"tasks":[
{"agent_name":"researcher","task":"collect facts","receive_information_from":[]},
{"agent_name":"writer","task":"write the article","receive_information_from":["researcher"]}]}`

func TestPlanning(t *testing.T) {
	o := &fakeOracle{outputs: []string{draft}}
	p := New(o, WithDescription("a newsroom"), WithLanguage("English"), WithModel("planner-model"))

	plan, err := p.Planning(context.Background(), "write about Go", roster)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, Task{AgentName: "writer", Task: "write the article", ReceiveInformationFrom: []string{"researcher"}}, plan[1])
	assert.Equal(t, "write about Go", p.Task())

	req := o.reqs[0]
	assert.Equal(t, "planner-model", req.Model)
	assert.Equal(t, plannerSystem, req.System)
	assert.Contains(t, req.Prompt, "### Contextual Information\na newsroom")
	assert.Contains(t, req.Prompt, "- researcher (Researcher) [tools available: search]")
	assert.Contains(t, req.Prompt, "```\nwrite about Go\n```")
	assert.Contains(t, req.Prompt, "### Response in Language: English")

	schema, err := oracle.SchemaMap(req.Schema)
	require.NoError(t, err)
	tasks := schema["properties"].(map[string]any)["tasks"].(map[string]any)
	task := tasks["items"].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, []any{"researcher", "writer"}, task["agent_name"].(map[string]any)["enum"])
}

func TestPlanningRejectsUnknownMembers(t *testing.T) {
	for _, out := range []string{
		`{"tasks":[{"agent_name":"ghost","task":"t","receive_information_from":[]}]}`,
		`{"tasks":[{"agent_name":"writer","task":"t","receive_information_from":["ghost"]}]}`,
	} {
		p := New(&fakeOracle{outputs: []string{out}})
		_, err := p.Planning(context.Background(), "task", roster)
		require.ErrorIs(t, err, oracle.ErrOutOfSet)
		assert.Nil(t, p.Plan())
	}
}

func TestReviseWithoutPlan(t *testing.T) {
	_, err := New(&fakeOracle{}).Revise(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoPlan)
}

func TestRevise(t *testing.T) {
	revised := `{"tasks":[{"agent_name":"writer","task":"write it all","receive_information_from":[]}]}`
	o := &fakeOracle{outputs: []string{draft, revised}}
	p := New(o)
	_, err := p.Planning(context.Background(), "write about Go", roster)
	require.NoError(t, err)

	researcher := &fakeMember{info: roster[0], reply: "add a fact check"}
	writer := &fakeMember{info: roster[1], reply: "looks fine"}
	plan, err := p.Revise(context.Background(), []member.Member{researcher, writer})
	require.NoError(t, err)
	assert.Equal(t, Plan{{AgentName: "writer", Task: "write it all", ReceiveInformationFrom: []string{}}}, plan)
	assert.Equal(t, plan, p.Plan())

	require.Len(t, researcher.prompts, 1)
	assert.Contains(t, researcher.prompts[0], "### Initial Plan\n```\nStep 1: researcher")
	assert.Contains(t, researcher.prompts[0], "Please review the initial plan")

	revise := o.reqs[1].Prompt
	assert.Contains(t, revise, "### Feedbacks\nresearcher: add a fact check\nwriter: looks fine")
	assert.Contains(t, revise, "Please revise the plan")
}

func TestInTransitRevisions(t *testing.T) {
	o := &fakeOracle{outputs: []string{
		draft,
		`{"add_extra_tasks":false,"tasks":["ignored"]}`,
		`{"add_extra_tasks":true,"tasks":["double check the sources"]}`,
	}}
	p := New(o)
	plan, err := p.Planning(context.Background(), "write about Go", roster)
	require.NoError(t, err)
	resp := []message.Message{message.Talk("researcher", "Go was released in 2009.")}

	extra, err := p.InTransitRevisions(context.Background(), plan[0], resp)
	require.NoError(t, err)
	assert.Nil(t, extra)

	extra, err = p.InTransitRevisions(context.Background(), plan[0], resp)
	require.NoError(t, err)
	assert.Equal(t, []Task{{AgentName: "researcher", Task: "double check the sources", ReceiveInformationFrom: []string{}}}, extra)

	req := o.reqs[2]
	assert.Equal(t, assistantSystem, req.System)
	assert.Equal(t, "ExtraTasks", req.Name)
	assert.Contains(t, req.Prompt, "### Current Agent Profile\n- researcher (Researcher) [tools available: search]")
	assert.Contains(t, req.Prompt, "```researcher:talk\nGo was released in 2009.\n```")

	_, err = p.InTransitRevisions(context.Background(), Task{AgentName: "ghost"}, resp)
	require.ErrorIs(t, err, member.ErrNotFound)
}

func TestPlanString(t *testing.T) {
	p := Plan{
		{AgentName: "a", Task: "first", ReceiveInformationFrom: []string{}},
		{AgentName: "b", Task: "second", ReceiveInformationFrom: []string{"a"}},
	}
	assert.Equal(t, "Step 1: a\nfirst\nreceive information from: []\n\nStep 2: b\nsecond\nreceive information from: [a]\n", p.String())
}
