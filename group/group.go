//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package group runs a roster of members as one conversation: it decides
// who speaks next, keeps the shared message log and executes tasks either in
// roster order or following a plan.
package group

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"trpc.group/trpc-go/trpc-agent-group/env"
	"trpc.group/trpc-go/trpc-agent-group/graph"
	"trpc.group/trpc-go/trpc-agent-group/handoff"
	itelemetry "trpc.group/trpc-go/trpc-agent-group/internal/telemetry"
	"trpc.group/trpc-go/trpc-agent-group/log"
	"trpc.group/trpc-go/trpc-agent-group/member"
	"trpc.group/trpc-go/trpc-agent-group/message"
	"trpc.group/trpc-go/trpc-agent-group/oracle"
	"trpc.group/trpc-go/trpc-agent-group/planner"
)

// Group is a set of members sharing one conversation. All methods are safe
// for concurrent use; calls are executed one at a time.
type Group struct {
	mu sync.Mutex

	id        string
	opts      options
	env       env.Env
	members   map[string]member.Member
	graph     *graph.Graph
	handoff   *handoff.Engine
	planner   *planner.Planner
	messages  *message.Log
	current   map[string]string
	nextAgent string
	workspace string
	logger    log.Logger
}

// New creates a group over e consulting o for handoffs and planning.
func New(e *env.Env, o oracle.Oracle, opts ...Option) (*Group, error) {
	if e == nil || len(e.Members) == 0 {
		return nil, ErrNoMembers
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	g := &Group{
		opts:     options{chatCutOff: defaultChatCutOff},
		env:      *e,
		messages: message.NewLog(),
		current:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(&g.opts)
	}
	g.id = g.opts.groupID
	if g.id == "" {
		g.id = uuid.NewString()
	}
	g.logger = log.ForGroup(g.id)
	g.env.Members = slices.Clone(e.Members)
	g.env.Language = env.LanguageName(e.Language)

	var err error
	if g.members, err = member.Index(g.env.Members); err != nil {
		return nil, err
	}
	if g.graph, err = graph.Build(g.env.Names(), e.Relationships); err != nil {
		return nil, err
	}
	if g.graph.FullyConnected() {
		g.logger.Infof("all members are fully connected")
	}
	if g.opts.workspace != "" {
		if g.workspace, err = createWorkspace(g.opts.workspace, g.id, g.logger); err != nil {
			return nil, err
		}
	}
	g.handoff = handoff.New(o, g.opts.handoffOptions...)
	g.handoff.SetRoster(g.roster(), g.graph)

	planningModel := g.opts.planningModel
	if planningModel == "" {
		planningModel = g.opts.model
	}
	g.planner = planner.New(o,
		planner.WithModel(planningModel),
		planner.WithDescription(g.env.Description),
		planner.WithLanguage(g.env.Language),
	)
	g.logger.Infof("group initialized with %d members", len(g.env.Members))
	return g, nil
}

// ID returns the group id.
func (g *Group) ID() string {
	return g.id
}

// Workspace returns the group workspace directory, empty without one.
func (g *Group) Workspace() string {
	return g.workspace
}

// Members returns the roster descriptors in order.
func (g *Group) Members() []member.Info {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.roster()
}

// Relationships returns who may hand off to whom.
func (g *Group) Relationships() map[string][]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.graph.Adjacency()
}

func (g *Group) roster() []member.Info {
	return member.Infos(g.env.Members)
}

// AddMember adds m to the group. Unless the group is fully connected, only
// the relations mentioning m are added.
func (g *Group) AddMember(m member.Member, relations ...[2]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	name := m.Info().Name
	if name == "" {
		return member.ErrEmptyName
	}
	if _, ok := g.members[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateMember, name)
	}
	for _, r := range relations {
		for _, end := range r {
			if _, ok := g.members[end]; !ok && end != name {
				return fmt.Errorf("%w: %s", ErrMemberNotFound, end)
			}
		}
	}
	if err := g.graph.AddMember(name, relations...); err != nil {
		return err
	}
	g.env.Members = append(g.env.Members, m)
	g.members[name] = m
	g.handoff.SetRoster(g.roster(), g.graph)
	g.messages.Append(message.System(fmt.Sprintf("%s joined the group.", name)))
	g.logger.Infof("member %s added", name)
	return nil
}

// DeleteMember removes name from the group and its relationships. Threads
// whose current member was name move to a random remaining member, and name
// stops being the entry or exit agent. The last member cannot be deleted.
func (g *Group) DeleteMember(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.members[name]; !ok {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, name)
	}
	if len(g.members) == 1 {
		return fmt.Errorf("%w: %s is the last member", ErrNoMembers, name)
	}
	if err := g.graph.RemoveMember(name); err != nil {
		return err
	}
	g.env.Members = slices.DeleteFunc(g.env.Members, func(m member.Member) bool { return m.Info().Name == name })
	delete(g.members, name)
	g.handoff.SetRoster(g.roster(), g.graph)
	g.messages.Append(message.System(fmt.Sprintf("%s left the group", name)))

	names := g.env.Names()
	for thread, cur := range g.current {
		if cur != name {
			continue
		}
		next := names[g.intn(len(names))]
		g.current[thread] = next
		g.logger.Infof("current agent %s of thread %s is deleted, randomly select %s", name, thread, next)
	}
	if g.nextAgent == name {
		g.nextAgent = ""
	}
	if g.env.Entry == name {
		g.env.Entry = ""
		g.logger.Warnf("entry agent %s is deleted, the group has no entry agent now", name)
	}
	if g.env.Exit == name {
		g.env.Exit = ""
		g.logger.Warnf("exit agent %s is deleted, the group has no exit agent now", name)
	}
	g.logger.Infof("member %s deleted", name)
	return nil
}

func (g *Group) intn(n int) int {
	if g.opts.rand != nil {
		return g.opts.rand.IntN(n)
	}
	return rand.IntN(n)
}

// SetCurrentAgent hands the turn of thread to name.
func (g *Group) SetCurrentAgent(thread, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.setCurrent(thread, name)
}

func (g *Group) setCurrent(thread, name string) error {
	if _, ok := g.members[name]; !ok {
		g.logger.Errorf("attempted to set non-existent member %s as current agent", name)
		return fmt.Errorf("%w: %s", ErrMemberNotFound, name)
	}
	g.current[threadKey(thread)] = name
	return nil
}

// CurrentAgent returns the member holding the turn of thread. A new thread
// starts with the first member.
func (g *Group) CurrentAgent(thread string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentOf(thread)
}

func (g *Group) currentOf(thread string) string {
	if cur, ok := g.current[threadKey(thread)]; ok {
		return cur
	}
	return g.env.Members[0].Info().Name
}

func threadKey(thread string) string {
	if thread == "" {
		return DefaultThread
	}
	return thread
}

// UserInput records a user message.
func (g *Group) UserInput(text string, action message.Action) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.userInput(text, action)
}

func (g *Group) userInput(text string, action message.Action) {
	if action == "" {
		action = message.ActionTalk
	}
	g.messages.Append(message.Message{Sender: message.SenderUser, Action: action, Result: text})
	g.logger.Infof("user input (%s): %s", action, text)
}

// Handoff moves the turn of req.Thread to the member chosen in req.Mode and
// returns it.
func (g *Group) Handoff(ctx context.Context, req CallRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.doHandoff(ctx, req)
}

func (g *Group) doHandoff(ctx context.Context, req CallRequest) (string, error) {
	mode := req.Mode
	if mode == "" {
		mode = handoff.ModeAuto2
	}
	next, err := g.handoff.Handoff(ctx, handoff.Request{
		Mode:           mode,
		Current:        g.currentOf(req.Thread),
		IncludeCurrent: !req.ExcludeCurrent,
		Background:     g.env.Description,
		History:        g.messages.Last(1),
		Model:          g.opts.model,
	})
	if err != nil {
		return "", err
	}
	g.current[threadKey(req.Thread)] = next
	g.nextAgent = next
	return next, nil
}

// CallAgent lets one member respond to the conversation. The member is
// req.Agent when set and is chosen by a handoff otherwise.
func (g *Group) CallAgent(ctx context.Context, req CallRequest) ([]message.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.callAgent(ctx, req)
}

func (g *Group) callAgent(ctx context.Context, req CallRequest) ([]message.Message, error) {
	_, msgs, err := g.respond(ctx, req)
	return msgs, err
}

// respond picks the member for req and runs it, returning its name.
func (g *Group) respond(ctx context.Context, req CallRequest) (string, []message.Message, error) {
	if req.Agent != "" {
		if err := g.setCurrent(req.Thread, req.Agent); err != nil {
			return "", nil, err
		}
	} else if _, err := g.doHandoff(ctx, req); err != nil {
		return "", nil, err
	}
	name := g.currentOf(req.Thread)
	msgs, err := g.invoke(ctx, name, g.sendPrompt(name, req.CutOff))
	if err != nil {
		return "", nil, err
	}
	return name, msgs, nil
}

// invoke runs one member and records its messages.
func (g *Group) invoke(ctx context.Context, name, prompt string) ([]message.Message, error) {
	m, ok := g.members[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, name)
	}
	ctx, span := itelemetry.StartSpan(ctx, itelemetry.OperationInvoke, name,
		attribute.String(itelemetry.KeyGroupID, g.id),
		attribute.String(itelemetry.KeyMember, name),
	)
	msgs, err := m.Do(ctx, prompt)
	itelemetry.MemberInvokeCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String(itelemetry.KeyMember, name),
		attribute.Bool("error", err != nil),
	))
	itelemetry.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("group: member %s: %w", name, err)
	}
	g.messages.Append(msgs...)
	for _, msg := range msgs {
		g.logger.Infof("agent %s response:\n\n%s", name, msg.Result)
	}
	return msgs, nil
}

// Chat records text from the user on thread and lets a member answer.
func (g *Group) Chat(ctx context.Context, thread, text string, opts ...ChatOption) ([]message.Message, error) {
	r, err := g.ChatReply(ctx, thread, text, opts...)
	return r.Messages, err
}

// Reply is the answer to one chat turn.
type Reply struct {
	// Agent is the member that answered.
	Agent    string
	Messages []message.Message
}

// ChatReply is Chat also reporting the member that answered, read in the
// same call so concurrent turns on the thread cannot change it.
func (g *Group) ChatReply(ctx context.Context, thread, text string, opts ...ChatOption) (Reply, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	req := CallRequest{Thread: thread, Mode: handoff.ModeAuto2, CutOff: g.opts.chatCutOff}
	for _, opt := range opts {
		opt(&req)
	}
	g.userInput(text, message.ActionTalk)
	agent, msgs, err := g.respond(ctx, req)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Agent: agent, Messages: msgs}, nil
}

// Structure classifies the relationship graph. A relation set meant as a
// sequence that fails validation is reported as CUSTOM together with the
// validation error.
func (g *Group) Structure() (graph.Structure, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return graph.Classify(g.graph, g.env.Entry, g.env.Exit)
}

// Protocol returns a snapshot of the conversation.
func (g *Group) Protocol() Protocol {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Protocol{
		GroupID: g.id,
		Env: PublicEnv{
			Description:   g.env.Description,
			Members:       g.roster(),
			Relationships: g.graph.Adjacency(),
			Language:      g.env.Language,
		},
		Context:   g.messages.All(),
		NextAgent: g.nextAgent,
	}
}

// Reset clears the conversation, keeping members and relationships.
func (g *Group) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages.Reset()
}
