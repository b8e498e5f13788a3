//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package planner breaks a group task into steps assigned to members, lets
// the members critique the draft and proposes extra steps while the plan
// runs.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-agent-group/log"
	"trpc.group/trpc-go/trpc-agent-group/member"
	"trpc.group/trpc-go/trpc-agent-group/message"
	"trpc.group/trpc-go/trpc-agent-group/oracle"
)

// ErrNoPlan is returned when revising before planning.
var ErrNoPlan = errors.New("planner: no plan to revise, plan the task first")

// Option configures a Planner.
type Option func(*options)

type options struct {
	model       string
	description string
	language    string
}

// WithModel sets the oracle model used for planning.
func WithModel(m string) Option {
	return func(o *options) { o.model = m }
}

// WithDescription sets the group background shown in every prompt.
func WithDescription(d string) Option {
	return func(o *options) { o.description = d }
}

// WithLanguage asks for answers in the given language.
func WithLanguage(l string) Option {
	return func(o *options) { o.language = l }
}

// Planner holds the task being planned and its current plan.
// It is not safe for concurrent use.
type Planner struct {
	oracle oracle.Oracle
	opts   options

	task   string
	roster []member.Info
	plan   Plan
}

// New creates a planner consulting o.
func New(o oracle.Oracle, opts ...Option) *Planner {
	p := &Planner{oracle: o}
	for _, opt := range opts {
		opt(&p.opts)
	}
	return p
}

// Task returns the task being planned.
func (p *Planner) Task() string { return p.task }

// Plan returns the current plan.
func (p *Planner) Plan() Plan { return append(Plan(nil), p.plan...) }

// Planning drafts a plan for task among roster. Every member reference in
// the result belongs to roster.
func (p *Planner) Planning(ctx context.Context, task string, roster []member.Info) (Plan, error) {
	log.Infof("planner: start planning the task")
	p.task = task
	p.roster = append([]member.Info(nil), roster...)
	p.plan = nil
	plan, err := p.generate(ctx, p.planningPrompt(roster))
	if err != nil {
		return nil, err
	}
	p.plan = plan
	log.Infof("planner: task: %s\n\nPlan:\n%s", task, plan)
	return p.Plan(), nil
}

// Revise collects one critique of the current plan from every member and
// replaces the plan with a revision addressing them.
func (p *Planner) Revise(ctx context.Context, members []member.Member) (Plan, error) {
	if p.plan == nil {
		return nil, ErrNoPlan
	}
	log.Infof("planner: start revising the plan")
	roster := member.Infos(members)
	prompt := p.feedbackPrompt(roster)
	var feedbacks []string
	for _, m := range members {
		msgs, err := m.Do(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("planner: feedback from %s: %w", m.Info().Name, err)
		}
		for _, msg := range msgs {
			log.Debugf("planner: feedback from %s: %s", m.Info().Name, msg.Result)
			feedbacks = append(feedbacks, fmt.Sprintf("%s: %s", msg.Sender, msg.Result))
		}
	}

	p.roster = roster
	plan, err := p.generate(ctx, p.revisePrompt(roster, strings.Join(feedbacks, "\n")))
	if err != nil {
		return nil, err
	}
	p.plan = plan
	log.Infof("planner: task: %s\n\nRevised Plan:\n%s", p.task, plan)
	return p.Plan(), nil
}

// InTransitRevisions asks whether step's agent needs extra steps given the
// response it just produced. It returns nil when none are needed. Extra
// steps go to the same agent and consume no other member's messages.
func (p *Planner) InTransitRevisions(ctx context.Context, step Task, response []message.Message) ([]Task, error) {
	log.Infof("planner: decide whether to assign extra tasks for %s", step.AgentName)
	var agent *member.Info
	for i := range p.roster {
		if p.roster[i].Name == step.AgentName {
			agent = &p.roster[i]
			break
		}
	}
	if agent == nil {
		return nil, fmt.Errorf("planner: %w: %s", member.ErrNotFound, step.AgentName)
	}
	out, err := p.oracle.Generate(ctx, &oracle.GenerateRequest{
		Model:       p.opts.model,
		System:      assistantSystem,
		Prompt:      p.inTransitPrompt(*agent, step, response),
		Name:        "ExtraTasks",
		Description: "whether to add extra tasks for the current agent",
		Schema:      extraTasksSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("planner: in transit revisions: %w", err)
	}
	var doc extraTasksDoc
	if err := json.Unmarshal(out, &doc); err != nil {
		return nil, fmt.Errorf("planner: decode extra tasks: %w", err)
	}
	if !doc.AddExtraTasks || len(doc.Tasks) == 0 {
		log.Infof("planner: no extra tasks needed")
		return nil, nil
	}
	log.Infof("planner: %d extra tasks for %s", len(doc.Tasks), step.AgentName)
	extra := make([]Task, len(doc.Tasks))
	for i, t := range doc.Tasks {
		extra[i] = Task{AgentName: step.AgentName, Task: t, ReceiveInformationFrom: []string{}}
	}
	return extra, nil
}

func (p *Planner) generate(ctx context.Context, prompt string) (Plan, error) {
	names := make([]string, len(p.roster))
	for i, info := range p.roster {
		names[i] = info.Name
	}
	set := oracle.NewClosedSet(names...)
	out, err := p.oracle.Generate(ctx, &oracle.GenerateRequest{
		Model:       p.opts.model,
		System:      plannerSystem,
		Prompt:      prompt,
		Name:        "Tasks",
		Description: "the ordered tasks of the plan",
		Schema:      planSchema(set),
	})
	if err != nil {
		return nil, fmt.Errorf("planner: generate plan: %w", err)
	}
	plan, err := decodePlan(out, set)
	if err != nil {
		return nil, err
	}
	if len(plan) == 0 {
		log.Warnf("planner: the oracle returned an empty plan")
		plan = Plan{}
	}
	return plan, nil
}
