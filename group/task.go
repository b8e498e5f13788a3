//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package group

import (
	"context"
	"fmt"

	"trpc.group/trpc-go/trpc-agent-group/message"
	"trpc.group/trpc-go/trpc-agent-group/planner"
)

// Task resets the conversation and runs task with strategy. It returns the
// messages of the last member turn.
func (g *Group) Task(ctx context.Context, task string, strategy Strategy, opts ...TaskOption) ([]message.Message, error) {
	o := taskOptions{revisePlan: true, inTransitRevise: true}
	for _, opt := range opts {
		opt(&o)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	switch strategy {
	case StrategySequential:
		return g.sequentialTask(ctx, task)
	case StrategyHierarchical:
		return nil, fmt.Errorf("%w: %s strategy", ErrNotImplemented, strategy)
	case StrategyAuto:
		return g.autoTask(ctx, task, o)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// Plan returns the plan of the last auto task.
func (g *Group) Plan() planner.Plan {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.planner.Plan()
}

// sequentialTask lets every member respond once in roster order, each seeing
// the whole conversation.
func (g *Group) sequentialTask(ctx context.Context, task string) ([]message.Message, error) {
	g.messages.Reset()
	g.userInput(task, message.ActionTask)
	var last []message.Message
	for _, name := range g.env.Names() {
		msgs, err := g.callAgent(ctx, CallRequest{Thread: DefaultThread, Agent: name})
		if err != nil {
			return nil, err
		}
		last = msgs
	}
	return last, nil
}

// autoTask plans task, optionally lets the members critique the plan, and
// runs the steps in order. After each step the planner may append extra
// steps which run right away.
func (g *Group) autoTask(ctx context.Context, task string, o taskOptions) ([]message.Message, error) {
	g.messages.Reset()
	plan, err := g.planner.Planning(ctx, task, g.roster())
	if err != nil {
		return nil, err
	}
	g.logger.Infof("initial plan:\n%s", plan)
	if o.revisePlan {
		if plan, err = g.planner.Revise(ctx, g.env.Members); err != nil {
			return nil, err
		}
		g.logger.Infof("revised plan:\n%s", plan)
	}

	var last []message.Message
	for _, step := range plan {
		msgs, err := g.runStep(ctx, task, step)
		if err != nil {
			return nil, err
		}
		last = msgs
		if !o.inTransitRevise {
			continue
		}
		extra, err := g.planner.InTransitRevisions(ctx, step, msgs)
		if err != nil {
			return nil, err
		}
		for _, t := range extra {
			g.logger.Infof("extra task for %s: %s", t.AgentName, t.Task)
			if last, err = g.runStep(ctx, task, t); err != nil {
				return nil, err
			}
		}
	}
	return last, nil
}

func (g *Group) runStep(ctx context.Context, mainTask string, step planner.Task) ([]message.Message, error) {
	if err := g.setCurrent(DefaultThread, step.AgentName); err != nil {
		return nil, err
	}
	return g.invoke(ctx, step.AgentName, g.taskPrompt(mainTask, step, defaultTaskCutOff))
}
