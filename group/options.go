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
	"math/rand/v2"

	"trpc.group/trpc-go/trpc-agent-group/handoff"
)

const (
	// DefaultThread is the conversation thread used when none is given.
	DefaultThread = "default"

	defaultChatCutOff = 3
	defaultTaskCutOff = 3
)

// Option configures a Group.
type Option func(*options)

type options struct {
	groupID        string
	workspace      string
	model          string
	planningModel  string
	chatCutOff     int
	rand           *rand.Rand
	handoffOptions []handoff.Option
}

// WithGroupID sets the group id instead of a random uuid.
func WithGroupID(id string) Option {
	return func(o *options) { o.groupID = id }
}

// WithWorkspace gives the group a directory under dir for shared files.
func WithWorkspace(dir string) Option {
	return func(o *options) { o.workspace = dir }
}

// WithModel sets the oracle model for handoffs.
func WithModel(m string) Option {
	return func(o *options) { o.model = m }
}

// WithPlanningModel sets the oracle model for planning, the handoff model
// when empty.
func WithPlanningModel(m string) Option {
	return func(o *options) { o.planningModel = m }
}

// WithMessageCutOff sets how many recent messages a chat turn shows the
// member, 3 by default. n <= 0 shows all of them.
func WithMessageCutOff(n int) Option {
	return func(o *options) { o.chatCutOff = n }
}

// WithHandoffMaxTurns bounds the turns of one handoff.
func WithHandoffMaxTurns(n int) Option {
	return func(o *options) { o.handoffOptions = append(o.handoffOptions, handoff.WithMaxTurns(n)) }
}

// WithRand sets the random source used by random handoffs and by the
// reassignment of deleted current agents.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rand = r
		o.handoffOptions = append(o.handoffOptions, handoff.WithRand(r))
	}
}

// WithHandoffOptions passes options to the handoff engine, e.g. its retry
// policy.
func WithHandoffOptions(opts ...handoff.Option) Option {
	return func(o *options) { o.handoffOptions = append(o.handoffOptions, opts...) }
}

// CallRequest describes one member turn.
type CallRequest struct {
	// Thread is the conversation thread, DefaultThread when empty.
	Thread string
	// Mode selects the next member, handoff.ModeAuto2 when empty.
	Mode handoff.Mode
	// ExcludeCurrent keeps the current member out of the first handoff turn.
	ExcludeCurrent bool
	// CutOff is how many recent messages the member sees; <= 0 means all.
	CutOff int
	// Agent skips the handoff and gives the turn to this member.
	Agent string
}

// ChatOption configures Chat.
type ChatOption func(*CallRequest)

// WithAgent gives the turn to a given member instead of handing off.
func WithAgent(name string) ChatOption {
	return func(r *CallRequest) { r.Agent = name }
}

// WithCutOff overrides the message cut off of one chat turn.
func WithCutOff(n int) ChatOption {
	return func(r *CallRequest) { r.CutOff = n }
}

// WithExcludeCurrent keeps the current member out of the first handoff turn.
func WithExcludeCurrent() ChatOption {
	return func(r *CallRequest) { r.ExcludeCurrent = true }
}

// WithMode overrides the handoff mode of one chat turn.
func WithMode(m handoff.Mode) ChatOption {
	return func(r *CallRequest) { r.Mode = m }
}

// Strategy is a task execution strategy.
type Strategy string

// Task strategies.
const (
	StrategySequential   Strategy = "sequential"
	StrategyHierarchical Strategy = "hierarchical"
	StrategyAuto         Strategy = "auto"
)

// TaskOption configures Task.
type TaskOption func(*taskOptions)

type taskOptions struct {
	revisePlan      bool
	inTransitRevise bool
}

// WithPlanRevise toggles the member critique round of the auto strategy,
// on by default.
func WithPlanRevise(on bool) TaskOption {
	return func(o *taskOptions) { o.revisePlan = on }
}

// WithInTransitRevise toggles extra steps proposed while the auto strategy
// runs, on by default.
func WithInTransitRevise(on bool) TaskOption {
	return func(o *taskOptions) { o.inTransitRevise = on }
}
