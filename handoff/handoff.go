//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package handoff decides which member of a group acts next.
//
// A single decision is a turn. A handoff chains up to MaxTurns turns, each
// starting from the previous choice, until the choice settles, comes back to
// a member already visited or the budget runs out.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	itelemetry "trpc.group/trpc-go/trpc-agent-group/internal/telemetry"
	"trpc.group/trpc-go/trpc-agent-group/graph"
	"trpc.group/trpc-go/trpc-agent-group/log"
	"trpc.group/trpc-go/trpc-agent-group/member"
	"trpc.group/trpc-go/trpc-agent-group/message"
	"trpc.group/trpc-go/trpc-agent-group/oracle"
)

const (
	defaultMaxTurns    = 3
	defaultMaxTries    = 3
	defaultMaxInterval = 40 * time.Second
)

// ErrEmptyRoster is returned when there is nobody to hand off to.
var ErrEmptyRoster = errors.New("handoff: empty roster")

// Option configures an Engine.
type Option func(*options)

type options struct {
	maxTurns   int
	maxTries   uint
	newBackOff func() backoff.BackOff
	rand       *rand.Rand
}

// WithMaxTurns bounds the number of turns of one handoff, 3 by default.
func WithMaxTurns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxTurns = n
		}
	}
}

// WithMaxTries bounds the attempts of one handoff, 3 by default.
func WithMaxTries(n uint) Option {
	return func(o *options) {
		if n > 0 {
			o.maxTries = n
		}
	}
}

// WithBackOff sets the wait policy between attempts.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(o *options) { o.newBackOff = newBackOff }
}

// WithRand sets the source used by ModeRandom.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rand = r }
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	b.MaxInterval = defaultMaxInterval
	return b
}

// Request describes one handoff.
type Request struct {
	Mode Mode
	// Current is the member holding the turn.
	Current string
	// IncludeCurrent lets the first turn keep the turn with Current. Later
	// turns always do.
	IncludeCurrent bool
	// Background is the group description shown to the oracle.
	Background string
	// History is the conversation shown to the oracle, usually the last
	// message only.
	History []message.Message
	// Model overrides the oracle model.
	Model string
}

// Engine selects the next member. It is safe for concurrent use.
type Engine struct {
	oracle oracle.Oracle
	opts   options

	mu     sync.Mutex
	roster []member.Info
	infos  map[string]member.Info
	graph  *graph.Graph
	cursor int
}

// New creates an engine consulting o for the auto modes.
func New(o oracle.Oracle, opts ...Option) *Engine {
	e := &Engine{
		oracle: o,
		opts: options{
			maxTurns:   defaultMaxTurns,
			maxTries:   defaultMaxTries,
			newBackOff: defaultBackOff,
		},
	}
	for _, opt := range opts {
		opt(&e.opts)
	}
	return e
}

// SetRoster installs the members and their relationship graph and rewinds
// the round robin cursor to the first member.
func (e *Engine) SetRoster(roster []member.Info, g *graph.Graph) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.roster = append([]member.Info(nil), roster...)
	e.infos = make(map[string]member.Info, len(roster))
	for _, info := range roster {
		e.infos[info.Name] = info
	}
	e.graph = g
	e.cursor = 0
}

// MaxTurns returns the turn budget of a handoff in mode.
func (e *Engine) MaxTurns(mode Mode) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !mode.oracleBacked() || (e.graph != nil && e.graph.FullyConnected()) {
		return 1
	}
	return e.opts.maxTurns
}

// Handoff runs a multi turn handoff and returns the selected member.
// Transient oracle failures restart the whole handoff with backoff; unknown
// modes, unknown members and out of set answers fail at once.
func (e *Engine) Handoff(ctx context.Context, req Request) (string, error) {
	ctx, span := itelemetry.StartSpan(ctx, itelemetry.OperationHandoff, string(req.Mode),
		attribute.String(itelemetry.KeyMode, string(req.Mode)),
		attribute.String(itelemetry.KeyFrom, req.Current),
	)
	next, err := backoff.Retry(ctx, func() (string, error) {
		next, err := e.run(ctx, req)
		if err != nil && fatal(err) {
			return "", backoff.Permanent(err)
		}
		return next, err
	},
		backoff.WithBackOff(e.opts.newBackOff()),
		backoff.WithMaxTries(e.opts.maxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Warnf("handoff from %s failed, retrying in %s: %v", req.Current, wait, err)
		}),
	)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	itelemetry.HandoffCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String(itelemetry.KeyMode, string(req.Mode)),
		attribute.Bool("error", err != nil),
	))
	if err == nil {
		span.SetAttributes(attribute.String(itelemetry.KeyTo, next))
	}
	itelemetry.EndSpan(span, err)
	if err != nil {
		return "", err
	}
	return next, nil
}

func (e *Engine) run(ctx context.Context, req Request) (string, error) {
	maxTurns := e.MaxTurns(req.Mode)
	prev := req.Current
	visited := map[string]struct{}{prev: {}}
	for turn := 0; turn < maxTurns; turn++ {
		r := req
		r.Current = prev
		r.IncludeCurrent = req.IncludeCurrent || turn > 0
		next, err := e.OneTurn(ctx, r)
		if err != nil {
			return "", err
		}
		if next == prev {
			break
		}
		if _, ok := visited[next]; ok {
			log.Debugf("handoff: %s already visited, keeping %s", next, prev)
			break
		}
		log.Infof("handoff from %s to %s by using %s mode", prev, next, req.Mode)
		visited[next] = struct{}{}
		prev = next
	}
	return prev, nil
}

// OneTurn makes a single selection. The auto modes keep the turn with the
// current member without consulting the oracle when it has no neighbors.
func (e *Engine) OneTurn(ctx context.Context, req Request) (string, error) {
	switch req.Mode {
	case ModeOrder:
		return e.nextInOrder()
	case ModeRandom:
		return e.pickRandom()
	case ModeAuto, ModeAuto2:
		return e.ask(ctx, req)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}
}

func (e *Engine) nextInOrder() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.roster) == 0 {
		return "", ErrEmptyRoster
	}
	e.cursor = (e.cursor + 1) % len(e.roster)
	return e.roster[e.cursor].Name, nil
}

func (e *Engine) pickRandom() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.roster) == 0 {
		return "", ErrEmptyRoster
	}
	var i int
	if e.opts.rand != nil {
		i = e.opts.rand.IntN(len(e.roster))
	} else {
		i = rand.IntN(len(e.roster))
	}
	return e.roster[i].Name, nil
}

func (e *Engine) candidates(current string, includeCurrent bool) ([]member.Info, []member.Info, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graph == nil || !e.graph.Has(current) {
		return nil, nil, fmt.Errorf("%w: %s", member.ErrNotFound, current)
	}
	var neighbors []member.Info
	for _, name := range e.graph.Neighbors(current) {
		neighbors = append(neighbors, e.infos[name])
	}
	if len(neighbors) == 0 {
		return nil, nil, nil
	}
	var cands []member.Info
	if includeCurrent {
		cands = append(cands, e.infos[current])
	}
	return append(cands, neighbors...), neighbors, nil
}

func (e *Engine) ask(ctx context.Context, req Request) (string, error) {
	cands, neighbors, err := e.candidates(req.Current, req.IncludeCurrent)
	if err != nil {
		return "", err
	}
	if len(neighbors) == 0 {
		return req.Current, nil
	}
	sel := &oracle.SelectRequest{
		Model:      req.Model,
		System:     systemPrompt,
		Candidates: make([]oracle.Candidate, len(cands)),
		Mode:       oracle.SelectByEnum,
	}
	for i, c := range cands {
		sel.Candidates[i] = oracle.Candidate{Name: c.Name, Description: fmt.Sprintf("%s (%s)", c.Description, c.Role)}
	}
	if req.Mode == ModeAuto {
		sel.Mode = oracle.SelectByTool
		sel.Prompt = toolPrompt(req.Background, req.History)
	} else {
		sel.Prompt = enumPrompt(req.Background, neighbors, req.History)
	}
	name, err := e.oracle.Select(ctx, sel)
	if err != nil {
		return "", err
	}
	if err := oracle.CandidateSet(sel.Candidates).Check(name); err != nil {
		return "", err
	}
	return name, nil
}

// fatal reports errors no retry can fix.
func fatal(err error) bool {
	return errors.Is(err, ErrUnknownMode) ||
		errors.Is(err, ErrEmptyRoster) ||
		errors.Is(err, member.ErrNotFound) ||
		errors.Is(err, oracle.ErrOutOfSet) ||
		errors.Is(err, oracle.ErrNoCandidates) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
