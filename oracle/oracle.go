//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package oracle defines the decision oracle consulted for handoff and
// planning decisions, together with the closed-set validation applied to its
// answers.
//
// Providers live in sub packages: openai, anthropic and gemini.
package oracle

import (
	"context"
	"errors"

	"github.com/invopop/jsonschema"
)

var (
	// ErrOutOfSet is returned when an answer names a value outside the legal
	// candidate set. It is a contract violation and never retried.
	ErrOutOfSet = errors.New("oracle: answer outside the candidate set")
	// ErrEmptyResponse is returned when a provider answers without a usable
	// choice or payload.
	ErrEmptyResponse = errors.New("oracle: empty response")
	// ErrNoCandidates is returned for selections without candidates.
	ErrNoCandidates = errors.New("oracle: no candidates")
)

// SelectMode is how a selection is constrained.
type SelectMode int

const (
	// SelectByTool exposes every candidate as a tool and forces a tool call.
	SelectByTool SelectMode = iota
	// SelectByEnum asks for structured output whose single field is an enum
	// of the candidates.
	SelectByEnum
)

func (m SelectMode) String() string {
	if m == SelectByEnum {
		return "enum"
	}
	return "tool"
}

// Candidate is one selectable identifier.
type Candidate struct {
	Name        string
	Description string
}

// SelectRequest asks the oracle for exactly one candidate.
type SelectRequest struct {
	// Model overrides the provider default when set.
	Model      string
	System     string
	Prompt     string
	Candidates []Candidate
	Mode       SelectMode
}

// GenerateRequest asks the oracle for a JSON document matching Schema.
type GenerateRequest struct {
	// Model overrides the provider default when set.
	Model       string
	System      string
	Prompt      string
	Name        string
	Description string
	Schema      *jsonschema.Schema
	MaxTokens   int64
}

// Oracle is the external reasoning service.
type Oracle interface {
	// Select returns the name of one candidate. Implementations do not need to
	// validate membership, callers check it with a ClosedSet.
	Select(ctx context.Context, req *SelectRequest) (string, error)
	// Generate returns a JSON document for req.Schema.
	Generate(ctx context.Context, req *GenerateRequest) ([]byte, error)
}

// CandidateSet builds the closed set of candidate names.
func CandidateSet(cands []Candidate) *ClosedSet {
	names := make([]string, len(cands))
	for i, c := range cands {
		names[i] = c.Name
	}
	return NewClosedSet(names...)
}
