//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package member defines the capability every group member implements and
// the descriptor the orchestration core reads from it.
//
// Concrete members live in sub packages: llm (model backed), a2a (remote
// agent over HTTP) and ws (remote agent over a websocket).
package member

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-agent-group/message"
)

var (
	// ErrDuplicate is returned when a member name is already taken.
	ErrDuplicate = errors.New("member: duplicate name")
	// ErrNotFound is returned when a member name is unknown.
	ErrNotFound = errors.New("member: not found")
	// ErrEmptyName is returned for members without a name.
	ErrEmptyName = errors.New("member: empty name")
)

// Member is one participant of a group.
type Member interface {
	// Info describes the member.
	Info() Info
	// Do handles a prompt and returns one or more messages sent by the member.
	Do(ctx context.Context, prompt string) ([]message.Message, error)
}

// Info is the public descriptor of a member.
type Info struct {
	Name        string   `json:"name" yaml:"name"`
	Role        string   `json:"role" yaml:"role"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tools       []string `json:"tools,omitempty" yaml:"tools,omitempty"`
}

// Describe renders "- name (role)" followed by tool affordances if any.
func (i Info) Describe() string {
	s := fmt.Sprintf("- %s (%s)", i.Name, i.Role)
	if len(i.Tools) > 0 {
		s += fmt.Sprintf(" [tools available: %s]", strings.Join(i.Tools, ", "))
	}
	return s
}

// Brief renders "- name (role)" without tools.
func (i Info) Brief() string {
	return fmt.Sprintf("- %s (%s)", i.Name, i.Role)
}

// DescribeAll joins Describe lines.
func DescribeAll(infos []Info) string {
	lines := make([]string, len(infos))
	for idx, i := range infos {
		lines[idx] = i.Describe()
	}
	return strings.Join(lines, "\n")
}

// BriefAll joins Brief lines.
func BriefAll(infos []Info) string {
	lines := make([]string, len(infos))
	for idx, i := range infos {
		lines[idx] = i.Brief()
	}
	return strings.Join(lines, "\n")
}

// Infos collects the descriptors of members in order.
func Infos(members []Member) []Info {
	out := make([]Info, len(members))
	for i, m := range members {
		out[i] = m.Info()
	}
	return out
}

// Index builds a name lookup for members, rejecting empty and duplicate
// names.
func Index(members []Member) (map[string]Member, error) {
	idx := make(map[string]Member, len(members))
	for _, m := range members {
		if m == nil {
			return nil, errors.New("member: nil member")
		}
		name := m.Info().Name
		if name == "" {
			return nil, ErrEmptyName
		}
		if _, ok := idx[name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, name)
		}
		idx[name] = m
	}
	return idx, nil
}
