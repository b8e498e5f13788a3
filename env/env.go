//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package env describes the environment a group operates in: its
// description, roster, relationships and output language.
package env

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"trpc.group/trpc-go/trpc-agent-group/member"
)

// ErrInvalidEnv is returned for environments that violate roster invariants.
var ErrInvalidEnv = errors.New("env: invalid")

// Relationships constrains who may hand off to whom. Either Pairs (undirected)
// or Mapping (directed adjacency) is set. A nil *Relationships means every
// member may hand off to every other one.
type Relationships struct {
	Pairs   [][2]string
	Mapping map[string][]string
}

// Pairs builds undirected relationships.
func Pairs(pairs ...[2]string) *Relationships {
	return &Relationships{Pairs: pairs}
}

// Mapping builds directed relationships.
func Mapping(m map[string][]string) *Relationships {
	return &Relationships{Mapping: m}
}

// Env is the environment of a group.
type Env struct {
	Description   string
	Members       []member.Member
	Relationships *Relationships
	// Language is an optional hint for the output language.
	Language string
	// Entry and Exit name the first and last member of a sequence structure.
	Entry string
	Exit  string
}

// Names lists member names in roster order.
func (e *Env) Names() []string {
	names := make([]string, len(e.Members))
	for i, m := range e.Members {
		names[i] = m.Info().Name
	}
	return names
}

// Validate checks roster invariants: a non empty roster with unique names,
// relationships naming only existing members and no self relations.
func (e *Env) Validate() error {
	if len(e.Members) == 0 {
		return fmt.Errorf("%w: no members", ErrInvalidEnv)
	}
	idx, err := member.Index(e.Members)
	if err != nil {
		return err
	}
	known := func(name string) error {
		if _, ok := idx[name]; !ok {
			return fmt.Errorf("%w: %s", member.ErrNotFound, name)
		}
		return nil
	}
	for _, name := range []string{e.Entry, e.Exit} {
		if name == "" {
			continue
		}
		if err := known(name); err != nil {
			return err
		}
	}
	if e.Relationships == nil {
		return nil
	}
	for _, p := range e.Relationships.Pairs {
		for _, name := range p {
			if err := known(name); err != nil {
				return err
			}
		}
		if p[0] == p[1] {
			return fmt.Errorf("%w: %s relates to itself", ErrInvalidEnv, p[0])
		}
	}
	for from, tos := range e.Relationships.Mapping {
		if err := known(from); err != nil {
			return err
		}
		for _, to := range tos {
			if err := known(to); err != nil {
				return err
			}
			if to == from {
				return fmt.Errorf("%w: %s relates to itself", ErrInvalidEnv, from)
			}
		}
	}
	return nil
}

// LanguageName turns a language hint into an English display name, so
// "zh-CN" becomes "Simplified Chinese". Values that do not parse as a BCP 47
// tag are returned unchanged.
func LanguageName(hint string) string {
	if hint == "" {
		return ""
	}
	tag, err := language.Parse(hint)
	if err != nil {
		return hint
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return hint
	}
	return name
}
