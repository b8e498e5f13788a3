//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package oracle

import (
	"fmt"
	"strconv"
	"strings"
)

// maxToolNameLen is the longest function name provider tool APIs accept.
const maxToolNameLen = 64

// ToolNames maps candidates to function names that provider tool APIs
// accept: letters, digits, '_' and '-', starting with a letter or '_', at
// most 64 bytes. Clashes after sanitizing get a numeric suffix.
type ToolNames struct {
	names []string
	back  map[string]string
}

// NewToolNames sanitizes the candidate names in order.
func NewToolNames(cs []Candidate) *ToolNames {
	t := &ToolNames{names: make([]string, len(cs)), back: make(map[string]string, len(cs))}
	for i, c := range cs {
		base := sanitizeToolName(c.Name)
		name := base
		for n := 2; ; n++ {
			if _, taken := t.back[name]; !taken {
				break
			}
			suffix := "_" + strconv.Itoa(n)
			name = truncate(base, maxToolNameLen-len(suffix)) + suffix
		}
		t.names[i] = name
		t.back[name] = c.Name
	}
	return t
}

// Name returns the function name of the i-th candidate.
func (t *ToolNames) Name(i int) string {
	return t.names[i]
}

// Description returns the tool description of c, naming the member when its
// function name differs from it.
func (t *ToolNames) Description(i int, c Candidate) string {
	if t.names[i] == c.Name {
		return c.Description
	}
	return fmt.Sprintf("%s: %s", c.Name, c.Description)
}

// Resolve maps a function name chosen by the model back to the candidate.
func (t *ToolNames) Resolve(fn string) (string, error) {
	name, ok := t.back[fn]
	if !ok {
		return "", fmt.Errorf("%w: function %q not in %v", ErrOutOfSet, fn, t.names)
	}
	return name, nil
}

func sanitizeToolName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := b.String()
	if s == "" || !(s[0] == '_' || (s[0] >= 'a' && s[0] <= 'z') || (s[0] >= 'A' && s[0] <= 'Z')) {
		s = "_" + s
	}
	return truncate(s, maxToolNameLen)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
