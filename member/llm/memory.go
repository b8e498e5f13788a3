//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package llm

import (
	"fmt"
	"strings"
	"sync"
)

// workingMemory keeps the latest exchanges of a member, oldest first.
type workingMemory struct {
	mu      sync.Mutex
	limit   int
	entries []string
}

func newWorkingMemory(limit int) *workingMemory {
	return &workingMemory{limit: limit}
}

// add records one exchange, dropping the oldest beyond the limit.
func (w *workingMemory) add(query, response string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, fmt.Sprintf("user's query: %s \n\n your response: %s", query, response))
	if over := len(w.entries) - w.limit; over > 0 {
		w.entries = append(w.entries[:0:0], w.entries[over:]...)
	}
}

// prefix returns the recent memory section placed before a query, empty
// while nothing is remembered.
func (w *workingMemory) prefix() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.entries) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("### Your Recent Memory:\n```\n### Working Memory:\n")
	for _, e := range w.entries {
		b.WriteString(e)
		b.WriteString("\n---\n")
	}
	b.WriteString("```\n\n")
	return b.String()
}

func (w *workingMemory) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = nil
}
