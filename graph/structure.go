//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package graph

import (
	"slices"

	"trpc.group/trpc-go/trpc-agent-group/log"
)

// Synthetic nodes framing a sequence.
const (
	StartNode = "START"
	EndNode   = "END"
)

// Structure classifies a relationship graph.
type Structure string

// Structures.
const (
	// StructureConnected means no explicit relations: everyone may talk to
	// everyone.
	StructureConnected Structure = "CONNECTED"
	// StructureSequence is an acyclic chain from a unique entry to a unique
	// exit where every node lies on some entry to exit path.
	StructureSequence Structure = "SEQUENCE"
	// StructureCustom is any other explicit relation set.
	StructureCustom Structure = "CUSTOM"
)

// Classify decides the structure of g. A graph without any declared edge is
// CONNECTED like a full mesh. A failed sequence validation is not fatal: it
// is logged, the structure falls back to CUSTOM and the validation error is
// returned for diagnostics.
func Classify(g *Graph, entry, exit string) (Structure, error) {
	if g.FullyConnected() || len(g.Edges()) == 0 {
		return StructureConnected, nil
	}
	if entry == "" || exit == "" {
		return StructureCustom, nil
	}
	if err := ValidateSequence(g.Edges(), entry, exit); err != nil {
		log.Warnf("%v, structure falls back to %s", err, StructureCustom)
		return StructureCustom, err
	}
	return StructureSequence, nil
}

// ValidateSequence checks that edges plus START->entry and exit->END form a
// DAG in which every node is reachable from START and can reach END.
func ValidateSequence(edges [][2]string, entry, exit string) error {
	d := newDigraph(edges, entry, exit)
	if node, ok := d.findCycle(); ok {
		return &CycleError{Node: node}
	}
	if missing := d.unreached(StartNode, d.out); len(missing) > 0 {
		return &ReachabilityError{Direction: Forward, Missing: missing}
	}
	if missing := d.unreached(EndNode, d.in); len(missing) > 0 {
		return &ReachabilityError{Direction: Backward, Missing: missing}
	}
	return nil
}

type digraph struct {
	nodes []string
	out   map[string][]string
	in    map[string][]string
}

func newDigraph(edges [][2]string, entry, exit string) *digraph {
	d := &digraph{out: map[string][]string{}, in: map[string][]string{}}
	seen := map[string]bool{}
	add := func(u, v string) {
		for _, n := range []string{u, v} {
			if !seen[n] {
				seen[n] = true
				d.nodes = append(d.nodes, n)
			}
		}
		d.out[u] = append(d.out[u], v)
		d.in[v] = append(d.in[v], u)
	}
	add(StartNode, entry)
	for _, e := range edges {
		add(e[0], e[1])
	}
	add(exit, EndNode)
	return d
}

// findCycle runs an iterative depth first search keeping the current path on
// an explicit stack. A back edge to a node on the path returns that node.
func (d *digraph) findCycle() (string, bool) {
	type frame struct {
		node string
		next int
	}
	visited := map[string]bool{}
	onPath := map[string]bool{}
	for _, root := range d.nodes {
		if visited[root] {
			continue
		}
		stack := []frame{{node: root}}
		visited[root] = true
		onPath[root] = true
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next == len(d.out[top.node]) {
				onPath[top.node] = false
				stack = stack[:len(stack)-1]
				continue
			}
			n := d.out[top.node][top.next]
			top.next++
			if onPath[n] {
				return n, true
			}
			if !visited[n] {
				visited[n] = true
				onPath[n] = true
				stack = append(stack, frame{node: n})
			}
		}
	}
	return "", false
}

// unreached runs a breadth first search from root over next and returns the
// sorted nodes never visited.
func (d *digraph) unreached(root string, next map[string][]string) []string {
	visited := map[string]bool{root: true}
	queue := []string{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, m := range next[n] {
			if !visited[m] {
				visited[m] = true
				queue = append(queue, m)
			}
		}
	}
	var missing []string
	for _, n := range d.nodes {
		if !visited[n] {
			missing = append(missing, n)
		}
	}
	slices.Sort(missing)
	return missing
}
