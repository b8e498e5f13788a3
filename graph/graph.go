//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package graph builds the relationship graph that constrains which member
// may hand a conversation to which, and classifies its structure.
package graph

import (
	"fmt"
	"slices"

	"trpc.group/trpc-go/trpc-agent-group/env"
	"trpc.group/trpc-go/trpc-agent-group/log"
	"trpc.group/trpc-go/trpc-agent-group/member"
)

// Graph is the canonical adjacency of a roster. Every member is a key, even
// when it has no neighbors.
type Graph struct {
	members        []string
	adj            map[string][]string
	fullyConnected bool
}

// Build produces the adjacency for members.
//
//   - nil relationships: full mesh, every member adjacent to every other one.
//   - pairs: each undirected pair becomes two directed edges.
//   - mapping: copied, members missing as keys get no neighbors.
func Build(members []string, rel *env.Relationships) (*Graph, error) {
	g := &Graph{
		members: slices.Clone(members),
		adj:     make(map[string][]string, len(members)),
	}
	for _, m := range members {
		if _, ok := g.adj[m]; ok {
			return nil, fmt.Errorf("%w: %s", member.ErrDuplicate, m)
		}
		g.adj[m] = nil
	}

	switch {
	case rel == nil:
		log.Debugf("relationships not given, all members are fully connected")
		g.fullyConnected = true
		g.mesh()
	case rel.Mapping != nil:
		for from, tos := range rel.Mapping {
			for _, to := range tos {
				if err := g.link(from, to); err != nil {
					return nil, err
				}
			}
		}
	default:
		for _, p := range rel.Pairs {
			if err := g.link(p[0], p[1]); err != nil {
				return nil, err
			}
			if err := g.link(p[1], p[0]); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

func (g *Graph) mesh() {
	for _, m := range g.members {
		neighbors := make([]string, 0, len(g.members)-1)
		for _, n := range g.members {
			if n != m {
				neighbors = append(neighbors, n)
			}
		}
		g.adj[m] = neighbors
	}
}

// link adds the directed edge from -> to. Self edges and duplicates are
// ignored.
func (g *Graph) link(from, to string) error {
	for _, name := range []string{from, to} {
		if _, ok := g.adj[name]; !ok {
			return fmt.Errorf("%w: %s", member.ErrNotFound, name)
		}
	}
	if from == to {
		log.Warnf("ignore self relation of %s", from)
		return nil
	}
	if !slices.Contains(g.adj[from], to) {
		g.adj[from] = append(g.adj[from], to)
	}
	return nil
}

// FullyConnected reports whether the graph was built without relationships.
func (g *Graph) FullyConnected() bool {
	return g.fullyConnected
}

// Members returns member names in roster order.
func (g *Graph) Members() []string {
	return slices.Clone(g.members)
}

// Has reports whether name is part of the graph.
func (g *Graph) Has(name string) bool {
	_, ok := g.adj[name]
	return ok
}

// Neighbors returns the members name may hand off to.
func (g *Graph) Neighbors(name string) []string {
	return slices.Clone(g.adj[name])
}

// Adjacency returns a copy of the whole mapping.
func (g *Graph) Adjacency() map[string][]string {
	out := make(map[string][]string, len(g.adj))
	for k, v := range g.adj {
		out[k] = slices.Clone(v)
	}
	return out
}

// Edges lists every directed edge in roster order.
func (g *Graph) Edges() [][2]string {
	var out [][2]string
	for _, m := range g.members {
		for _, n := range g.adj[m] {
			out = append(out, [2]string{m, n})
		}
	}
	return out
}

// AddMember adds name to the graph. A fully connected graph stays fully
// connected. Otherwise only the given directed relations that mention name
// are added.
func (g *Graph) AddMember(name string, relations ...[2]string) error {
	if g.Has(name) {
		return fmt.Errorf("%w: %s", member.ErrDuplicate, name)
	}
	g.members = append(g.members, name)
	g.adj[name] = nil
	if g.fullyConnected {
		g.mesh()
		return nil
	}
	for _, r := range relations {
		if r[0] != name && r[1] != name {
			continue
		}
		if err := g.link(r[0], r[1]); err != nil {
			return err
		}
	}
	return nil
}

// RemoveMember strips name from the mapping and from every neighbor list.
func (g *Graph) RemoveMember(name string) error {
	if !g.Has(name) {
		return fmt.Errorf("%w: %s", member.ErrNotFound, name)
	}
	delete(g.adj, name)
	g.members = slices.DeleteFunc(g.members, func(m string) bool { return m == name })
	for k, v := range g.adj {
		g.adj[k] = slices.DeleteFunc(v, func(n string) bool { return n == name })
	}
	return nil
}
