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
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSequence is matched by every sequence validation failure.
var ErrInvalidSequence = errors.New("invalid sequence")

// CycleError reports a node found on a cycle.
type CycleError struct {
	Node string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("[SEQUENCE INVALID] cycle detected at %s", e.Node)
}

// Is makes CycleError match ErrInvalidSequence.
func (e *CycleError) Is(target error) bool { return target == ErrInvalidSequence }

// Direction of a reachability check.
type Direction string

// Directions.
const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// ReachabilityError reports nodes not reachable from START (Forward) or
// unable to reach END (Backward).
type ReachabilityError struct {
	Direction Direction
	Missing   []string
}

func (e *ReachabilityError) Error() string {
	if e.Direction == Forward {
		return fmt.Sprintf("[SEQUENCE INVALID] nodes not reachable from %s: %s",
			StartNode, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("[SEQUENCE INVALID] nodes cannot reach %s: %s",
		EndNode, strings.Join(e.Missing, ", "))
}

// Is makes ReachabilityError match ErrInvalidSequence.
func (e *ReachabilityError) Is(target error) bool { return target == ErrInvalidSequence }
