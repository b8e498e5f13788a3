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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSequenceOK(t *testing.T) {
	edges := [][2]string{{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "D"}}
	require.NoError(t, ValidateSequence(edges, "A", "D"))
}

func TestValidateSequenceCycle(t *testing.T) {
	edges := [][2]string{{"A", "B"}, {"B", "C"}, {"C", "B"}, {"C", "D"}}
	err := ValidateSequence(edges, "A", "D")
	require.ErrorIs(t, err, ErrInvalidSequence)

	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Contains(t, []string{"B", "C"}, cycle.Node)
}

func TestValidateSequenceSelfLoopOnEntry(t *testing.T) {
	edges := [][2]string{{"A", "B"}, {"B", "A"}}
	var cycle *CycleError
	require.True(t, errors.As(ValidateSequence(edges, "A", "B"), &cycle))
	assert.Contains(t, []string{"A", "B"}, cycle.Node)
}

func TestValidateSequenceForwardUnreachable(t *testing.T) {
	// X and Y feed into the chain but nothing leads to them.
	edges := [][2]string{{"A", "B"}, {"X", "B"}, {"Y", "X"}}
	err := ValidateSequence(edges, "A", "B")

	var reach *ReachabilityError
	require.True(t, errors.As(err, &reach))
	assert.Equal(t, Forward, reach.Direction)
	assert.Equal(t, []string{"X", "Y"}, reach.Missing)
	assert.Contains(t, err.Error(), "not reachable from START")
}

func TestValidateSequenceBackwardUnreachable(t *testing.T) {
	// C is reachable from A but never reaches the exit B.
	edges := [][2]string{{"A", "B"}, {"A", "C"}}
	err := ValidateSequence(edges, "A", "B")

	var reach *ReachabilityError
	require.True(t, errors.As(err, &reach))
	assert.Equal(t, Backward, reach.Direction)
	assert.Equal(t, []string{"C"}, reach.Missing)
}

func TestValidateSequenceScenarioEntryExit(t *testing.T) {
	// Directed A->B, A->C with exit C: B cannot reach END.
	edges := [][2]string{{"A", "B"}, {"A", "C"}}
	err := ValidateSequence(edges, "A", "C")
	var reach *ReachabilityError
	require.True(t, errors.As(err, &reach))
	assert.Equal(t, []string{"B"}, reach.Missing)
}
