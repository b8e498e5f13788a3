//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package handoff

import (
	"errors"
	"fmt"
)

// Mode selects how the next member is chosen.
type Mode string

// Selection modes.
const (
	// ModeOrder walks the roster round robin, ignoring relationships.
	ModeOrder Mode = "order"
	// ModeRandom picks a member uniformly.
	ModeRandom Mode = "random"
	// ModeAuto asks the oracle to call one tool per candidate.
	ModeAuto Mode = "auto"
	// ModeAuto2 asks the oracle for a structured answer restricted to an
	// enum of candidates.
	ModeAuto2 Mode = "auto2"
)

// ErrUnknownMode is returned for a mode literal outside the ones above.
var ErrUnknownMode = errors.New("handoff: unknown mode")

// ParseMode validates a mode literal. The empty string yields ModeAuto2.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case "":
		return ModeAuto2, nil
	case ModeOrder, ModeRandom, ModeAuto, ModeAuto2:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

func (m Mode) oracleBacked() bool {
	return m == ModeAuto || m == ModeAuto2
}
