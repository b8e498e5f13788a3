//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package group

import (
	"errors"

	"trpc.group/trpc-go/trpc-agent-group/member"
)

var (
	// ErrDuplicateMember is returned when adding a name already in the group.
	ErrDuplicateMember = member.ErrDuplicate
	// ErrMemberNotFound is returned for operations on unknown member names.
	ErrMemberNotFound = member.ErrNotFound
	// ErrNoMembers is returned when a group would be left without members.
	ErrNoMembers = errors.New("group: no members")
	// ErrUnknownStrategy is returned for an unrecognized task strategy.
	ErrUnknownStrategy = errors.New("group: unknown task strategy")
	// ErrNotImplemented is returned by the hierarchical strategy.
	ErrNotImplemented = errors.New("group: not implemented")
)
