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
	"trpc.group/trpc-go/trpc-agent-group/member"
	"trpc.group/trpc-go/trpc-agent-group/message"
)

// PublicEnv is the part of the environment that may be shared with members
// and clients: descriptors only, no implementations.
type PublicEnv struct {
	Description   string              `json:"description"`
	Members       []member.Info       `json:"members"`
	Relationships map[string][]string `json:"relationships"`
	Language      string              `json:"language,omitempty"`
}

// Protocol is a snapshot of the group conversation.
type Protocol struct {
	GroupID string            `json:"group_id"`
	Env     PublicEnv         `json:"env"`
	Context []message.Message `json:"context"`
	// NextAgent is the member chosen by the latest handoff.
	NextAgent string `json:"next_agent,omitempty"`
}
