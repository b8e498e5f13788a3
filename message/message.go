//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package message defines the messages exchanged inside an agent group and
// the append-only log that records them.
package message

import (
	"fmt"
	"strings"
)

// Action tags what a message carries.
type Action string

// Supported actions.
const (
	ActionTalk   Action = "talk"
	ActionTask   Action = "task"
	ActionSystem Action = "system"
)

// Well known senders.
const (
	SenderUser   = "user"
	SenderSystem = "system"
)

// Message is one entry of a group conversation.
type Message struct {
	Sender string `json:"sender"`
	Action Action `json:"action"`
	Result string `json:"result"`
}

// Talk builds a talk message for sender.
func Talk(sender, result string) Message {
	return Message{Sender: sender, Action: ActionTalk, Result: result}
}

// System builds a system message.
func System(result string) Message {
	return Message{Sender: SenderSystem, Action: ActionSystem, Result: result}
}

// String renders the message as a fenced block headed by sender and action.
func (m Message) String() string {
	return fmt.Sprintf("```%s:%s\n%s\n```", m.Sender, m.Action, m.Result)
}

// Format renders messages separated by blank lines.
func Format(msgs []Message) string {
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = m.String()
	}
	return strings.Join(parts, "\n\n")
}
