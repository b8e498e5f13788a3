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
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-agent-group/member"
	"trpc.group/trpc-go/trpc-agent-group/message"
)

const systemPrompt = "Decide who should be the next person to talk. Transfer the conversation to the next person."

// formatMessages renders messages without their action, which is all the
// oracle needs to pick a speaker.
func formatMessages(msgs []message.Message) string {
	blocks := make([]string, len(msgs))
	for i, m := range msgs {
		blocks[i] = fmt.Sprintf("```%s\n %s\n```", m.Sender, m.Result)
	}
	return strings.Join(blocks, "\n\n")
}

func toolPrompt(background string, msgs []message.Message) string {
	return fmt.Sprintf("### Background Information\n%s\n\n### Messages\n%s\n\n", background, formatMessages(msgs))
}

func enumPrompt(background string, neighbors []member.Info, msgs []message.Message) string {
	return fmt.Sprintf("### Background Information\n%s\n\n"+
		"### Members\n%s\n\n"+
		"### Messages\n%s\n\n"+
		"### Task\n"+
		"Consider the Background Information and the previous messages. "+
		"Decide who should be the next person to send a message. Choose from the members.",
		background, member.DescribeAll(neighbors), formatMessages(msgs))
}
