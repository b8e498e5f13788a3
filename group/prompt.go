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
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-agent-group/member"
	"trpc.group/trpc-go/trpc-agent-group/message"
	"trpc.group/trpc-go/trpc-agent-group/planner"
)

// decorate adds the workspace header and the language footer.
func (g *Group) decorate(prompt string) string {
	if g.workspace != "" {
		prompt = fmt.Sprintf("### Workspace\n%s\n\n", g.workspace) + prompt
	}
	if g.env.Language != "" {
		prompt += fmt.Sprintf("\n\n### Response in Language: %s\n", g.env.Language)
	}
	return prompt
}

// sendPrompt builds the prompt of a chat turn for to, showing the last
// cutOff messages split into its own and everybody else's.
func (g *Group) sendPrompt(to string, cutOff int) string {
	own, others := g.messages.WindowSplit(to, cutOff)
	var b strings.Builder
	fmt.Fprintf(&b, "### Background Information\n%s\n\n", g.env.Description)
	fmt.Fprintf(&b, "### Members\n%s\n\n", member.DescribeAll(g.roster()))
	fmt.Fprintf(&b, "### Your Previous Message\n%s\n\n", message.Format(own))
	fmt.Fprintf(&b, "### Other people's Messages\n%s\n\n", message.Format(others))
	b.WriteString("### Task\nConsider the Background Information and the previous messages. Now, it's your turn.")

	if last, ok := g.messages.LastMessage(); ok && last.Sender == message.SenderUser {
		switch last.Action {
		case message.ActionTask:
			fmt.Fprintf(&b, "\n\n### Current Task\n%s\n\n", last.Result)
		case message.ActionTalk:
			fmt.Fprintf(&b, "\n\n### Current User's Input\n%s\n\n", last.Result)
		}
	}
	return g.decorate(b.String())
}

// taskPrompt builds the prompt of one plan step: the agent's own recent
// messages plus up to cutOff messages from each member it receives
// information from.
func (g *Group) taskPrompt(mainTask string, step planner.Task, cutOff int) string {
	own := g.messages.LastBy(step.AgentName, cutOff)
	received := g.messages.FirstFrom(step.ReceiveInformationFrom, cutOff)
	prompt := fmt.Sprintf("### Background Information\n%s\n\n"+
		"### Main Task\n```\n%s\n```\n\n"+
		"### Members\n%s\n\n"+
		"### Your Previous Message\n%s\n\n"+
		"### Received Information\n%s\n\n"+
		"### Task\n```\n%s\n```\n\n"+
		"Please respond to the task.",
		g.env.Description, mainTask, member.BriefAll(g.roster()),
		message.Format(own), message.Format(received), step.Task)
	return g.decorate(prompt)
}
