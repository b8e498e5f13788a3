//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package planner

import (
	"fmt"

	"trpc.group/trpc-go/trpc-agent-group/member"
	"trpc.group/trpc-go/trpc-agent-group/message"
)

const (
	plannerSystem = "As an experienced planner with strong analytical and organizational skills, " +
		"your role is to analyze tasks and delegate sub-tasks to group members. " +
		"Ensure efficient completion by considering task order, member capabilities, and resource allocation. " +
		"Communicate clearly and adapt to changing circumstances. " +
		"Each task should include the agent's name, the task description, " +
		"and a list of agents from whom they need to receive information (this list can be empty)."

	assistantSystem = "As a planner assistant, you play a crucial role in supporting the planning process " +
		"by providing valuable insights and suggestions. " +
		"Your feedback can help optimize task allocation and improve overall project efficiency. " +
		"Review the current task, agent response, and existing plan, then decide whether additional tasks are needed."
)

func (p *Planner) withLanguage(prompt string) string {
	if p.opts.language == "" {
		return prompt
	}
	return prompt + fmt.Sprintf("\n\n### Response in Language: %s\n", p.opts.language)
}

func (p *Planner) context(roster []member.Info) string {
	return fmt.Sprintf("### Contextual Information\n%s\n\n"+
		"### Potential Members\n%s\n\n"+
		"### Task for Planning\n```\n%s\n```\n\n",
		p.opts.description, member.DescribeAll(roster), p.task)
}

func (p *Planner) planningPrompt(roster []member.Info) string {
	return p.withLanguage(p.context(roster) +
		"### Strategy\n" +
		"First, evaluate team members' skills and availability to form a balanced group, " +
		"ensuring a mix of competencies and expertise. " +
		"Then, break the main task into prioritized sub-tasks and assign them based on expertise")
}

func (p *Planner) feedbackPrompt(roster []member.Info) string {
	return p.withLanguage(p.context(roster) +
		fmt.Sprintf("### Initial Plan\n```\n%s\n```\n\n", p.plan) +
		"Please review the initial plan and offer constructive feedback, " +
		"highlighting any improvements or adjustments that could enhance the project's success, " +
		"response in a concise and clear sentence.")
}

func (p *Planner) revisePrompt(roster []member.Info, feedbacks string) string {
	return p.withLanguage(p.context(roster) +
		fmt.Sprintf("### Initial Plan\n```\n%s\n```\n\n", p.plan) +
		fmt.Sprintf("### Feedbacks\n%s\n\n", feedbacks) +
		"Please revise the plan by addressing the feedback provided. Ensure that all concerns are considered, " +
		"and make necessary adjustments to improve the plan's effectiveness and feasibility. ")
}

func (p *Planner) inTransitPrompt(agent member.Info, step Task, response []message.Message) string {
	return p.withLanguage(fmt.Sprintf("### Contextual Information\n%s\n\n"+
		"### Task Overview\n```\n%s\n```\n\n"+
		"### Proposed Task Plan\n```\n%s\n```\n\n"+
		"### Current Agent Profile\n%s\n\n"+
		"### Current Task Details\n```\n%s\n```\n\n"+
		"### Current Response\n```\n%s\n```\n\n"+
		"### Inquiry\n"+
		"Given the information above, do you think we should add any additional tasks for current agent? "+
		"Yes/No for add extra tasks. "+
		"Make sure to consider the agent's skills, availability, and the project's requirements. "+
		"If you choose to add extra tasks, please provide a clear and concise response, "+
		"the task description should include sufficient details to let the agent do the task standalone.",
		p.opts.description, p.task, p.plan, agent.Describe(), step.Task, message.Format(response)))
}
