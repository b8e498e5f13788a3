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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"

	"trpc.group/trpc-go/trpc-agent-group/oracle"
)

// Task is one step of a plan.
type Task struct {
	// AgentName is the member doing the step.
	AgentName string `json:"agent_name"`
	// Task is what the member has to do.
	Task string `json:"task"`
	// ReceiveInformationFrom names the members whose messages the step
	// consumes.
	ReceiveInformationFrom []string `json:"receive_information_from"`
}

// Plan is an ordered list of steps; order is execution order.
type Plan []Task

// String renders the plan step by step.
func (p Plan) String() string {
	steps := make([]string, len(p))
	for i, t := range p {
		steps[i] = fmt.Sprintf("Step %d: %s\n%s\nreceive information from: [%s]\n",
			i+1, t.AgentName, t.Task, strings.Join(t.ReceiveInformationFrom, ", "))
	}
	return strings.Join(steps, "\n")
}

type planDoc struct {
	Tasks Plan `json:"tasks"`
}

type extraTasksDoc struct {
	AddExtraTasks bool     `json:"add_extra_tasks"`
	Tasks         []string `json:"tasks"`
}

// planSchema restricts every member reference of a plan to set.
func planSchema(set *oracle.ClosedSet) *jsonschema.Schema {
	task := oracle.Object(
		oracle.Property{Name: "agent_name", Schema: set.Schema()},
		oracle.Property{Name: "task", Schema: oracle.String()},
		oracle.Property{Name: "receive_information_from", Schema: oracle.Array(set.Schema())},
	)
	return oracle.Object(oracle.Property{Name: "tasks", Schema: oracle.Array(task)})
}

func extraTasksSchema() *jsonschema.Schema {
	return oracle.Object(
		oracle.Property{Name: "add_extra_tasks", Schema: oracle.Boolean()},
		oracle.Property{Name: "tasks", Schema: oracle.Array(oracle.String())},
	)
}

// decodePlan parses an oracle answer and checks it against set.
func decodePlan(data []byte, set *oracle.ClosedSet) (Plan, error) {
	var doc planDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("planner: decode plan: %w", err)
	}
	for i, t := range doc.Tasks {
		if err := set.Check(t.AgentName); err != nil {
			return nil, fmt.Errorf("planner: step %d agent: %w", i+1, err)
		}
		if err := set.CheckAll(t.ReceiveInformationFrom); err != nil {
			return nil, fmt.Errorf("planner: step %d sources: %w", i+1, err)
		}
	}
	return doc.Tasks, nil
}
