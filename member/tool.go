//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package member

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"trpc.group/trpc-go/trpc-agent-group/log"
)

// Declaration describes a tool to a model.
type Declaration struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// ParametersMap returns the parameter schema as a generic JSON object.
func (d *Declaration) ParametersMap() (map[string]any, error) {
	if d.Parameters == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}, nil
	}
	b, err := json.Marshal(d.Parameters)
	if err != nil {
		return nil, fmt.Errorf("marshal parameters of %s: %w", d.Name, err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("unmarshal parameters of %s: %w", d.Name, err)
	}
	return out, nil
}

// Tool is a callable affordance of a model backed member.
type Tool interface {
	Declaration() *Declaration
	Call(ctx context.Context, args []byte) (any, error)
}

// FunctionTool wraps a typed Go function as a Tool. The parameter schema is
// reflected from I.
type FunctionTool[I, O any] struct {
	name        string
	description string
	params      *jsonschema.Schema
	fn          func(context.Context, I) (O, error)
}

// NewFunctionTool wraps fn under the given name.
func NewFunctionTool[I, O any](name, description string, fn func(context.Context, I) (O, error)) *FunctionTool[I, O] {
	if description == "" {
		log.Warnf("FunctionTool %s: description is empty", name)
	}
	r := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true, Anonymous: true}
	var zero I
	params := r.Reflect(&zero)
	params.Version = ""
	return &FunctionTool[I, O]{
		name:        name,
		description: description,
		params:      params,
		fn:          fn,
	}
}

// Declaration implements Tool.
func (t *FunctionTool[I, O]) Declaration() *Declaration {
	return &Declaration{Name: t.name, Description: t.description, Parameters: t.params}
}

// Call implements Tool.
func (t *FunctionTool[I, O]) Call(ctx context.Context, args []byte) (any, error) {
	var in I
	if len(args) > 0 {
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("tool %s: decode arguments: %w", t.name, err)
		}
	}
	return t.fn(ctx, in)
}

// ToolNames lists tool names in order.
func ToolNames(tools []Tool) []string {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Declaration().Name)
	}
	return names
}
