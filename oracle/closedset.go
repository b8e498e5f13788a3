//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package oracle

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/invopop/jsonschema"
)

// ClosedSet is a runtime supplied set of legal string values. It validates
// answers and renders itself as a JSON schema enum.
type ClosedSet struct {
	values []string
	index  map[string]struct{}
}

// NewClosedSet builds a set keeping first occurrence order.
func NewClosedSet(values ...string) *ClosedSet {
	s := &ClosedSet{index: make(map[string]struct{}, len(values))}
	for _, v := range values {
		if _, ok := s.index[v]; ok {
			continue
		}
		s.index[v] = struct{}{}
		s.values = append(s.values, v)
	}
	return s
}

// Values returns the legal values in order.
func (s *ClosedSet) Values() []string {
	return slices.Clone(s.values)
}

// Len returns the number of legal values.
func (s *ClosedSet) Len() int {
	return len(s.values)
}

// Contains reports whether v is legal.
func (s *ClosedSet) Contains(v string) bool {
	_, ok := s.index[v]
	return ok
}

// Check returns ErrOutOfSet when v is not legal.
func (s *ClosedSet) Check(v string) error {
	if !s.Contains(v) {
		return fmt.Errorf("%w: %q not in %v", ErrOutOfSet, v, s.values)
	}
	return nil
}

// CheckAll checks every value.
func (s *ClosedSet) CheckAll(vs []string) error {
	for _, v := range vs {
		if err := s.Check(v); err != nil {
			return err
		}
	}
	return nil
}

// Schema renders the set as a string enum.
func (s *ClosedSet) Schema() *jsonschema.Schema {
	enum := make([]any, len(s.values))
	for i, v := range s.values {
		enum[i] = v
	}
	return &jsonschema.Schema{Type: "string", Enum: enum}
}

// FieldAgentName is the field carrying a selection.
const FieldAgentName = "agent_name"

// Choice is the structured form of a selection.
type Choice struct {
	AgentName string `json:"agent_name"`
}

// ChoiceSchema is an object with one agent_name field restricted to set.
func ChoiceSchema(set *ClosedSet) *jsonschema.Schema {
	return Object(Property{Name: FieldAgentName, Schema: set.Schema()})
}

// DecodeChoice parses a structured selection and validates it against set.
func DecodeChoice(data []byte, set *ClosedSet) (string, error) {
	var c Choice
	if err := json.Unmarshal(data, &c); err != nil {
		return "", fmt.Errorf("oracle: decode choice: %w", err)
	}
	if c.AgentName == "" {
		return "", ErrEmptyResponse
	}
	if err := set.Check(c.AgentName); err != nil {
		return "", err
	}
	return c.AgentName, nil
}

// Property is a named field of an object schema.
type Property struct {
	Name   string
	Schema *jsonschema.Schema
}

// Object builds a strict object schema: every property is required and no
// other property is allowed.
func Object(props ...Property) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:                 "object",
		Properties:           jsonschema.NewProperties(),
		AdditionalProperties: jsonschema.FalseSchema,
	}
	for _, p := range props {
		s.Properties.Set(p.Name, p.Schema)
		s.Required = append(s.Required, p.Name)
	}
	return s
}

// Array builds an array schema of items.
func Array(items *jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Items: items}
}

// String is a plain string schema.
func String() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string"}
}

// Boolean is a plain boolean schema.
func Boolean() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "boolean"}
}

// SchemaMap converts a schema to a generic JSON object as provider SDKs
// expect.
func SchemaMap(s *jsonschema.Schema) (map[string]any, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("oracle: marshal schema: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("oracle: unmarshal schema: %w", err)
	}
	return out, nil
}
