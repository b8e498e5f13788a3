//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package a2a provides a group member that delegates to a remote agent over
// the A2A protocol.
package a2a

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"trpc.group/trpc-go/trpc-a2a-go/client"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"

	"trpc.group/trpc-go/trpc-agent-group/log"
	"trpc.group/trpc-go/trpc-agent-group/member"
	"trpc.group/trpc-go/trpc-agent-group/message"
)

// Option configures a Member.
type Option func(*options)

type options struct {
	description   string
	timeout       time.Duration
	clientOptions []client.Option
}

// WithDescription sets the short public description.
func WithDescription(d string) Option {
	return func(o *options) { o.description = d }
}

// WithTimeout bounds each remote call.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithAPIKey authenticates with an API key sent in header.
func WithAPIKey(key, header string) Option {
	return func(o *options) { o.clientOptions = append(o.clientOptions, client.WithAPIKeyAuth(key, header)) }
}

// WithClientOptions appends raw A2A client options.
func WithClientOptions(opts ...client.Option) Option {
	return func(o *options) { o.clientOptions = append(o.clientOptions, opts...) }
}

// Member is a remote A2A agent taking part in a group.
type Member struct {
	info      member.Info
	url       string
	contextID string
	client    *client.A2AClient
}

// New creates a member talking to the A2A agent served at url. All calls of
// one member share a conversation context id.
func New(name, role, url string, opts ...Option) (*Member, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	clientOpts := o.clientOptions
	if o.timeout > 0 {
		clientOpts = append([]client.Option{client.WithTimeout(o.timeout)}, clientOpts...)
	}
	c, err := client.NewA2AClient(url, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("member %s: new a2a client: %w", name, err)
	}
	return &Member{
		info:      member.Info{Name: name, Role: role, Description: o.description},
		url:       url,
		contextID: uuid.NewString(),
		client:    c,
	}, nil
}

// Info implements member.Member.
func (m *Member) Info() member.Info {
	return m.info
}

// Do implements member.Member.
func (m *Member) Do(ctx context.Context, prompt string) ([]message.Message, error) {
	msg := protocol.NewMessageWithContext(
		protocol.MessageRoleUser,
		[]protocol.Part{protocol.NewTextPart(prompt)},
		nil, &m.contextID,
	)
	log.Debugf("member %s: calling a2a agent at %s", m.info.Name, m.url)
	result, err := m.client.SendMessage(ctx, protocol.SendMessageParams{Message: msg})
	if err != nil {
		return nil, fmt.Errorf("member %s: a2a request to %s: %w", m.info.Name, m.url, err)
	}
	return []message.Message{message.Talk(m.info.Name, resultText(result.Result))}, nil
}

// resultText flattens a unary result. Task artifacts carry the final answer;
// without any, the last agent message of the history is used.
func resultText(r protocol.UnaryMessageResult) string {
	switch v := r.(type) {
	case *protocol.Message:
		return partsText(v.Parts)
	case *protocol.Task:
		var texts []string
		for _, a := range v.Artifacts {
			if t := partsText(a.Parts); t != "" {
				texts = append(texts, t)
			}
		}
		if len(texts) > 0 {
			return strings.Join(texts, "\n")
		}
		for i := len(v.History) - 1; i >= 0; i-- {
			if v.History[i].Role == protocol.MessageRoleAgent {
				return partsText(v.History[i].Parts)
			}
		}
		if v.Status.Message != nil {
			return partsText(v.Status.Message.Parts)
		}
	case nil:
	default:
		log.Warnf("a2a: unexpected result type %T", r)
	}
	return ""
}

func partsText(parts []protocol.Part) string {
	var texts []string
	for _, p := range parts {
		switch tp := p.(type) {
		case *protocol.TextPart:
			texts = append(texts, tp.Text)
		case protocol.TextPart:
			texts = append(texts, tp.Text)
		}
	}
	return strings.Join(texts, "")
}
