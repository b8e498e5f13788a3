//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package ws provides a group member that relays prompts to a remote agent
// over a websocket connection.
//
// Each prompt is written as {"content": prompt} and the next text frame is
// taken as the reply.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"trpc.group/trpc-go/trpc-agent-group/log"
	"trpc.group/trpc-go/trpc-agent-group/member"
	"trpc.group/trpc-go/trpc-agent-group/message"
)

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("ws: member closed")

// Option configures a Member.
type Option func(*options)

type options struct {
	description string
	header      http.Header
	dialer      *websocket.Dialer
}

// WithDescription sets the short public description.
func WithDescription(d string) Option {
	return func(o *options) { o.description = d }
}

// WithHeader sets the handshake headers.
func WithHeader(h http.Header) Option {
	return func(o *options) { o.header = h }
}

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

type request struct {
	Content string `json:"content"`
}

// Member is a remote agent reached over a websocket.
type Member struct {
	info   member.Info
	url    string
	header http.Header
	dialer *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// New creates a websocket member. The connection is dialed on first use and
// re-dialed after a failure.
func New(name, role, url string, opts ...Option) *Member {
	o := options{dialer: websocket.DefaultDialer}
	for _, opt := range opts {
		opt(&o)
	}
	return &Member{
		info:   member.Info{Name: name, Role: role, Description: o.description},
		url:    url,
		header: o.header,
		dialer: o.dialer,
	}
}

// Info implements member.Member.
func (m *Member) Info() member.Info {
	return m.info
}

// Do implements member.Member.
func (m *Member) Do(ctx context.Context, prompt string) ([]message.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if m.conn == nil {
		conn, _, err := m.dialer.DialContext(ctx, m.url, m.header)
		if err != nil {
			return nil, fmt.Errorf("member %s: dial %s: %w", m.info.Name, m.url, err)
		}
		m.conn = conn
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	_ = m.conn.SetWriteDeadline(deadline)
	_ = m.conn.SetReadDeadline(deadline)

	if err := m.conn.WriteJSON(request{Content: prompt}); err != nil {
		m.drop()
		return nil, fmt.Errorf("member %s: send: %w", m.info.Name, err)
	}
	_, reply, err := m.conn.ReadMessage()
	if err != nil {
		m.drop()
		return nil, fmt.Errorf("member %s: receive: %w", m.info.Name, err)
	}
	return []message.Message{message.Talk(m.info.Name, string(reply))}, nil
}

func (m *Member) drop() {
	if err := m.conn.Close(); err != nil {
		log.Debugf("member %s: close broken connection: %v", m.info.Name, err)
	}
	m.conn = nil
}

// Close closes the connection. Further calls to Do fail with ErrClosed.
func (m *Member) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.conn == nil {
		return nil
	}
	err := m.conn.Close()
	m.conn = nil
	return err
}
