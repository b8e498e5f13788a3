//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package message

// Log is an append-only ordered record of messages.
// Window sizes n <= 0 mean "unbounded" everywhere.
// The zero value is ready to use.
type Log struct {
	msgs []Message
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append records messages in order.
func (l *Log) Append(msgs ...Message) {
	l.msgs = append(l.msgs, msgs...)
}

// Len returns the number of recorded messages.
func (l *Log) Len() int {
	return len(l.msgs)
}

// All returns a copy of every message.
func (l *Log) All() []Message {
	return clone(l.msgs)
}

// Last returns the last n messages.
func (l *Log) Last(n int) []Message {
	return clone(tail(l.msgs, n))
}

// LastMessage returns the most recent message.
func (l *Log) LastMessage() (Message, bool) {
	if len(l.msgs) == 0 {
		return Message{}, false
	}
	return l.msgs[len(l.msgs)-1], true
}

// LastBy returns the last n messages sent by sender.
func (l *Log) LastBy(sender string, n int) []Message {
	return tail(l.filter(func(m Message) bool { return m.Sender == sender }), n)
}

// LastOthers returns the last n messages sent by anyone but sender.
func (l *Log) LastOthers(sender string, n int) []Message {
	return tail(l.filter(func(m Message) bool { return m.Sender != sender }), n)
}

// WindowSplit takes the last n messages of the whole log and partitions them
// into the ones sent by sender and the rest, preserving order.
func (l *Log) WindowSplit(sender string, n int) (own, others []Message) {
	for _, m := range tail(l.msgs, n) {
		if m.Sender == sender {
			own = append(own, m)
		} else {
			others = append(others, m)
		}
	}
	return own, others
}

// FirstFrom returns, in log order, up to n messages from each of the given
// senders.
func (l *Log) FirstFrom(senders []string, n int) []Message {
	if len(senders) == 0 {
		return nil
	}
	want := make(map[string]int, len(senders))
	for _, s := range senders {
		want[s] = 0
	}
	var out []Message
	for _, m := range l.msgs {
		count, ok := want[m.Sender]
		if !ok || (n > 0 && count >= n) {
			continue
		}
		want[m.Sender] = count + 1
		out = append(out, m)
	}
	return out
}

// Reset clears the log.
func (l *Log) Reset() {
	l.msgs = nil
}

func (l *Log) filter(keep func(Message) bool) []Message {
	var out []Message
	for _, m := range l.msgs {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func tail(msgs []Message, n int) []Message {
	if n <= 0 || n >= len(msgs) {
		return msgs
	}
	return msgs[len(msgs)-n:]
}

func clone(msgs []Message) []Message {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
