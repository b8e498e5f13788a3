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
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	itelemetry "trpc.group/trpc-go/trpc-agent-group/internal/telemetry"
)

// Instrument wraps o so that every request emits a span, a request count and
// a duration sample tagged with provider.
func Instrument(o Oracle, provider string) Oracle {
	return &instrumented{next: o, provider: provider}
}

type instrumented struct {
	next     Oracle
	provider string
}

func (i *instrumented) Select(ctx context.Context, req *SelectRequest) (string, error) {
	ctx, span := itelemetry.StartSpan(ctx, itelemetry.OperationSelect, i.provider,
		attribute.String(itelemetry.KeyProvider, i.provider),
		attribute.String(itelemetry.KeyModel, req.Model),
		attribute.String(itelemetry.KeyMode, req.Mode.String()),
	)
	start := time.Now()
	name, err := i.next.Select(ctx, req)
	i.record(ctx, itelemetry.OperationSelect, start, err)
	if err == nil {
		span.SetAttributes(attribute.String(itelemetry.KeyTo, name))
	}
	itelemetry.EndSpan(span, err)
	return name, err
}

func (i *instrumented) Generate(ctx context.Context, req *GenerateRequest) ([]byte, error) {
	ctx, span := itelemetry.StartSpan(ctx, itelemetry.OperationGenerate, req.Name,
		attribute.String(itelemetry.KeyProvider, i.provider),
		attribute.String(itelemetry.KeyModel, req.Model),
	)
	start := time.Now()
	out, err := i.next.Generate(ctx, req)
	i.record(ctx, itelemetry.OperationGenerate, start, err)
	itelemetry.EndSpan(span, err)
	return out, err
}

func (i *instrumented) record(ctx context.Context, op string, start time.Time, err error) {
	attrs := metric.WithAttributes(
		attribute.String(itelemetry.KeyProvider, i.provider),
		attribute.String("operation", op),
		attribute.Bool("error", err != nil),
	)
	itelemetry.OracleRequestCount.Add(ctx, 1, attrs)
	itelemetry.OracleDuration.Record(ctx, time.Since(start).Seconds(), attrs)
}
