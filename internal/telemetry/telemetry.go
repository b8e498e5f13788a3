//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry holds the tracer, meter and instruments shared by the
// agent group packages. The public telemetry/trace and telemetry/metric
// packages install real providers here; until then everything is a noop.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// telemetry service constants.
const (
	ServiceName      = "agentgroup"
	ServiceVersion   = "v0.1.0"
	ServiceNamespace = "trpc-go-agent"
	InstrumentName   = "trpc.agent.group"

	OperationHandoff  = "handoff"
	OperationSelect   = "select"
	OperationGenerate = "generate"
	OperationInvoke   = "invoke_member"
)

const (
	// ProtocolGRPC uses gRPC protocol for OTLP exporter.
	ProtocolGRPC string = "grpc"
	// ProtocolHTTP uses HTTP protocol for OTLP exporter.
	ProtocolHTTP string = "http"
)

// Attribute keys.
const (
	KeyGroupID  = "agentgroup.group_id"
	KeyMode     = "agentgroup.handoff.mode"
	KeyFrom     = "agentgroup.handoff.from"
	KeyTo       = "agentgroup.handoff.to"
	KeyProvider = "agentgroup.oracle.provider"
	KeyModel    = "agentgroup.oracle.model"
	KeyMember   = "agentgroup.member"
	KeyError    = "error.type"
)

// Metric names.
const (
	MetricHandoffCount       = "agentgroup.handoff.count"
	MetricOracleRequestCount = "agentgroup.oracle.request.count"
	MetricOracleDuration     = "agentgroup.oracle.duration"
	MetricMemberInvokeCount  = "agentgroup.member.invoke.count"
)

var (
	// Tracer is used by every span in the module.
	Tracer trace.Tracer = nooptrace.NewTracerProvider().Tracer(InstrumentName)
	// Meter creates the instruments below.
	Meter metric.Meter = noopmetric.NewMeterProvider().Meter(InstrumentName)

	HandoffCount       metric.Int64Counter
	OracleRequestCount metric.Int64Counter
	OracleDuration     metric.Float64Histogram
	MemberInvokeCount  metric.Int64Counter
)

func init() {
	// noop instruments never fail.
	_ = InitInstruments(noopmetric.NewMeterProvider())
}

// InitInstruments creates the instruments from mp.
func InitInstruments(mp metric.MeterProvider) error {
	m := mp.Meter(InstrumentName)
	var err error
	if HandoffCount, err = m.Int64Counter(MetricHandoffCount,
		metric.WithDescription("Number of completed handoffs"),
		metric.WithUnit("1")); err != nil {
		return fmt.Errorf("failed to create metric %s: %w", MetricHandoffCount, err)
	}
	if OracleRequestCount, err = m.Int64Counter(MetricOracleRequestCount,
		metric.WithDescription("Number of decision oracle requests"),
		metric.WithUnit("1")); err != nil {
		return fmt.Errorf("failed to create metric %s: %w", MetricOracleRequestCount, err)
	}
	if OracleDuration, err = m.Float64Histogram(MetricOracleDuration,
		metric.WithDescription("Duration of decision oracle requests"),
		metric.WithUnit("s")); err != nil {
		return fmt.Errorf("failed to create metric %s: %w", MetricOracleDuration, err)
	}
	if MemberInvokeCount, err = m.Int64Counter(MetricMemberInvokeCount,
		metric.WithDescription("Number of member invocations"),
		metric.WithUnit("1")); err != nil {
		return fmt.Errorf("failed to create metric %s: %w", MetricMemberInvokeCount, err)
	}
	Meter = m
	return nil
}

// StartSpan starts a span named "<operation> <target>".
func StartSpan(ctx context.Context, operation, target string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	name := operation
	if target != "" {
		name = fmt.Sprintf("%s %s", operation, target)
	}
	return Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(KeyError, fmt.Sprintf("%T", err)))
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// NewGRPCConn creates a gRPC connection to the OpenTelemetry Collector.
func NewGRPCConn(endpoint string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to collector: %w", err)
	}
	return conn, nil
}
