//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	itelemetry "trpc.group/trpc-go/trpc-agent-group/internal/telemetry"
)

func TestTracesEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "custom-trace:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "generic:4317")
	assert.Equal(t, "custom-trace:4317", tracesEndpoint("grpc"))

	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	assert.Equal(t, "generic:4317", tracesEndpoint("grpc"))

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	assert.Equal(t, "localhost:4317", tracesEndpoint("grpc"))
	assert.Equal(t, "localhost:4318", tracesEndpoint("http"))
}

func TestParseEndpointURL(t *testing.T) {
	cases := []struct {
		name     string
		in       string
		endpoint string
		path     string
		wantErr  bool
	}{
		{"with scheme and path", "http://localhost:3000/api/public/otel", "localhost:3000", "/api/public/otel", false},
		{"without scheme", "collector:4318/otlp/v1/traces", "collector:4318", "/otlp/v1/traces", false},
		{"no path", "example.com", "example.com", "/", false},
		{"no host", "http:///missing-host", "", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			endpoint, path, err := parseEndpointURL(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.endpoint, endpoint)
			assert.Equal(t, tc.path, path)
		})
	}
}

func TestStartInstallsTracer(t *testing.T) {
	for _, protocol := range []string{itelemetry.ProtocolGRPC, itelemetry.ProtocolHTTP} {
		t.Run(protocol, func(t *testing.T) {
			clean, err := Start(context.Background(),
				WithProtocol(protocol),
				WithHeaders(map[string]string{"Authorization": "Bearer abc"}),
			)
			require.NoError(t, err)
			require.NotNil(t, clean)
			assert.Same(t, Tracer, itelemetry.Tracer)

			_, span := itelemetry.StartSpan(context.Background(), itelemetry.OperationHandoff, "A")
			assert.True(t, span.SpanContext().IsValid())
			span.End()
			// no collector runs in tests
			_ = clean()
		})
	}
}

func TestStartInvalidEndpointURL(t *testing.T) {
	_, err := Start(context.Background(), WithProtocol("http"), WithEndpointURL("http:///bad"))
	require.Error(t, err)
}

func TestBuildResource(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "env-service")
	t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "team=ai,env=staging")

	o := &options{}
	WithServiceName("option-service")(o)
	WithServiceNamespace("custom-ns")(o)
	WithServiceVersion("1.2.3")(o)
	WithResourceAttributes(attribute.String("team", "ml"))(o)

	res, err := buildResource(context.Background(), o)
	require.NoError(t, err)
	attrs := map[string]string{}
	for it := res.Iter(); it.Next(); {
		kv := it.Attribute()
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "env-service", attrs[string(semconv.ServiceNameKey)])
	assert.Equal(t, "staging", attrs["env"])
	assert.Equal(t, "ml", attrs["team"])
	assert.Equal(t, "custom-ns", attrs[string(semconv.ServiceNamespaceKey)])
	assert.Equal(t, "1.2.3", attrs[string(semconv.ServiceVersionKey)])
}
