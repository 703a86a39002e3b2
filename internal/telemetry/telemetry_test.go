package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), TelemetryConfig{})
	require.NoError(t, err)

	_, span := p.Tracer("test").Start(context.Background(), "span")
	require.False(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_Enabled(t *testing.T) {
	// The exporter connects lazily, so no collector is needed to create the provider
	p, err := NewProvider(context.Background(), TelemetryConfig{Enabled: true, Endpoint: "localhost:4318", Insecure: true, Version: "test"})
	require.NoError(t, err)

	_, span := p.Tracer("test").Start(context.Background(), "span")
	require.True(t, span.SpanContext().IsValid())
	span.End()
}
