package telemetry

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "kerbgate", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())
}

func TestStartSpanWithoutInit(t *testing.T) {
	SetTracerProvider(noop.NewTracerProvider())

	newCtx, span := StartSpan(context.Background(), "test.operation")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	assert.Equal(t, "", TraceID(context.Background()))
	assert.Equal(t, "", SpanID(context.Background()))
}

func TestSpanHelpersDoNotPanic(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		AddEvent(ctx, "test.event")
		RecordError(ctx, nil)
		RecordError(ctx, errors.New("test error"))
		SetStatus(ctx, codes.Error, "failed")
		SetAttributes(ctx, ClientIP("192.168.1.1"))
	})
}

func TestAuthSpansAreRecorded(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	SetTracerProvider(tp)
	defer SetTracerProvider(noop.NewTracerProvider())

	ctx, span := StartAuthSpan(context.Background(), "negotiate", AuthScheme("Negotiate"))
	assert.NotEmpty(t, TraceID(ctx))
	assert.NotEmpty(t, SpanID(ctx))

	_, child := StartKerberosSpan(ctx, "verify_ap_req", TokenBytes(1024))
	RecordError(ctx, errors.New("clock skew"))
	child.End()
	span.End()

	_, s := StartSessionSpan(context.Background(), "get", SessionStore("memory"))
	s.End()

	ended := recorder.Ended()
	require.Len(t, ended, 3)
	assert.Equal(t, "krb.verify_ap_req", ended[0].Name())
	assert.Equal(t, "auth.negotiate", ended[1].Name())
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Equal(t, "session.get", ended[2].Name())
}

func TestExtractHTTP(t *testing.T) {
	SetTracerProvider(noop.NewTracerProvider())

	h := http.Header{}
	h.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	prop := propagation.TraceContext{}
	ctx := prop.Extract(context.Background(), propagation.HeaderCarrier(h))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", TraceID(ctx))

	// Without a configured propagator ExtractHTTP is a passthrough.
	assert.NotNil(t, ExtractHTTP(context.Background(), h))
}

func TestAttributeHelpers(t *testing.T) {
	tests := []struct {
		name string
		key  string
		got  string
		want string
	}{
		{"ClientIP", AttrClientIP, ClientIP("10.1.1.1").Value.AsString(), "10.1.1.1"},
		{"Outcome", AttrAuthOutcome, AuthOutcome("success").Value.AsString(), "success"},
		{"Category", AttrAuthCategory, AuthCategory("security").Value.AsString(), "security"},
		{"Principal", AttrPrincipal, Principal("alice@EXAMPLE.COM").Value.AsString(), "alice@EXAMPLE.COM"},
		{"Realm", AttrKrbRealm, KrbRealm("EXAMPLE.COM").Value.AsString(), "EXAMPLE.COM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}

	assert.Equal(t, int64(37), KrbErrorCode(37).Value.AsInt64())
}

func TestParseProfileTypes(t *testing.T) {
	types, err := ParseProfileTypes([]string{"cpu", "mutex_count"})
	require.NoError(t, err)
	assert.Len(t, types, 2)

	_, err = ParseProfileTypes([]string{"cpu", "bogus"})
	assert.ErrorContains(t, err, `"bogus"`)

	assert.Len(t, ProfileTypeNames(), 10)
	assert.Equal(t, "alloc_objects", ProfileTypeNames()[0])

	_, err = InitProfiling(ProfilingConfig{Enabled: true, ProfileTypes: []string{"bogus"}})
	assert.Error(t, err)
	assert.False(t, IsProfilingEnabled())

	shutdown, err := InitProfiling(ProfilingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown())
	assert.False(t, IsProfilingEnabled())
}
