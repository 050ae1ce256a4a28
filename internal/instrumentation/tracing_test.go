package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// recordSpans installs a recording tracer provider for the duration of the test.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestSpanAttributeBuilder(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("crm_get_record").
		WithOperation("getRecord").
		WithRecord("Contact", "003000000000001").
		WithReadOnly(true).
		Build()

	if len(attrs) != 5 {
		t.Errorf("expected 5 attributes, got %d", len(attrs))
	}

	attrMap := make(map[string]interface{})
	for _, attr := range attrs {
		attrMap[string(attr.Key)] = attr.Value.AsInterface()
	}

	if attrMap[SpanAttrTool] != "crm_get_record" {
		t.Errorf("expected tool 'crm_get_record', got %v", attrMap[SpanAttrTool])
	}
	if attrMap[SpanAttrOperation] != "getRecord" {
		t.Errorf("expected operation 'getRecord', got %v", attrMap[SpanAttrOperation])
	}
	if attrMap[SpanAttrObject] != "Contact" {
		t.Errorf("expected object 'Contact', got %v", attrMap[SpanAttrObject])
	}
	if attrMap[SpanAttrRecordID] != "003000000000001" {
		t.Errorf("expected record id, got %v", attrMap[SpanAttrRecordID])
	}
	if attrMap[SpanAttrReadOnly] != true {
		t.Errorf("expected read_only true, got %v", attrMap[SpanAttrReadOnly])
	}
}

func TestSpanAttributeBuilder_EmptyValues(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("test_tool").
		WithRecord("", "").
		Build()

	if len(attrs) != 1 {
		t.Errorf("expected 1 attribute (only tool), got %d", len(attrs))
	}
}

func TestStartAPISpan(t *testing.T) {
	recorder := recordSpans(t)

	_, span := StartAPISpan(context.Background(), "GET", "/services/data/v59.0/query", 1)
	SetSpanStatusCode(span, 401)
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if ended[0].Name() != "crm.GET" {
		t.Errorf("expected span name 'crm.GET', got %q", ended[0].Name())
	}
	if ended[0].SpanKind() != trace.SpanKindClient {
		t.Errorf("expected client span, got %v", ended[0].SpanKind())
	}

	attrMap := make(map[string]interface{})
	for _, attr := range ended[0].Attributes() {
		attrMap[string(attr.Key)] = attr.Value.AsInterface()
	}
	if attrMap[SpanAttrStatus] != "401" {
		t.Errorf("expected status '401', got %v", attrMap[SpanAttrStatus])
	}
	if attrMap[SpanAttrAttempt] != int64(1) {
		t.Errorf("expected attempt 1, got %v", attrMap[SpanAttrAttempt])
	}
}

func TestStartToolSpan(t *testing.T) {
	recorder := recordSpans(t)

	_, span := StartToolSpan(context.Background(), "crm_search")
	SetSpanSuccess(span)
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if ended[0].Name() != "tool.crm_search" {
		t.Errorf("expected span name 'tool.crm_search', got %q", ended[0].Name())
	}
	if ended[0].Status().Code != codes.Ok {
		t.Errorf("expected OK status, got %v", ended[0].Status().Code)
	}
}

func TestSetSpanError(t *testing.T) {
	recorder := recordSpans(t)

	_, span := StartSpan(context.Background(), "test-span")
	SetSpanError(span, nil) // nil error should be safe
	SetSpanError(span, errors.New("test error"))
	AddSpanEvent(span, "retry")
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if ended[0].Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", ended[0].Status().Code)
	}
	if ended[0].Status().Description != "test error" {
		t.Errorf("expected description 'test error', got %q", ended[0].Status().Description)
	}
	if len(ended[0].Events()) != 2 {
		t.Errorf("expected exception and retry events, got %d", len(ended[0].Events()))
	}
}

func TestGetTraceID(t *testing.T) {
	if id := GetTraceID(context.Background()); id != "" {
		t.Errorf("expected empty trace ID for context without span, got %q", id)
	}

	recordSpans(t)
	ctx, span := StartSpan(context.Background(), "test-span")
	defer span.End()

	if id := GetTraceID(ctx); len(id) != 32 {
		t.Errorf("expected 32-char trace ID, got %q", id)
	}
}
