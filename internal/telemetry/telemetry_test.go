package telemetry

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestMiddlewareRecordsSpanAndJoinsParent(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	app := fiber.New()
	app.Use(Middleware(tp.Tracer("test")))
	var inner trace.SpanContext
	app.Get("/orders/:id", func(c *fiber.Ctx) error {
		inner = trace.SpanContextFromContext(c.UserContext())
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/orders/o-1", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	_, err := app.Test(req)
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /orders/o-1", spans[0].Name())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent().SpanID().String())
	assert.Equal(t, spans[0].SpanContext().SpanID(), inner.SpanID())
}

func TestSpanAttributesSurviveContextReuse(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	app := fiber.New()
	app.Use(Middleware(tp.Tracer("test")))
	app.Post("/auth/logout", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for _, r := range []struct{ method, path string }{{"POST", "/auth/logout"}, {"GET", "/healthz"}} {
		_, err := app.Test(httptest.NewRequest(r.method, r.path, nil))
		require.NoError(t, err)
	}

	spans := rec.Ended()
	require.Len(t, spans, 2)
	methods := map[string]string{}
	for _, s := range spans {
		for _, kv := range s.Attributes() {
			if kv.Key == attribute.Key("http.method") {
				methods[s.Name()] = kv.Value.AsString()
			}
		}
	}
	assert.Equal(t, map[string]string{"POST /auth/logout": "POST", "GET /healthz": "GET"}, methods)
}

func TestSetupNoExporter(t *testing.T) {
	shutdown, err := Setup(context.Background(), "bazaar", "", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, err = Setup(context.Background(), "bazaar", "zipkin", "")
	assert.Error(t, err)
}
