package telemetry

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "fitcoach-api"

// Tracer returns the service tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// FiberMiddleware opens a server span per request. The span is renamed to the
// matched route template once routing is done, so ids in the path do not
// fan out span names.
func FiberMiddleware() fiber.Handler {
	tracer := Tracer()
	propagator := otel.GetTextMapPropagator()

	return func(c *fiber.Ctx) error {
		ctx := propagator.Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))
		ctx, span := tracer.Start(ctx, c.Method(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Method()),
				attribute.String("url.path", c.Path()),
				attribute.String("user_agent.original", c.Get(fiber.HeaderUserAgent)),
				attribute.String("client.address", c.IP()),
			),
		)
		defer span.End()

		c.SetUserContext(ctx)
		if sc := span.SpanContext(); sc.HasTraceID() {
			c.Set("X-Trace-ID", sc.TraceID().String())
		}

		err := c.Next()

		route := c.Route().Path
		span.SetName(c.Method() + " " + route)
		status := c.Response().StatusCode()
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", status),
		)
		if user, ok := c.Locals("userID").(string); ok && user != "" {
			span.SetAttributes(attribute.String("enduser.id", user))
		}
		if replay, _ := strconv.ParseBool(string(c.Response().Header.Peek("X-Idempotent-Replay"))); replay {
			span.SetAttributes(attribute.Bool("fitcoach.idempotent_replay", true))
		}

		// client errors are the caller's fault, not the server span's
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case status >= fiber.StatusInternalServerError:
			span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(status))
		}
		return err
	}
}
