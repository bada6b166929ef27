package httpmiddleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// RouteUnmatched is reported for requests no route matches, which keeps
// span names and metric labels low-cardinality.
const RouteUnmatched = "unmatched"

// RouteFinder returns the route pattern serving r.
type RouteFinder func(r *http.Request) string

// MakeRouteFinder resolves request paths against the patterns registered on
// mux, e.g. "/api/orders/{id}".
func MakeRouteFinder(mux *chi.Mux) RouteFinder {
	return func(r *http.Request) string {
		if pattern := mux.Find(chi.NewRouteContext(), r.Method, r.URL.Path); pattern != "" {
			return pattern
		}
		return RouteUnmatched
	}
}

// Instrument traces and measures every request with otelhttp, naming spans
// by method and route pattern.
func Instrument(service string, find RouteFinder, tp trace.TracerProvider, mp metric.MeterProvider) Middleware {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, service,
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithMeterProvider(mp),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + find(r)
			}),
		)
	}
}

// Labeler adds the route pattern to the otelhttp metric labels. It must run
// inside Instrument.
func Labeler(find RouteFinder) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l, ok := otelhttp.LabelerFromContext(r.Context()); ok {
				l.Add(attribute.String("http.route", find(r)))
			}
			next.ServeHTTP(w, r)
		})
	}
}
