// Package metrics exposes Prometheus counters for the installer service and a
// small HTTP server that serves them.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	tokensIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "installer_tokens_issued_total",
		Help: "Installation tokens created and persisted.",
	})
	tokensDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "installer_tokens_deleted_total",
		Help: "Installation tokens deleted by value.",
	})
	scriptsGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "installer_scripts_generated_total",
		Help: "Provisioning scripts rendered and streamed to a caller.",
	})
	registrations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "installer_registrations_total",
		Help: "Completed installation callbacks persisted as link and history rows.",
	})
	requestErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "installer_request_errors_total",
		Help: "Failed installer requests by operation and HTTP status.",
	}, []string{"operation", "status"})
)

func IncTokensIssued()     { tokensIssued.Inc() }
func IncTokensDeleted()    { tokensDeleted.Inc() }
func IncScriptsGenerated() { scriptsGenerated.Inc() }
func IncRegistrations()    { registrations.Inc() }

// IncRequestError records a failed request for operation with the given status text.
func IncRequestError(operation string, status string) {
	requestErrors.WithLabelValues(operation, status).Inc()
}

// MetricsServer serves /metrics on its own listener.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server listening on addr. Every series it exposes
// carries a "service" label set to namespace.
func New(namespace string, addr string) (*MetricsServer, error) {
	reg := prometheus.NewRegistry()
	wrapped := prometheus.WrapRegistererWith(prometheus.Labels{"service": namespace}, reg)
	for _, c := range []prometheus.Collector{
		tokensIssued,
		tokensDeleted,
		scriptsGenerated,
		registrations,
		requestErrors,
		collectors.NewGoCollector(),
	} {
		if err := wrapped.Register(c); err != nil {
			return nil, err
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &MetricsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
