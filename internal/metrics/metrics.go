package metrics

import (
  "net/http"
  "strconv"
  "time"

  "github.com/prometheus/client_golang/prometheus"
  "github.com/prometheus/client_golang/prometheus/collectors"
  "github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build independent instances.
type Metrics struct {
  registry        *prometheus.Registry
  requests        *prometheus.CounterVec
  requestDuration *prometheus.HistogramVec
  uploads         *prometheus.CounterVec
  uploadBytes     prometheus.Counter
  otpsIssued      *prometheus.CounterVec
}

func New() *Metrics {
  reg := prometheus.NewRegistry()
  m := &Metrics{
    registry: reg,
    requests: prometheus.NewCounterVec(prometheus.CounterOpts{
      Namespace: "ninthgrid",
      Name:      "http_requests_total",
      Help:      "HTTP requests by route, method and status.",
    }, []string{"route", "method", "status"}),
    requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
      Namespace: "ninthgrid",
      Name:      "http_request_duration_seconds",
      Help:      "HTTP request latency by route and method.",
      Buckets:   prometheus.DefBuckets,
    }, []string{"route", "method"}),
    uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
      Namespace: "ninthgrid",
      Name:      "uploads_total",
      Help:      "File uploads by outcome.",
    }, []string{"outcome"}),
    uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
      Namespace: "ninthgrid",
      Name:      "upload_bytes_total",
      Help:      "Bytes committed to object storage.",
    }),
    otpsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
      Namespace: "ninthgrid",
      Name:      "otps_issued_total",
      Help:      "Verification codes issued by purpose.",
    }, []string{"purpose"}),
  }
  reg.MustRegister(
    collectors.NewGoCollector(),
    collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
    m.requests, m.requestDuration, m.uploads, m.uploadBytes, m.otpsIssued,
  )
  return m
}

func (m *Metrics) Handler() http.Handler {
  return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
  if m == nil {
    return
  }
  m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
  m.requestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObserveUpload records an upload outcome: completed, upload_failed or persist_failed.
func (m *Metrics) ObserveUpload(outcome string, size int64) {
  if m == nil {
    return
  }
  m.uploads.WithLabelValues(outcome).Inc()
  if outcome == "completed" && size > 0 {
    m.uploadBytes.Add(float64(size))
  }
}

func (m *Metrics) ObserveOtpIssued(purpose string) {
  if m == nil {
    return
  }
  m.otpsIssued.WithLabelValues(purpose).Inc()
}
