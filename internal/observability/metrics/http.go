package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerMetrics tracks API traffic plus retrieval and answer quality
// signals. A private registry keeps the /metrics output limited to what the
// service itself registers.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	searchTotal        *prometheus.CounterVec
	searchDuration     *prometheus.HistogramVec
	retrievedResults   *prometheus.HistogramVec
	ragRequestsTotal   *prometheus.CounterVec
	ragRetrievalHits   *prometheus.CounterVec
	ragNoContextTotal  *prometheus.CounterVec
	ragGenFailures     *prometheus.CounterVec
	ragConfidence      *prometheus.HistogramVec
	ragDuration        *prometheus.HistogramVec
	indexRebuildTotal  *prometheus.CounterVec
	indexedCorpusGauge *prometheus.GaugeVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintel",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docintel",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docintel",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	searchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintel",
			Subsystem: "retrieval",
			Name:      "searches_total",
			Help:      "Total retrieval requests by strategy and outcome.",
		},
		[]string{"service", "strategy", "outcome"},
	)
	searchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docintel",
			Subsystem: "retrieval",
			Name:      "search_duration_seconds",
			Help:      "Retrieval duration in seconds by strategy.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "strategy"},
	)
	retrievedResults := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docintel",
			Subsystem: "retrieval",
			Name:      "results_per_search",
			Help:      "Distribution of result counts per retrieval request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "strategy"},
	)
	ragRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintel",
			Subsystem: "rag",
			Name:      "requests_total",
			Help:      "Total answered RAG requests.",
		},
		[]string{"service", "strategy"},
	)
	ragRetrievalHits := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintel",
			Subsystem: "rag",
			Name:      "retrieval_hit_total",
			Help:      "Total RAG requests with at least one retrieved source.",
		},
		[]string{"service"},
	)
	ragNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintel",
			Subsystem: "rag",
			Name:      "no_context_total",
			Help:      "Total RAG requests without retrieved sources.",
		},
		[]string{"service"},
	)
	ragGenFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintel",
			Subsystem: "rag",
			Name:      "generation_failures_total",
			Help:      "Total RAG requests where answer synthesis failed after retrieval.",
		},
		[]string{"service"},
	)
	ragConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docintel",
			Subsystem: "rag",
			Name:      "confidence",
			Help:      "Distribution of answer confidence scores.",
			Buckets:   []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"service"},
	)
	ragDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docintel",
			Subsystem: "rag",
			Name:      "duration_seconds",
			Help:      "End-to-end RAG request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	indexRebuildTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintel",
			Subsystem: "keyword",
			Name:      "index_rebuilds_total",
			Help:      "Total keyword index rebuilds by outcome.",
		},
		[]string{"service", "outcome"},
	)
	indexedCorpusGauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "docintel",
			Subsystem: "keyword",
			Name:      "indexed_chunks",
			Help:      "Chunks currently held by the in-memory keyword index.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		searchTotal,
		searchDuration,
		retrievedResults,
		ragRequestsTotal,
		ragRetrievalHits,
		ragNoContextTotal,
		ragGenFailures,
		ragConfidence,
		ragDuration,
		indexRebuildTotal,
		indexedCorpusGauge,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		searchTotal:        searchTotal,
		searchDuration:     searchDuration,
		retrievedResults:   retrievedResults,
		ragRequestsTotal:   ragRequestsTotal,
		ragRetrievalHits:   ragRetrievalHits,
		ragNoContextTotal:  ragNoContextTotal,
		ragGenFailures:     ragGenFailures,
		ragConfidence:      ragConfidence,
		ragDuration:        ragDuration,
		indexRebuildTotal:  indexRebuildTotal,
		indexedCorpusGauge: indexedCorpusGauge,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordSearch(service, strategy string, resultCount int, duration time.Duration, err error) {
	if strategy == "" {
		strategy = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}

	m.searchTotal.WithLabelValues(service, strategy, outcome).Inc()
	if err == nil {
		m.searchDuration.WithLabelValues(service, strategy).Observe(duration.Seconds())
		m.retrievedResults.WithLabelValues(service, strategy).Observe(float64(resultCount))
	}
}

func (m *HTTPServerMetrics) RecordRAGAnswer(service, strategy string, sourceCount int, confidence float64, generationFailed bool, duration time.Duration) {
	if strategy == "" {
		strategy = "unknown"
	}

	m.ragRequestsTotal.WithLabelValues(service, strategy).Inc()
	m.ragConfidence.WithLabelValues(service).Observe(confidence)
	m.ragDuration.WithLabelValues(service).Observe(duration.Seconds())

	if sourceCount > 0 {
		m.ragRetrievalHits.WithLabelValues(service).Inc()
	} else {
		m.ragNoContextTotal.WithLabelValues(service).Inc()
	}
	if generationFailed {
		m.ragGenFailures.WithLabelValues(service).Inc()
	}
}

func (m *HTTPServerMetrics) RecordIndexRebuild(service string, chunkCount int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.indexRebuildTotal.WithLabelValues(service, outcome).Inc()
	if err == nil {
		m.indexedCorpusGauge.WithLabelValues(service).Set(float64(chunkCount))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
