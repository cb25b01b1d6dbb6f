package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// acquisition
	SamplesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pinlogger_samples_written_total",
		Help: "Total number of samples appended to the log",
	})

	BadReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinlogger_bad_reads_total",
		Help: "Total number of read attempts that produced no sample",
	}, []string{"reason"})

	WriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pinlogger_write_errors_total",
		Help: "Total number of samples lost to append log failures",
	})

	FatalErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pinlogger_fatal_errors_total",
		Help: "Total number of acquisition runs ended by a fatal error",
	})

	Running = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pinlogger_running",
		Help: "1 while the acquisition loop is running",
	})

	PinState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pinlogger_pin_state",
		Help: "Last accepted state per tracked pin",
	}, []string{"pin"})

	ReadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pinlogger_read_duration_seconds",
		Help:    "Duration of one serial read attempt",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~2s
	})

	// status mirror
	MirrorWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinlogger_mirror_writes_total",
		Help: "Status mirror write attempts by result",
	}, []string{"result"})

	// HTTP
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)
