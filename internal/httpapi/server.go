package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tamzrod/pinlogger/internal/metrics"
	"github.com/tamzrod/pinlogger/internal/pinlog"
	"github.com/tamzrod/pinlogger/internal/status"
)

// DefaultMaxPoints caps /samples when max_points is not given.
const DefaultMaxPoints = 5000

type StatusProvider interface {
	Status() status.Snapshot
}

type SampleStore interface {
	ReadSince(since time.Time) ([]pinlog.Entry, error)
}

type HTTPServer struct {
	server *http.Server
	svc    StatusProvider
	store  SampleStore
	logger *zap.Logger
	now    func() time.Time
}

type samplesResponse struct {
	Count   int            `json:"count"`
	Samples []pinlog.Entry `json:"samples"`
}

func NewHTTPServer(addr string, svc StatusProvider, store SampleStore, logger *zap.Logger) *HTTPServer {
	router := mux.NewRouter()

	s := &HTTPServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		svc:    svc,
		store:  store,
		logger: logger,
		now:    time.Now,
	}

	router.Use(s.metricsMiddleware)
	router.Use(s.loggingMiddleware)

	router.HandleFunc("/health", s.healthCheck).Methods("GET")
	router.HandleFunc("/status", s.getStatus).Methods("GET")
	router.HandleFunc("/samples", s.getSamples).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return s
}

// Handler exposes the router.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// responseWriter tracks status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

func (s *HTTPServer) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		// route template keeps label cardinality bounded
		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}

		metrics.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// Requests are logged at Debug: the operator menu shares the terminal.
func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.String("ip", r.RemoteAddr),
			zap.Int("status", rw.statusCode),
			zap.Int("response_size", rw.size),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *HTTPServer) healthCheck(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Status()

	body := map[string]string{"status": "healthy"}
	code := http.StatusOK
	if !st.Running {
		body["status"] = "stopped"
		if st.LastError != "" {
			body["last_error"] = st.LastError
		}
		code = http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, body)
}

func (s *HTTPServer) getStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.Status())
}

func (s *HTTPServer) getSamples(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var since time.Time
	if v := q.Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			http.Error(w, "since must be a positive duration (e.g. 10m)", http.StatusBadRequest)
			return
		}
		since = s.now().Add(-d)
	}

	maxPoints := DefaultMaxPoints
	if v := q.Get("max_points"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "max_points must be a non-negative integer", http.StatusBadRequest)
			return
		}
		maxPoints = n
	}

	entries, err := s.store.ReadSince(since)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Error("Failed to read samples", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	entries = pinlog.Downsample(entries, maxPoints)
	if entries == nil {
		entries = []pinlog.Entry{}
	}

	s.writeJSON(w, http.StatusOK, samplesResponse{Count: len(entries), Samples: entries})
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
