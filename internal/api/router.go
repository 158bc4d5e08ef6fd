package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/shelforder/internal/api/events"
	"github.com/wonny/shelforder/internal/api/handlers"
	"github.com/wonny/shelforder/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(sortHandler *handlers.SortHandler, hub *events.Hub, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// JSON bodies for unmatched paths and methods
	r.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Grouping endpoints
	// 서브라우터 대신 전체 경로로 등록 (메서드 불일치 시 405 유지)
	r.HandleFunc("/api/groupings/{id}/order", sortHandler.GetOrder).Methods("GET")
	r.HandleFunc("/api/groupings/{id}/sort", sortHandler.Sort).Methods("POST")
	r.HandleFunc("/api/groupings/{id}/undo", sortHandler.Undo).Methods("POST")
	r.HandleFunc("/api/groupings/{id}/diagnostics", sortHandler.Diagnostics).Methods("GET")

	// Bulk
	r.HandleFunc("/api/sort/all", sortHandler.SortAll).Methods("POST")

	// Run event stream (websocket)
	if hub != nil {
		r.HandleFunc("/api/events", hub.ServeWS).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "shelforder-api",
	})
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// websocket upgrade needs the raw writer (http.Hijacker)
			if r.Header.Get("Upgrade") != "" {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
