package middleware

import (
	"log"
	"net/http"
	"time"
)

// statusRecorder captures what the inner handlers decided about the request.
type statusRecorder struct {
	http.ResponseWriter
	status int
	userID string
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// recordActor lets middleware further down the chain report the caller to
// the request log.
func recordActor(w http.ResponseWriter, userID string) {
	if rec, ok := w.(*statusRecorder); ok {
		rec.userID = userID
	}
}

// Logging logs every request with its duration and outcome. Run it inside
// ExtractMetadata so the client IP is available.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		clientInfo := GetClientInfoFromContext(r.Context())
		userID := rec.userID
		if userID == "" {
			userID = "-"
		}

		logLevel := "INFO"
		if rec.status >= http.StatusInternalServerError {
			logLevel = "ERROR"
		}
		log.Printf("[%s] %s %s completed in %v (status: %d, user: %s, ip: %s, ua: %q)",
			logLevel, r.Method, r.URL.Path, duration, rec.status, userID, clientInfo.IPAddress, clientInfo.UserAgent)
	})
}
