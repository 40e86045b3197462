package middleware

import "net/http"

// NewMetricsMiddleware reports every response's status code to record.
// It takes a plain func so this package stays independent of the
// metrics package.
func NewMetricsMiddleware(record func(statusCode int)) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}
			next.ServeHTTP(rec, r)
			record(rec.statusCode)
		})
	}
}
