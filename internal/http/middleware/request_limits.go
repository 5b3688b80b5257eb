package middleware

import (
	"net/http"

	"github.com/tendant/nexus-crm/internal/httputil"
)

// RequestSizeLimit caps request bodies at maxBytes. A declared Content-Length
// over the cap is rejected before the handler runs; otherwise handlers see
// *http.MaxBytesError from the body reader. maxBytes <= 0 disables the cap.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				httputil.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
