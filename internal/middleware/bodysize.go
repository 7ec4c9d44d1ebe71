package middleware

import "net/http"

// Body size caps per surface. Journey pings and pricing payloads are tiny;
// the contact form carries a free-text message so it gets its own, smaller
// cap than the general JSON surface.
const (
	// MaxJSONBodySize caps JSON API requests at 1MB.
	MaxJSONBodySize = 1 << 20

	// MaxFormBodySize caps contact form submissions at 100KB.
	MaxFormBodySize = 100 << 10
)

// BodySizeLimiter rejects request bodies larger than maxBytes. Declared
// oversizes are refused up front with 413; chunked bodies are cut off
// mid-read by http.MaxBytesReader, which surfaces as a decode error in
// the handler.
func BodySizeLimiter(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.Body == nil || r.ContentLength == 0:
				// Nothing to limit
			case r.ContentLength > maxBytes:
				http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
				return
			default:
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BodySizeLimiterJSON limits JSON API request bodies.
func BodySizeLimiterJSON() func(http.Handler) http.Handler {
	return BodySizeLimiter(MaxJSONBodySize)
}

// BodySizeLimiterForm limits contact form submission bodies.
func BodySizeLimiterForm() func(http.Handler) http.Handler {
	return BodySizeLimiter(MaxFormBodySize)
}
