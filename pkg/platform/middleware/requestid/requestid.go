// Package requestid copies the chi request id into the HTTP-independent request context.
package requestid

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"recordhub/pkg/requestcontext"
)

// Header is echoed back on every response.
const Header = "X-Request-Id"

// Middleware must run after chi's middleware.RequestID.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetReqID(r.Context())
		if reqID != "" {
			w.Header().Set(Header, reqID)
		}
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
