package trace

import "net/http"

// Middleware extracts or creates trace context for incoming HTTP requests
// and echoes the trace id back to the caller.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc := Context{
			TraceID:      r.Header.Get(TraceIDKey),
			SpanID:       newID(8),
			ParentSpanID: r.Header.Get(SpanIDKey),
		}
		if tc.TraceID == "" {
			tc = New()
		}

		w.Header().Set(TraceIDKey, tc.TraceID)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), tc)))
	})
}
