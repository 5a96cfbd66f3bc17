package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// serverErrorBody is the generic failure envelope. It matches the handler's
// unclassified-error response so panics look like any other server error.
const serverErrorBody = `{"status":"error","message":"Maaf, terjadi kegagalan pada server kami."}`

// Recoverer is a middleware that recovers from panics.
// It logs the panic and returns the generic 500 envelope.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Error("panic recovered",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.Any("panic", rvr),
					slog.String("stack", string(debug.Stack())),
				)

				writeJSONBody(w, http.StatusInternalServerError, serverErrorBody)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// writeJSONBody writes a pre-encoded JSON body.
func writeJSONBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
