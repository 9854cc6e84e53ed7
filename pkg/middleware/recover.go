package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/shashiranjanraj/souq/pkg/ctx"
	"github.com/shashiranjanraj/souq/pkg/logger"
)

// Recovery catches any panic in downstream handlers, logs the stack trace,
// and answers with the standard 500 envelope carrying the request id.
//
//	r.Use(metrics.Middleware())
//	r.Use(reqid.Middleware())
//	r.Use(middleware.Logger)
//	r.Use(middleware.Recovery)
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			stack := debug.Stack()
			logger.WithCtx(r.Context()).Error("panic recovered",
				"error", fmt.Sprintf("%v", rec),
				"stack", string(stack),
				"method", r.Method,
				"path", r.URL.Path,
			)
			writeJSON(w, http.StatusInternalServerError, ctx.InternalError(r.Context(), rec, stack))
		}()
		next.ServeHTTP(w, r)
	})
}
