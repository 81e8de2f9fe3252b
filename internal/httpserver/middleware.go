package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"permithub/internal/auth"
	"permithub/internal/logging"
)

type Middleware func(HandlerFunc) HandlerFunc

type sessionContextKey string

const sessionKey sessionContextKey = "session"

func withMiddleware(handler HandlerFunc, middlewares ...Middleware) HandlerFunc {
	if len(middlewares) == 0 {
		return handler
	}

	wrapped := handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

// LogMiddleware records one line per request with the response status.
func LogMiddleware(log zerolog.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request, params Params) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next(recorder, req, params)
			log.Debug().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", recorder.status).
				Dur("elapsed", logging.Elapsed(start)).
				Msg("request")
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// SessionMiddleware verifies the bearer session token and stores the parsed
// claims on the request context. Every failure is a plain 401; callers learn
// nothing about why the token was rejected.
func SessionMiddleware(sessionSecret []byte) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request, params Params) {
			token := bearerToken(req)
			if token == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody("missing authorization token", nil))
				return
			}

			claims, err := auth.ParseSession(sessionSecret, token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody("invalid session", nil))
				return
			}

			ctx := context.WithValue(req.Context(), sessionKey, claims)
			next(w, req.WithContext(ctx), params)
		}
	}
}

func bearerToken(req *http.Request) string {
	authorization := req.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
		return strings.TrimSpace(authorization[len("Bearer "):])
	}
	return ""
}

func SessionFromContext(ctx context.Context) (*auth.SessionClaims, bool) {
	if ctx == nil {
		return nil, false
	}
	claims, ok := ctx.Value(sessionKey).(*auth.SessionClaims)
	return claims, ok
}
