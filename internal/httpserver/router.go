package httpserver

import (
	"context"
	"net/http"
	"strings"
)

type Params map[string]string

type contextKey string

const paramsKey contextKey = "routeParams"

type HandlerFunc func(http.ResponseWriter, *http.Request, Params)

type route struct {
	method  string
	pattern string
	handler HandlerFunc
}

type Router struct {
	routes    []route
	preflight HandlerFunc
}

func NewRouter() *Router {
	return &Router{routes: make([]route, 0)}
}

// SetPreflight installs the handler for OPTIONS requests to any registered
// path, typically the CORS middleware around a no-op.
func (r *Router) SetPreflight(handler HandlerFunc) {
	r.preflight = handler
}

func (r *Router) Handle(method string, pattern string, handler HandlerFunc) {
	r.routes = append(r.routes, route{
		method:  method,
		pattern: pattern,
		handler: handler,
	})
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	pathMatched := false
	for _, rt := range r.routes {
		params, ok := matchPattern(rt.pattern, req.URL.Path)
		if !ok {
			continue
		}
		pathMatched = true
		if rt.method != req.Method {
			continue
		}
		ctx := context.WithValue(req.Context(), paramsKey, params)
		rt.handler(w, req.WithContext(ctx), params)
		return
	}

	if pathMatched {
		if req.Method == http.MethodOptions && r.preflight != nil {
			r.preflight(w, req, Params{})
			return
		}
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed", nil))
		return
	}
	writeJSON(w, http.StatusNotFound, errorBody("not found", nil))
}

func matchPattern(pattern string, path string) (Params, bool) {
	if pattern == path {
		return Params{}, true
	}

	patternSegments := splitPath(pattern)
	pathSegments := splitPath(path)
	if len(patternSegments) != len(pathSegments) {
		return nil, false
	}

	params := Params{}
	for i, segment := range patternSegments {
		if strings.HasPrefix(segment, ":") {
			key := strings.TrimPrefix(segment, ":")
			if key == "" {
				return nil, false
			}
			params[key] = pathSegments[i]
			continue
		}
		if segment != pathSegments[i] {
			return nil, false
		}
	}

	return params, true
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return []string{}
	}
	return strings.Split(trimmed, "/")
}

func ParamsFromContext(ctx context.Context) Params {
	if ctx == nil {
		return Params{}
	}
	params, _ := ctx.Value(paramsKey).(Params)
	if params == nil {
		return Params{}
	}
	return params
}
