// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package http

import "net/http"

// Instrumentation wraps a named handler, e.g. for request logging or flow
// limiting.
type Instrumentation func(handlerName string, handler http.HandlerFunc) http.HandlerFunc

// Router is a minimal method-aware router with a shared path prefix.
type Router struct {
	mux    *http.ServeMux
	prefix string
	instrh Instrumentation
}

func New() *Router {
	return &Router{mux: http.NewServeMux()}
}

func (r *Router) WithPrefix(prefix string) *Router {
	r.prefix = prefix
	return r
}

func (r *Router) WithInstrumentation(instrh Instrumentation) *Router {
	r.instrh = instrh
	return r
}

func (r *Router) Get(path, handlerName string, handler http.HandlerFunc) {
	r.handle(http.MethodGet, path, handlerName, handler)
}

func (r *Router) Post(path, handlerName string, handler http.HandlerFunc) {
	r.handle(http.MethodPost, path, handlerName, handler)
}

// Handle mounts a raw handler outside the prefix, e.g. /metrics.
func (r *Router) Handle(path string, handler http.Handler) {
	r.mux.Handle(path, handler)
}

func (r *Router) handle(method, path, handlerName string, handler http.HandlerFunc) {
	if r.instrh != nil {
		handler = r.instrh(handlerName, handler)
	}
	r.mux.HandleFunc(r.prefix+path, func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != method {
			http.Error(writer, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		handler(writer, request)
	})
}

func (r *Router) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	r.mux.ServeHTTP(writer, request)
}
