package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar mounts a set of routes on a group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router registers route sets under a versioned API prefix, each behind its
// own middleware chain
type Router struct {
	engine     *gin.Engine
	apiVersion string
	entries    []entry
}

type entry struct {
	registrar  RouteRegistrar
	middleware []gin.HandlerFunc
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues registrar to be mounted behind middleware
func (r *Router) Register(registrar RouteRegistrar, middleware ...gin.HandlerFunc) *Router {
	r.entries = append(r.entries, entry{registrar: registrar, middleware: middleware})
	return r
}

// Setup mounts every registered route set
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, e := range r.entries {
		e.registrar.RegisterRoutes(api.Group("", e.middleware...))
	}
}
