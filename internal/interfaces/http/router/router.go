// Package router assembles the gin engine: the global middleware chain and
// one permission scoped group per bounded context under /api/{version}.
package router

import (
	"net/http"
	"path"

	"github.com/erp/salescore/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

const (
	// Public marks a route that needs authentication but no access right
	Public = ""
	// ByMethod takes the action from the HTTP method (see middleware.MethodAction)
	ByMethod = "*"
)

// Mounter is anything that can add its routes to an API group
type Mounter interface {
	Mount(api *gin.RouterGroup)
}

// API mounts groups under /api/{version} behind shared middleware
type API struct {
	version    string
	middleware []gin.HandlerFunc
	groups     []Mounter
}

// NewAPI starts an API at version, e.g. "v1"
func NewAPI(version string, middleware ...gin.HandlerFunc) *API {
	return &API{version: version, middleware: middleware}
}

// Use appends middleware run before every API route
func (a *API) Use(middleware ...gin.HandlerFunc) *API {
	a.middleware = append(a.middleware, middleware...)
	return a
}

// Add queues groups for Install
func (a *API) Add(groups ...Mounter) *API {
	a.groups = append(a.groups, groups...)
	return a
}

// Install registers every queued group on engine
func (a *API) Install(engine *gin.Engine) {
	api := engine.Group("/api/"+a.version, a.middleware...)
	for _, g := range a.groups {
		g.Mount(api)
	}
}

// Guarded is one declared route together with the right it requires
type Guarded struct {
	Method string
	Path   string
	Module string
	Action string
}

// ModuleGroup is a route prefix whose routes are all checked against one
// access right module. Children inherit the module unless they override it.
type ModuleGroup struct {
	prefix     string
	module     string
	checker    middleware.PermissionChecker
	middleware []gin.HandlerFunc
	routes     []moduleRoute
	children   []*ModuleGroup
}

type moduleRoute struct {
	method  string
	path    string
	action  string
	handler gin.HandlerFunc
}

// NewModuleGroup creates a group under prefix guarded by module
func NewModuleGroup(prefix, module string, checker middleware.PermissionChecker) *ModuleGroup {
	return &ModuleGroup{prefix: prefix, module: module, checker: checker}
}

// Use adds middleware that runs before the permission check of every
// route in the group and its children
func (g *ModuleGroup) Use(middleware ...gin.HandlerFunc) *ModuleGroup {
	g.middleware = append(g.middleware, middleware...)
	return g
}

// Child creates a nested group sharing module and checker
func (g *ModuleGroup) Child(prefix string) *ModuleGroup {
	child := NewModuleGroup(prefix, g.module, g.checker)
	g.children = append(g.children, child)
	return child
}

// ChildFor creates a nested group guarded by another module
func (g *ModuleGroup) ChildFor(prefix, module string) *ModuleGroup {
	child := g.Child(prefix)
	child.module = module
	return child
}

// Handle declares a route requiring action on the group's module.
// Pass Public to only require authentication, ByMethod for plain CRUD.
func (g *ModuleGroup) Handle(method, relPath, action string, handler gin.HandlerFunc) *ModuleGroup {
	if action == ByMethod {
		action = middleware.MethodAction(method)
	}
	g.routes = append(g.routes, moduleRoute{method: method, path: relPath, action: action, handler: handler})
	return g
}

// GET declares a GET route
func (g *ModuleGroup) GET(relPath, action string, handler gin.HandlerFunc) *ModuleGroup {
	return g.Handle(http.MethodGet, relPath, action, handler)
}

// POST declares a POST route
func (g *ModuleGroup) POST(relPath, action string, handler gin.HandlerFunc) *ModuleGroup {
	return g.Handle(http.MethodPost, relPath, action, handler)
}

// PUT declares a PUT route
func (g *ModuleGroup) PUT(relPath, action string, handler gin.HandlerFunc) *ModuleGroup {
	return g.Handle(http.MethodPut, relPath, action, handler)
}

// DELETE declares a DELETE route
func (g *ModuleGroup) DELETE(relPath, action string, handler gin.HandlerFunc) *ModuleGroup {
	return g.Handle(http.MethodDelete, relPath, action, handler)
}

// Mount implements Mounter
func (g *ModuleGroup) Mount(parent *gin.RouterGroup) {
	rg := parent.Group(g.prefix, g.middleware...)
	for _, r := range g.routes {
		handlers := []gin.HandlerFunc{r.handler}
		if r.action != Public {
			handlers = append([]gin.HandlerFunc{middleware.RequirePermission(g.checker, g.module, r.action)}, handlers...)
		}
		rg.Handle(r.method, r.path, handlers...)
	}
	for _, child := range g.children {
		child.Mount(rg)
	}
}

// Guards lists every declared route with its full path below the API
// prefix and the right it needs. Public routes report an empty Action.
func (g *ModuleGroup) Guards() []Guarded {
	return g.guards("/")
}

func (g *ModuleGroup) guards(base string) []Guarded {
	prefix := path.Join(base, g.prefix)
	var out []Guarded
	for _, r := range g.routes {
		out = append(out, Guarded{
			Method: r.method,
			Path:   path.Join(prefix, r.path),
			Module: g.module,
			Action: r.action,
		})
	}
	for _, child := range g.children {
		out = append(out, child.guards(prefix)...)
	}
	return out
}
