package api

import (
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

// Registry holds all registered endpoints.
type Registry struct {
	endpoints []Endpoint
}

// NewRegistry creates a new endpoint registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an endpoint to the registry.
func (r *Registry) Register(ep Endpoint) {
	r.endpoints = append(r.endpoints, ep)
}

// RegisterRoutes registers all endpoint HTTP routes with the given mux.
// initMiddleware wraps handlers that require full server initialization.
func (r *Registry) RegisterRoutes(mux *http.ServeMux, initMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	for _, ep := range r.endpoints {
		method, path, handler := ep.Route()
		if ep.RequiresInit() {
			handler = initMiddleware(handler)
		}
		mux.HandleFunc(method+" "+path, handler)
	}
}

// BuildCommands returns a cobra.Command tree for all registered endpoints.
// Commands are organized by their URL path structure: routes under
// /api/<group>/ become "api <group> <cmd>", everything else sits directly
// under "api". getServerURL is called at runtime to get the server URL.
func (r *Registry) BuildCommands(getServerURL func() string) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Commands that call the running server",
		Long: `API commands call the running docgen server via HTTP.

These commands require a running server (docgen serve).
Use --server to specify a custom server URL.

Examples:
  docgen api health                         # Check server health
  docgen api documents create --topic Go    # Start a document
  docgen api jobs get <id>                  # Poll a job`,
	}

	groups := make(map[string]*cobra.Command)
	for _, ep := range r.endpoints {
		cmd := ep.Command(getServerURL)
		if cmd == nil {
			continue
		}
		_, path, _ := ep.Route()
		group := commandGroup(path)
		if group == "" {
			apiCmd.AddCommand(cmd)
			continue
		}
		parent, ok := groups[group]
		if !ok {
			parent = &cobra.Command{
				Use:   group,
				Short: strings.ToUpper(group[:1]) + group[1:] + " commands",
			}
			groups[group] = parent
			apiCmd.AddCommand(parent)
		}
		parent.AddCommand(cmd)
	}

	return apiCmd
}

// commandGroup returns the path segment after /api/, or "" for top-level routes.
func commandGroup(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/")
	if !ok {
		return ""
	}
	group, _, _ := strings.Cut(rest, "/")
	return group
}

// Endpoints returns all registered endpoints.
func (r *Registry) Endpoints() []Endpoint {
	return r.endpoints
}
