package gateway

import (
	"sort"
	"strings"
)

// Route maps a public path prefix to a named upstream service.
type Route struct {
	Prefix  string
	Service string
}

// DefaultRoutes is the public surface of the gateway.
var DefaultRoutes = []Route{
	{Prefix: "/api/auth", Service: "auth"},
	{Prefix: "/api/organizations", Service: "organization"},
	{Prefix: "/api/farmers", Service: "farmer"},
	{Prefix: "/api/lorries", Service: "lorry"},
	{Prefix: "/api/lorry-requests", Service: "lorry"},
	{Prefix: "/api/deliveries", Service: "delivery"},
	{Prefix: "/api/advance-payments", Service: "payment"},
	{Prefix: "/api/notifications", Service: "notification"},
	{Prefix: "/api/field-managers", Service: "field-manager"},
	{Prefix: "/api/dashboard", Service: "farm-admin"},
	{Prefix: "/api/reports", Service: "report"},
}

// Table resolves request paths to routes, longest prefix first.
type Table struct {
	routes []Route
}

func NewTable(routes []Route) *Table {
	sorted := make([]Route, len(routes))
	copy(sorted, routes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &Table{routes: sorted}
}

// Match returns the route whose prefix covers path. A prefix only matches
// on a segment boundary, so /api/lorries never captures /api/lorriesX.
func (t *Table) Match(path string) (Route, bool) {
	for _, r := range t.routes {
		if path == r.Prefix || strings.HasPrefix(path, r.Prefix+"/") {
			return r, true
		}
	}
	return Route{}, false
}

// Services lists the distinct service names in the table.
func (t *Table) Services() []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range t.routes {
		if !seen[r.Service] {
			seen[r.Service] = true
			out = append(out, r.Service)
		}
	}
	sort.Strings(out)
	return out
}

// rewritePath swaps the public /api/ prefix for the upstream one.
func rewritePath(path, upstreamPrefix string) string {
	rest := strings.TrimPrefix(path, "/api/")
	if !strings.HasSuffix(upstreamPrefix, "/") {
		upstreamPrefix += "/"
	}
	return upstreamPrefix + rest
}
