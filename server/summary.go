package server

import (
	"cmp"
	"slices"
	"strings"
)

// Route is one registered route as shown in the startup log.
type Route struct {
	Method  string
	Path    string
	Handler string
	System  bool
}

var methodRank = map[string]int{"GET": 0, "POST": 1, "PUT": 2, "PATCH": 3, "DELETE": 4}

func rank(method string) int {
	if r, ok := methodRank[method]; ok {
		return r
	}
	return len(methodRank)
}

// Routes lists sidecar routes before system routes, each group by path then
// method.
func (s *Server) Routes() []Route {
	var routes []Route
	for _, r := range s.engine.Routes() {
		routes = append(routes, Route{
			Method:  r.Method,
			Path:    r.Path,
			Handler: formatHandlerName(r.Handler),
			System:  systemPaths[r.Path],
		})
	}
	slices.SortFunc(routes, func(a, b Route) int {
		if a.System != b.System {
			if a.System {
				return 1
			}
			return -1
		}
		if c := cmp.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return cmp.Compare(rank(a.Method), rank(b.Method))
	})
	return routes
}

// formatHandlerName shortens gin's handler names.
//
//	".../api.(*Handler).Refresh-fm"       -> "Handler.Refresh"
//	".../server/endpoint.Health.func1"    -> "health"
func formatHandlerName(full string) string {
	name := strings.TrimSuffix(full, "-fm")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)

	parts := strings.Split(name, ".")
	if last := parts[len(parts)-1]; strings.HasPrefix(last, "func") {
		// Closure returned by a constructor: use the constructor name.
		for i := len(parts) - 1; i >= 0; i-- {
			if !strings.HasPrefix(parts[i], "func") {
				return strings.ToLower(parts[i])
			}
		}
	}
	if len(parts) > 1 && parts[0] == strings.ToLower(parts[0]) {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}
