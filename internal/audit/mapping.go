package audit

import (
	"net/http"
	"strings"
)

// ActionResource holds action and resource derived from an HTTP route.
type ActionResource struct {
	Action   string
	Resource string
}

// Route overrides. Keys are "METHOD pattern" with chi route patterns.
var routeOverrides = map[string]ActionResource{
	"POST /auth/register":                   {Action: "register", Resource: "user"},
	"POST /auth/login":                      {Action: "login", Resource: "session"},
	"POST /api/organisations/{orgId}/users": {Action: "user_added", Resource: "organisation"},
	"GET /api/organisations/{orgId}":        {Action: "get", Resource: "organisation"},
	"GET /api/users/{id}":                   {Action: "get", Resource: "user"},
}

// ParseRoute returns action and resource for an HTTP method and chi route pattern
// (e.g. GET /api/users/{id}). Without an override the action follows the method
// (GET on a collection is "list", GET on an item is "get") and the resource is the
// last literal path segment in singular form.
func ParseRoute(method, pattern string) ActionResource {
	if ar, ok := routeOverrides[method+" "+pattern]; ok {
		return ar
	}
	segments := strings.Split(strings.Trim(pattern, "/"), "/")
	resource := "unknown"
	item := false
	for i := len(segments) - 1; i >= 0; i-- {
		s := segments[i]
		if s == "" {
			continue
		}
		if strings.HasPrefix(s, "{") {
			if i == len(segments)-1 {
				item = true
			}
			continue
		}
		resource = singular(s)
		break
	}
	return ActionResource{Action: methodToAction(method, item), Resource: resource}
}

func singular(s string) string {
	s = strings.ToLower(s)
	if strings.HasSuffix(s, "s") && len(s) > 1 {
		return s[:len(s)-1]
	}
	return s
}

func methodToAction(method string, item bool) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		if item {
			return "get"
		}
		return "list"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
