package audit

import "testing"

func TestParseRoute(t *testing.T) {
	testCases := []struct {
		method, pattern string
		want            ActionResource
	}{
		{"POST", "/auth/register", ActionResource{"register", "user"}},
		{"POST", "/auth/login", ActionResource{"login", "session"}},
		{"GET", "/api/users", ActionResource{"list", "user"}},
		{"GET", "/api/users/{id}", ActionResource{"get", "user"}},
		{"GET", "/api/organisations", ActionResource{"list", "organisation"}},
		{"GET", "/api/organisations/{orgId}", ActionResource{"get", "organisation"}},
		{"POST", "/api/organisations", ActionResource{"create", "organisation"}},
		{"POST", "/api/organisations/{orgId}/users", ActionResource{"user_added", "organisation"}},
		{"DELETE", "/api/widgets/{id}", ActionResource{"delete", "widget"}},
		{"PATCH", "/api/widgets/{id}", ActionResource{"update", "widget"}},
		{"OPTIONS", "/api/widgets", ActionResource{"options", "widget"}},
		{"GET", "", ActionResource{"list", "unknown"}},
		{"GET", "/{id}", ActionResource{"get", "unknown"}},
	}
	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.pattern, func(t *testing.T) {
			if got := ParseRoute(tc.method, tc.pattern); got != tc.want {
				t.Errorf("ParseRoute(%q, %q) = %+v, want %+v", tc.method, tc.pattern, got, tc.want)
			}
		})
	}
}
