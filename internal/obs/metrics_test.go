package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                              "/",
		"/metrics":                      "/metrics",
		"/v1/me":                        "/v1/me",
		"/v1/experts":                   "/v1/experts",
		"/v1/experts/abc":               "/v1/experts/:id",
		"/v1/experts/abc/courses":       "/v1/experts/:id/courses",
		"/v1/experts/abc/courses/def":   "/v1/experts/:id/courses/:id",
		"/v1/experts/abc/members/u-1":   "/v1/experts/:id/members/:id",
		"/v1/admin/users":               "/v1/admin/users",
		"/v1/admin/users/u-1/role":      "/v1/admin/users/:id/role",
		"/v1/admin/audit?limit=10":      "/v1/admin/audit",
		"/v1/admin/audit/actions":       "/v1/admin/audit/actions",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
