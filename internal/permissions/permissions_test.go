package permissions

import (
	"testing"

	"instipress/internal/models"
)

// TestMatch exercises wildcard matching across all three fields.
func TestMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		perm    string
		want    bool
	}{
		{name: "exact match", pattern: "content:page:update", perm: "content:page:update", want: true},
		{name: "action wildcard", pattern: "content:page:*", perm: "content:page:delete", want: true},
		{name: "resource wildcard", pattern: "content:*:read", perm: "content:post:read", want: true},
		{name: "module wildcard", pattern: "*:page:read", perm: "content:page:read", want: true},
		{name: "full wildcard", pattern: "*:*:*", perm: "media:file:delete", want: true},
		{name: "action mismatch", pattern: "content:page:read", perm: "content:page:update", want: false},
		{name: "resource mismatch", pattern: "content:page:*", perm: "content:post:read", want: false},
		{name: "module mismatch", pattern: "content:*:*", perm: "media:file:read", want: false},
		{name: "too few fields in pattern", pattern: "content:page", perm: "content:page:read", want: false},
		{name: "too many fields requested", perm: "content:page:read:extra", pattern: "*:*:*", want: false},
		{name: "wildcard in request is literal", pattern: "content:page:read", perm: "content:page:*", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(tt.pattern, tt.perm); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.pattern, tt.perm, got, tt.want)
			}
		})
	}
}

// TestSetAllows verifies that a set grants a permission when any pattern
// matches.
func TestSetAllows(t *testing.T) {
	s := Set{"content:page:read", "media:file:*"}

	if !s.Allows("content:page:read") {
		t.Error("expected exact grant to allow")
	}
	if !s.Allows("media:file:delete") {
		t.Error("expected wildcard grant to allow")
	}
	if s.Allows("content:page:delete") {
		t.Error("page delete is not granted")
	}
	if (Set)(nil).Allows("content:page:read") {
		t.Error("empty set must deny everything")
	}
}

// TestRoleMatrix spot-checks the built-in role grants.
func TestRoleMatrix(t *testing.T) {
	tests := []struct {
		name string
		role models.Role
		perm string
		want bool
	}{
		{name: "admin does anything", role: models.RoleAdmin, perm: "users:user:delete", want: true},
		{name: "editor updates pages", role: models.RoleEditor, perm: "content:page:update", want: true},
		{name: "editor uploads media", role: models.RoleEditor, perm: "media:file:create", want: true},
		{name: "editor cannot manage users", role: models.RoleEditor, perm: "users:user:create", want: false},
		{name: "viewer reads posts", role: models.RoleViewer, perm: "content:post:read", want: true},
		{name: "viewer cannot write", role: models.RoleViewer, perm: "content:page:update", want: false},
		{name: "unknown role denied", role: models.Role("ghost"), perm: "content:page:read", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allowed(tt.role, tt.perm); got != tt.want {
				t.Errorf("Allowed(%q, %q) = %v, want %v", tt.role, tt.perm, got, tt.want)
			}
		})
	}
}
