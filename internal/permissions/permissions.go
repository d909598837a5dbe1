// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package permissions implements the module:resource:action permission
// matrix used to gate admin API operations. A grant like "content:page:*"
// covers every action on pages; "*:*:*" is the admin superuser grant.
package permissions

import (
	"strings"

	"instipress/internal/models"
)

// A permission string has exactly three colon-separated fields:
// module, resource, and action. Any field of a grant may be "*".
const fieldCount = 3

// Set is a list of permission grant patterns.
type Set []string

// Match reports whether a single grant pattern covers the requested
// permission. Both must have three fields; a "*" grant field matches any
// requested field.
func Match(pattern, perm string) bool {
	pf := strings.Split(pattern, ":")
	rf := strings.Split(perm, ":")
	if len(pf) != fieldCount || len(rf) != fieldCount {
		return false
	}
	for i := 0; i < fieldCount; i++ {
		if pf[i] != "*" && pf[i] != rf[i] {
			return false
		}
	}
	return true
}

// Allows reports whether any grant in the set covers the requested
// permission.
func (s Set) Allows(perm string) bool {
	for _, pattern := range s {
		if Match(pattern, perm) {
			return true
		}
	}
	return false
}

// roleGrants is the built-in role matrix. Admins can do everything;
// editors manage content and media but not users; viewers only read.
var roleGrants = map[models.Role]Set{
	models.RoleAdmin: {
		"*:*:*",
	},
	models.RoleEditor: {
		"content:page:*",
		"content:post:*",
		"content:block:*",
		"media:file:*",
		"users:user:read",
	},
	models.RoleViewer: {
		"content:*:read",
		"media:file:read",
	},
}

// ForRole returns the grant set for a role. Unknown roles get no grants.
func ForRole(role models.Role) Set {
	return roleGrants[role]
}

// Allowed reports whether the role covers the requested permission.
func Allowed(role models.Role, perm string) bool {
	return ForRole(role).Allows(perm)
}
