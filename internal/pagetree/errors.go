// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pagetree

import (
	"errors"

	"github.com/google/uuid"
)

// Code identifies the category of a page-tree validation failure. Codes are
// stable strings so the admin dashboard can branch on them; the Reason text
// is shown to the user as-is.
type Code string

const (
	CodeNotFound              Code = "not_found"
	CodeInvalidSlugStructure  Code = "invalid_slug_structure"
	CodeSlugConflict          Code = "slug_conflict"
	CodeSiblingSlugConflict   Code = "sibling_slug_conflict"
	CodeDepthExceeded         Code = "depth_exceeded"
	CodeInvalidHomepageParent Code = "invalid_homepage_parent"
	CodeCircularParent        Code = "circular_parent"
	CodeCascadeUpdateFailed   Code = "cascade_update_failed"
)

// Error is a structured validation failure. Validators return it as a
// value; nothing in this package panics.
type Error struct {
	Code   Code
	Reason string
	// PageID names the offending page when one is known — for
	// CodeCascadeUpdateFailed it identifies the descendant whose rewrite
	// failed, which the operator needs for manual repair.
	PageID uuid.UUID
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Reason
}

// CodeOf extracts the validation code from an error chain. Returns the
// empty code if err is not a page-tree validation error.
func CodeOf(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
