// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the InstiPress API.
// Handlers are grouped by concern (auth, pages, posts, blocks, media,
// public) and receive their dependencies through the handler struct.
// All endpoints speak JSON; the admin dashboard is a separate SPA.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"instipress/internal/pagetree"
)

// maxJSONBody caps JSON request bodies at 1 MB. Page block payloads are
// the largest legitimate bodies and stay well under this.
const maxJSONBody = 1 << 20

// apiError is the uniform error response body.
type apiError struct {
	Error   string     `json:"error"`
	Message string     `json:"message,omitempty"`
	PageID  *uuid.UUID `json:"page_id,omitempty"`
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("json encode failed", "error", err)
		}
	}
}

// respondError writes a uniform JSON error body.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, apiError{Error: code, Message: message})
}

// respondInternalError logs the underlying error and writes a generic 500.
func respondInternalError(w http.ResponseWriter, what string, err error) {
	slog.Error(what, "error", err)
	respondError(w, http.StatusInternalServerError, "internal_server_error", "")
}

// respondTreeError maps a page-tree validation error to an HTTP status
// and serializes its code, reason, and offending page id. Unknown errors
// fall through to a 500.
func respondTreeError(w http.ResponseWriter, err error) {
	var te *pagetree.Error
	if !errors.As(err, &te) {
		respondInternalError(w, "page tree operation failed", err)
		return
	}

	status := map[pagetree.Code]int{
		pagetree.CodeNotFound:              http.StatusNotFound,
		pagetree.CodeInvalidSlugStructure:  http.StatusUnprocessableEntity,
		pagetree.CodeSlugConflict:          http.StatusConflict,
		pagetree.CodeSiblingSlugConflict:   http.StatusConflict,
		pagetree.CodeDepthExceeded:         http.StatusUnprocessableEntity,
		pagetree.CodeInvalidHomepageParent: http.StatusUnprocessableEntity,
		pagetree.CodeCircularParent:        http.StatusConflict,
		pagetree.CodeCascadeUpdateFailed:   http.StatusInternalServerError,
	}[te.Code]
	if status == 0 {
		status = http.StatusInternalServerError
	}

	body := apiError{Error: string(te.Code), Message: te.Reason}
	if te.PageID != uuid.Nil {
		id := te.PageID
		body.PageID = &id
	}
	respondJSON(w, status, body)
}

// decodeJSON reads a size-capped JSON body into dst, rejecting unknown
// fields so typos in the dashboard surface as errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

// parseID extracts and parses a UUID route parameter.
func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
