// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"instipress/internal/cache"
	"instipress/internal/middleware"
	"instipress/internal/models"
	"instipress/internal/pagetree"
	"instipress/internal/realtime"
	"instipress/internal/slug"
	"instipress/internal/store"
)

// Pages groups the admin page-management handlers. Every slug- or
// parent-changing operation runs the page tree validators before any
// write and cascades descendant slugs after a rename commits.
type Pages struct {
	pageStore *store.PageStore
	tree      *pagetree.Tree
	pageCache *cache.PageCache
	events    *realtime.Publisher
}

// NewPages creates a new Pages handler group.
func NewPages(pageStore *store.PageStore, tree *pagetree.Tree, pageCache *cache.PageCache, events *realtime.Publisher) *Pages {
	return &Pages{
		pageStore: pageStore,
		tree:      tree,
		pageCache: pageCache,
		events:    events,
	}
}

type pageRequest struct {
	Title           string          `json:"title"`
	Slug            string          `json:"slug"`
	ParentID        *uuid.UUID      `json:"parent_id"`
	IsHomepage      bool            `json:"is_homepage"`
	Status          string          `json:"status"`
	Blocks          json.RawMessage `json:"blocks"`
	MetaDescription *string         `json:"meta_description"`
	SortOrder       int             `json:"sort_order"`
}

// resolveSlug returns the full slug path for the request: the submitted
// slug when present, otherwise one derived from the title under the
// requested parent.
func (h *Pages) resolveSlug(req *pageRequest) (string, error) {
	if req.Slug != "" {
		return req.Slug, nil
	}
	if req.ParentID == nil {
		return slug.Generate(req.Title), nil
	}
	parentPath, err := h.tree.BuildPath(*req.ParentID)
	if err != nil {
		return "", err
	}
	return slug.Child(parentPath, req.Title), nil
}

// validate runs the full battery on a proposed (slug, parent, homepage)
// triple. excludingID is uuid.Nil on create.
func (h *Pages) validate(slugPath string, parentID *uuid.UUID, isHomepage bool, excludingID uuid.UUID) error {
	if err := pagetree.ValidateHomepage(isHomepage, parentID); err != nil {
		return err
	}
	if err := h.tree.ValidateDepth(slugPath); err != nil {
		return err
	}
	return h.tree.ValidateSlug(slugPath, parentID, excludingID)
}

// List returns all pages flat, ordered by slug. ?trash=1 lists the trash
// instead.
func (h *Pages) List(w http.ResponseWriter, r *http.Request) {
	var (
		pages []models.Page
		err   error
	)
	if r.URL.Query().Get("trash") == "1" {
		pages, err = h.pageStore.ListTrash()
	} else {
		pages, err = h.pageStore.List()
	}
	if err != nil {
		respondInternalError(w, "list pages failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"pages": pages})
}

// Tree returns the nested page tree used by the dashboard's page browser.
func (h *Pages) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.pageStore.Tree()
	if err != nil {
		respondInternalError(w, "page tree failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"pages": tree})
}

// Get returns a single page by id, trashed or not.
func (h *Pages) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	page, err := h.pageStore.FindByID(id)
	if err != nil {
		respondInternalError(w, "find page failed", err)
		return
	}
	if page == nil {
		respondError(w, http.StatusNotFound, "not_found", "page not found")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// Create validates and creates a new page.
func (h *Pages) Create(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if msg := validatePageFields(req.Title, req.Slug, req.MetaDescription, req.Blocks); msg != "" {
		respondError(w, http.StatusUnprocessableEntity, "invalid_field", msg)
		return
	}

	slugPath, err := h.resolveSlug(&req)
	if err != nil {
		respondTreeError(w, err)
		return
	}

	if err := h.validate(slugPath, req.ParentID, req.IsHomepage, uuid.Nil); err != nil {
		respondTreeError(w, err)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	page := &models.Page{
		Title:           req.Title,
		Slug:            slugPath,
		ParentID:        req.ParentID,
		Status:          models.PageStatus(req.Status),
		Blocks:          req.Blocks,
		MetaDescription: req.MetaDescription,
		SortOrder:       req.SortOrder,
		AuthorID:        sess.UserID,
	}
	if page.Status == "" {
		page.Status = models.PageStatusDraft
	}

	created, err := h.pageStore.Create(page)
	if err != nil {
		respondInternalError(w, "create page failed", err)
		return
	}

	if req.IsHomepage {
		if err := h.pageStore.SetHomepage(created.ID); err != nil {
			respondInternalError(w, "set homepage failed", err)
			return
		}
		created.IsHomepage = true
		h.pageCache.InvalidateHomepage(r.Context())
	}

	h.publish("page", realtime.ActionCreated, created.ID, created.Slug, r)
	respondJSON(w, http.StatusCreated, created)
}

// Update validates and applies changes to a page. A slug change cascades
// to every descendant after the page's own row is committed.
func (h *Pages) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	page, err := h.pageStore.FindByID(id)
	if err != nil {
		respondInternalError(w, "find page failed", err)
		return
	}
	if page == nil {
		respondError(w, http.StatusNotFound, "not_found", "page not found")
		return
	}

	var req pageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if msg := validatePageFields(req.Title, req.Slug, req.MetaDescription, req.Blocks); msg != "" {
		respondError(w, http.StatusUnprocessableEntity, "invalid_field", msg)
		return
	}

	// Reparenting must not create a cycle.
	if !ptrEqual(page.ParentID, req.ParentID) {
		if err := h.tree.GuardCycle(id, req.ParentID); err != nil {
			respondTreeError(w, err)
			return
		}
	}

	slugPath, err := h.resolveSlug(&req)
	if err != nil {
		respondTreeError(w, err)
		return
	}

	if err := h.validate(slugPath, req.ParentID, req.IsHomepage, id); err != nil {
		respondTreeError(w, err)
		return
	}

	oldSlug := page.Slug
	wasHomepage := page.IsHomepage

	page.Title = req.Title
	page.Slug = slugPath
	page.ParentID = req.ParentID
	page.Status = models.PageStatus(req.Status)
	page.Blocks = req.Blocks
	page.MetaDescription = req.MetaDescription
	page.SortOrder = req.SortOrder

	if err := h.pageStore.Update(page); err != nil {
		respondInternalError(w, "update page failed", err)
		return
	}

	// The page's own row is committed; now pull its subtree along. A
	// failure here leaves already-renamed descendants in place, so the
	// error names the offending child for manual repair.
	if slugPath != oldSlug {
		if err := h.tree.CascadeRename(id, slugPath); err != nil {
			slog.Error("cascade rename failed", "page", id, "error", err)
			h.pageCache.InvalidateAll(r.Context())
			respondTreeError(w, err)
			return
		}
		h.pageCache.InvalidateTree(r.Context(), oldSlug)
		h.pageCache.InvalidateTree(r.Context(), slugPath)
	} else {
		h.pageCache.InvalidatePage(r.Context(), slugPath)
	}

	if req.IsHomepage && !wasHomepage {
		if err := h.pageStore.SetHomepage(id); err != nil {
			respondInternalError(w, "set homepage failed", err)
			return
		}
		page.IsHomepage = true
	}
	if req.IsHomepage || wasHomepage {
		h.pageCache.InvalidateHomepage(r.Context())
	}

	h.publish("page", realtime.ActionUpdated, page.ID, page.Slug, r)
	respondJSON(w, http.StatusOK, page)
}

type moveRequest struct {
	ParentID *uuid.UUID `json:"parent_id"`
}

// Move reparents a page, recomputing its slug under the new parent and
// cascading the rename through its subtree.
func (h *Pages) Move(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	page, err := h.pageStore.FindByID(id)
	if err != nil {
		respondInternalError(w, "find page failed", err)
		return
	}
	if page == nil {
		respondError(w, http.StatusNotFound, "not_found", "page not found")
		return
	}

	var req moveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	if err := h.tree.GuardCycle(id, req.ParentID); err != nil {
		respondTreeError(w, err)
		return
	}

	// The page keeps its own segment; the prefix comes from the new parent.
	newSlug := page.Segment()
	if req.ParentID != nil {
		parentPath, err := h.tree.BuildPath(*req.ParentID)
		if err != nil {
			respondTreeError(w, err)
			return
		}
		newSlug = parentPath + "/" + page.Segment()
	}

	if err := h.validate(newSlug, req.ParentID, page.IsHomepage, id); err != nil {
		respondTreeError(w, err)
		return
	}

	oldSlug := page.Slug
	page.ParentID = req.ParentID
	page.Slug = newSlug
	if err := h.pageStore.Update(page); err != nil {
		respondInternalError(w, "move page failed", err)
		return
	}

	if newSlug != oldSlug {
		if err := h.tree.CascadeRename(id, newSlug); err != nil {
			slog.Error("cascade rename failed", "page", id, "error", err)
			h.pageCache.InvalidateAll(r.Context())
			respondTreeError(w, err)
			return
		}
		h.pageCache.InvalidateTree(r.Context(), oldSlug)
		h.pageCache.InvalidateTree(r.Context(), newSlug)
	}

	h.publish("page", realtime.ActionUpdated, page.ID, page.Slug, r)
	respondJSON(w, http.StatusOK, page)
}

// Trash soft-deletes a page together with its whole subtree. Trashing a
// parent but not its children would break the slug-prefix invariant for
// the survivors.
func (h *Pages) Trash(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	page, err := h.pageStore.FindByID(id)
	if err != nil {
		respondInternalError(w, "find page failed", err)
		return
	}
	if page == nil {
		respondError(w, http.StatusNotFound, "not_found", "page not found")
		return
	}

	descendants, err := h.tree.Descendants(id)
	if err != nil {
		respondTreeError(w, err)
		return
	}
	for _, did := range append(descendants, id) {
		if err := h.pageStore.Trash(did); err != nil {
			respondInternalError(w, "trash page failed", err)
			return
		}
	}

	h.pageCache.InvalidateTree(r.Context(), page.Slug)
	if page.IsHomepage {
		h.pageCache.InvalidateHomepage(r.Context())
	}
	h.publish("page", realtime.ActionTrashed, page.ID, page.Slug, r)
	respondJSON(w, http.StatusOK, map[string]string{"status": "trashed"})
}

// Restore brings a trashed page and its subtree back.
func (h *Pages) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	page, err := h.pageStore.FindByID(id)
	if err != nil {
		respondInternalError(w, "find page failed", err)
		return
	}
	if page == nil {
		respondError(w, http.StatusNotFound, "not_found", "page not found")
		return
	}

	descendants, err := h.tree.Descendants(id)
	if err != nil {
		respondTreeError(w, err)
		return
	}
	for _, did := range append([]uuid.UUID{id}, descendants...) {
		if err := h.pageStore.Restore(did); err != nil {
			respondInternalError(w, "restore page failed", err)
			return
		}
	}

	h.publish("page", realtime.ActionRestored, page.ID, page.Slug, r)
	respondJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

// Purge permanently deletes a trashed page and its subtree.
func (h *Pages) Purge(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	page, err := h.pageStore.FindByID(id)
	if err != nil {
		respondInternalError(w, "find page failed", err)
		return
	}
	if page == nil {
		respondError(w, http.StatusNotFound, "not_found", "page not found")
		return
	}
	if !page.IsTrashed() {
		respondError(w, http.StatusConflict, "not_trashed", "only trashed pages can be purged")
		return
	}

	descendants, err := h.tree.Descendants(id)
	if err != nil {
		respondTreeError(w, err)
		return
	}
	// Children first so no row ever points at a purged parent.
	for i := len(descendants) - 1; i >= 0; i-- {
		if err := h.pageStore.Purge(descendants[i]); err != nil {
			respondInternalError(w, "purge page failed", err)
			return
		}
	}
	if err := h.pageStore.Purge(id); err != nil {
		respondInternalError(w, "purge page failed", err)
		return
	}

	h.publish("page", realtime.ActionDeleted, page.ID, page.Slug, r)
	respondJSON(w, http.StatusOK, map[string]string{"status": "purged"})
}

// publish sends a realtime event, logging failures instead of surfacing
// them: event delivery is best-effort.
func (h *Pages) publish(entity, action string, id uuid.UUID, slugPath string, r *http.Request) {
	if h.events == nil {
		return
	}
	if err := h.events.Publish(r.Context(), realtime.NewEvent(entity, action, id, slugPath)); err != nil {
		slog.Warn("event publish failed", "entity", entity, "action", action, "error", err)
	}
}

func ptrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
