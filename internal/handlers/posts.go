package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"instipress/internal/cache"
	"instipress/internal/markdown"
	"instipress/internal/middleware"
	"instipress/internal/models"
	"instipress/internal/realtime"
	"instipress/internal/slug"
	"instipress/internal/store"
)

// Posts groups the admin blog-post handlers. Posts live in a flat slug
// namespace and don't touch the page tree.
type Posts struct {
	postStore *store.PostStore
	pageCache *cache.PageCache
	events    *realtime.Publisher
}

// NewPosts creates a new Posts handler group.
func NewPosts(postStore *store.PostStore, pageCache *cache.PageCache, events *realtime.Publisher) *Posts {
	return &Posts{postStore: postStore, pageCache: pageCache, events: events}
}

type postRequest struct {
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Body            string     `json:"body"`
	Excerpt         *string    `json:"excerpt"`
	Status          string     `json:"status"`
	MetaDescription *string    `json:"meta_description"`
	FeaturedImageID *uuid.UUID `json:"featured_image_id"`
}

// List returns all posts, newest first.
func (h *Posts) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postStore.List()
	if err != nil {
		respondInternalError(w, "list posts failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// Get returns a single post by id.
func (h *Posts) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	post, err := h.postStore.FindByID(id)
	if err != nil {
		respondInternalError(w, "find post failed", err)
		return
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "not_found", "post not found")
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// Create validates and creates a new post.
func (h *Posts) Create(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if req.Slug == "" {
		req.Slug = slug.Generate(req.Title)
	}
	if msg := validatePostFields(req.Title, req.Slug, req.Body, req.Excerpt, req.MetaDescription); msg != "" {
		respondError(w, http.StatusUnprocessableEntity, "invalid_field", msg)
		return
	}

	existing, err := h.postStore.FindBySlug(req.Slug)
	if err != nil {
		respondInternalError(w, "slug lookup failed", err)
		return
	}
	if existing != nil {
		respondError(w, http.StatusConflict, "slug_conflict", "a post with this slug already exists")
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	post := &models.Post{
		Title:           req.Title,
		Slug:            req.Slug,
		Body:            req.Body,
		Excerpt:         req.Excerpt,
		Status:          models.PostStatus(req.Status),
		MetaDescription: req.MetaDescription,
		FeaturedImageID: req.FeaturedImageID,
		AuthorID:        sess.UserID,
	}
	if post.Status == "" {
		post.Status = models.PostStatusDraft
	}
	if post.Status == models.PostStatusPublished {
		now := time.Now()
		post.PublishedAt = &now
	}

	created, err := h.postStore.Create(post)
	if err != nil {
		respondInternalError(w, "create post failed", err)
		return
	}

	h.publish(realtime.ActionCreated, created.ID, created.Slug, r)
	respondJSON(w, http.StatusCreated, created)
}

// Update validates and applies changes to a post.
func (h *Posts) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	post, err := h.postStore.FindByID(id)
	if err != nil {
		respondInternalError(w, "find post failed", err)
		return
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "not_found", "post not found")
		return
	}

	var req postRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if req.Slug == "" {
		req.Slug = post.Slug
	}
	if msg := validatePostFields(req.Title, req.Slug, req.Body, req.Excerpt, req.MetaDescription); msg != "" {
		respondError(w, http.StatusUnprocessableEntity, "invalid_field", msg)
		return
	}

	if req.Slug != post.Slug {
		existing, err := h.postStore.FindBySlug(req.Slug)
		if err != nil {
			respondInternalError(w, "slug lookup failed", err)
			return
		}
		if existing != nil {
			respondError(w, http.StatusConflict, "slug_conflict", "a post with this slug already exists")
			return
		}
	}

	oldSlug := post.Slug
	wasPublished := post.IsPublished()

	post.Title = req.Title
	post.Slug = req.Slug
	post.Body = req.Body
	post.Excerpt = req.Excerpt
	post.Status = models.PostStatus(req.Status)
	post.MetaDescription = req.MetaDescription
	post.FeaturedImageID = req.FeaturedImageID
	if post.IsPublished() && !wasPublished {
		now := time.Now()
		post.PublishedAt = &now
	}

	if err := h.postStore.Update(post); err != nil {
		respondInternalError(w, "update post failed", err)
		return
	}

	h.pageCache.InvalidatePost(r.Context(), oldSlug)
	if post.Slug != oldSlug {
		h.pageCache.InvalidatePost(r.Context(), post.Slug)
	}
	h.publish(realtime.ActionUpdated, post.ID, post.Slug, r)
	respondJSON(w, http.StatusOK, post)
}

// Delete removes a post permanently.
func (h *Posts) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	post, err := h.postStore.FindByID(id)
	if err != nil {
		respondInternalError(w, "find post failed", err)
		return
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "not_found", "post not found")
		return
	}

	if err := h.postStore.Delete(id); err != nil {
		respondInternalError(w, "delete post failed", err)
		return
	}

	h.pageCache.InvalidatePost(r.Context(), post.Slug)
	h.publish(realtime.ActionDeleted, post.ID, post.Slug, r)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type previewRequest struct {
	Body string `json:"body"`
}

// Preview renders a markdown body to HTML for the editor's preview pane.
func (h *Posts) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if len(req.Body) > maxBodyLen {
		respondError(w, http.StatusUnprocessableEntity, "invalid_field", "body is too long")
		return
	}

	html, err := markdown.ToHTML(req.Body)
	if err != nil {
		respondInternalError(w, "markdown render failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"html": html})
}

func (h *Posts) publish(action string, id uuid.UUID, slugValue string, r *http.Request) {
	if h.events == nil {
		return
	}
	if err := h.events.Publish(r.Context(), realtime.NewEvent("post", action, id, slugValue)); err != nil {
		slog.Warn("event publish failed", "entity", "post", "action", action, "error", err)
	}
}
