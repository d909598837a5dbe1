// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"instipress/internal/cache"
	"instipress/internal/markdown"
	"instipress/internal/models"
	"instipress/internal/store"
)

// Public groups the unauthenticated content-delivery handlers. Published
// pages and posts are served as JSON, with the serialized payload cached
// in Valkey so repeat requests skip the database entirely.
type Public struct {
	pageStore *store.PageStore
	postStore *store.PostStore
	pageCache *cache.PageCache
}

// NewPublic creates a new Public handler group.
func NewPublic(pageStore *store.PageStore, postStore *store.PostStore, pageCache *cache.PageCache) *Public {
	return &Public{pageStore: pageStore, postStore: postStore, pageCache: pageCache}
}

// GetPage serves a published page by its full hierarchical slug. An
// empty path serves the homepage.
func (p *Public) GetPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	slugPath := strings.Trim(chi.URLParam(r, "*"), "/")
	cacheKey := slugPath
	if slugPath == "" {
		cacheKey = cache.HomepageKey()
	}

	if cached, ok := p.pageCache.GetPage(ctx, cacheKey); ok {
		writeCached(w, cached)
		return
	}

	var (
		page *models.Page
		err  error
	)
	if slugPath == "" {
		page, err = p.pageStore.FindHomepage()
	} else {
		page, err = p.pageStore.FindPublishedBySlug(slugPath)
	}
	if err != nil {
		respondInternalError(w, "find page failed", err)
		return
	}
	if page == nil || !page.IsPublished() {
		respondError(w, http.StatusNotFound, "not_found", "page not found")
		return
	}

	payload, err := json.Marshal(page)
	if err != nil {
		respondInternalError(w, "marshal page failed", err)
		return
	}
	p.pageCache.SetPage(ctx, cacheKey, payload)
	writeCached(w, payload)
}

// postView is a post with its markdown body rendered for clients.
type postView struct {
	models.Post
	BodyHTML string `json:"body_html"`
}

// GetPost serves a published post by slug with its body rendered to HTML.
func (p *Public) GetPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slugParam := chi.URLParam(r, "slug")

	if cached, ok := p.pageCache.GetPost(ctx, slugParam); ok {
		writeCached(w, cached)
		return
	}

	post, err := p.postStore.FindPublishedBySlug(slugParam)
	if err != nil {
		respondInternalError(w, "find post failed", err)
		return
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "not_found", "post not found")
		return
	}

	html, err := markdown.ToHTML(post.Body)
	if err != nil {
		respondInternalError(w, "markdown render failed", err)
		return
	}

	payload, err := json.Marshal(postView{Post: *post, BodyHTML: html})
	if err != nil {
		respondInternalError(w, "marshal post failed", err)
		return
	}
	p.pageCache.SetPost(ctx, slugParam, payload)
	writeCached(w, payload)
}

// ListPosts serves the published post index, newest first.
func (p *Public) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := p.postStore.ListPublished()
	if err != nil {
		respondInternalError(w, "list posts failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func writeCached(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}
