package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"instipress/internal/models"
	"instipress/internal/realtime"
	"instipress/internal/slug"
	"instipress/internal/store"
)

// Blocks groups the admin handlers for reusable block definitions. A
// block's schema describes the fields the page builder offers when the
// block is placed on a page.
type Blocks struct {
	blockStore *store.BlockStore
	events     *realtime.Publisher
}

// NewBlocks creates a new Blocks handler group.
func NewBlocks(blockStore *store.BlockStore, events *realtime.Publisher) *Blocks {
	return &Blocks{blockStore: blockStore, events: events}
}

type blockRequest struct {
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema"`
	Defaults    json.RawMessage `json:"defaults"`
}

// List returns all block definitions grouped for the builder palette.
func (h *Blocks) List(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.blockStore.List()
	if err != nil {
		respondInternalError(w, "list blocks failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"blocks": blocks})
}

// Get returns a single block definition by id.
func (h *Blocks) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	block, err := h.blockStore.FindByID(id)
	if err != nil {
		respondInternalError(w, "find block failed", err)
		return
	}
	if block == nil {
		respondError(w, http.StatusNotFound, "not_found", "block not found")
		return
	}
	respondJSON(w, http.StatusOK, block)
}

// Create validates and creates a new block definition.
func (h *Blocks) Create(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if req.Slug == "" {
		req.Slug = slug.Generate(req.Name)
	}
	if msg := validateBlockFields(req.Name, req.Slug, req.Schema); msg != "" {
		respondError(w, http.StatusUnprocessableEntity, "invalid_field", msg)
		return
	}

	existing, err := h.blockStore.FindBySlug(req.Slug)
	if err != nil {
		respondInternalError(w, "slug lookup failed", err)
		return
	}
	if existing != nil {
		respondError(w, http.StatusConflict, "slug_conflict", "a block with this slug already exists")
		return
	}

	created, err := h.blockStore.Create(&models.Block{
		Name:        req.Name,
		Slug:        req.Slug,
		Category:    req.Category,
		Description: req.Description,
		Schema:      req.Schema,
		Defaults:    req.Defaults,
	})
	if err != nil {
		respondInternalError(w, "create block failed", err)
		return
	}

	h.publish(realtime.ActionCreated, created.ID, created.Slug, r)
	respondJSON(w, http.StatusCreated, created)
}

// Update validates and applies changes to a block definition.
func (h *Blocks) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	block, err := h.blockStore.FindByID(id)
	if err != nil {
		respondInternalError(w, "find block failed", err)
		return
	}
	if block == nil {
		respondError(w, http.StatusNotFound, "not_found", "block not found")
		return
	}

	var req blockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if req.Slug == "" {
		req.Slug = block.Slug
	}
	if msg := validateBlockFields(req.Name, req.Slug, req.Schema); msg != "" {
		respondError(w, http.StatusUnprocessableEntity, "invalid_field", msg)
		return
	}

	if req.Slug != block.Slug {
		existing, err := h.blockStore.FindBySlug(req.Slug)
		if err != nil {
			respondInternalError(w, "slug lookup failed", err)
			return
		}
		if existing != nil {
			respondError(w, http.StatusConflict, "slug_conflict", "a block with this slug already exists")
			return
		}
	}

	block.Name = req.Name
	block.Slug = req.Slug
	block.Category = req.Category
	block.Description = req.Description
	block.Schema = req.Schema
	block.Defaults = req.Defaults

	if err := h.blockStore.Update(block); err != nil {
		respondInternalError(w, "update block failed", err)
		return
	}

	h.publish(realtime.ActionUpdated, block.ID, block.Slug, r)
	respondJSON(w, http.StatusOK, block)
}

// Delete removes a block definition. Pages referencing it keep their
// stored block payload; the builder shows them as unknown blocks.
func (h *Blocks) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	block, err := h.blockStore.FindByID(id)
	if err != nil {
		respondInternalError(w, "find block failed", err)
		return
	}
	if block == nil {
		respondError(w, http.StatusNotFound, "not_found", "block not found")
		return
	}

	if err := h.blockStore.Delete(id); err != nil {
		respondInternalError(w, "delete block failed", err)
		return
	}

	h.publish(realtime.ActionDeleted, block.ID, block.Slug, r)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Blocks) publish(action string, id uuid.UUID, slugValue string, r *http.Request) {
	if h.events == nil {
		return
	}
	if err := h.events.Publish(r.Context(), realtime.NewEvent("block", action, id, slugValue)); err != nil {
		slog.Warn("event publish failed", "entity", "block", "action", action, "error", err)
	}
}
