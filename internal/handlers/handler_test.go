// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"instipress/internal/cache"
	"instipress/internal/database"
	"instipress/internal/middleware"
	"instipress/internal/models"
	"instipress/internal/pagetree"
	"instipress/internal/session"
	"instipress/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "instipress")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "instipress")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		// Clean up test session and cache keys.
		for _, pattern := range []string{"session:*", "page:*", "post:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB         *sql.DB
	Valkey     *redis.Client
	Sessions   *session.Store
	PageStore  *store.PageStore
	PostStore  *store.PostStore
	BlockStore *store.BlockStore
	UserStore  *store.UserStore
	Tree       *pagetree.Tree
	PageCache  *cache.PageCache
	Auth       *Auth
	Pages      *Pages
	Posts      *Posts
	Blocks     *Blocks
	Public     *Public
}

// newTestEnv creates a complete test environment with all handler dependencies.
// The realtime publisher is left nil; event delivery is best-effort and
// covered by the realtime package's own tests.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	sessions := session.NewStore(vk, false)
	pageStore := store.NewPageStore(db)
	postStore := store.NewPostStore(db)
	blockStore := store.NewBlockStore(db)
	userStore := store.NewUserStore(db)
	tree := pagetree.New(pageStore, pagetree.DefaultMaxDepth)
	pageCache := cache.NewPageCache(vk, 1*time.Minute)

	return &testEnv{
		DB:         db,
		Valkey:     vk,
		Sessions:   sessions,
		PageStore:  pageStore,
		PostStore:  postStore,
		BlockStore: blockStore,
		UserStore:  userStore,
		Tree:       tree,
		PageCache:  pageCache,
		Auth:       NewAuth(sessions, userStore),
		Pages:      NewPages(pageStore, tree, pageCache, nil),
		Posts:      NewPosts(postStore, pageCache, nil),
		Blocks:     NewBlocks(blockStore, nil),
		Public:     NewPublic(pageStore, postStore, pageCache),
	}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates a session.Data for testing.
func testSession(userID uuid.UUID, email, role string) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       email,
		DisplayName: "Test User",
		Role:        role,
	}
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// jsonRequest builds a request with a JSON-encoded body.
func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeResponse unmarshals a JSON response body into dst.
func decodeResponse(t *testing.T, body *bytes.Buffer, dst any) {
	t.Helper()
	if err := json.Unmarshal(body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", body.String(), err)
	}
}

// testAuthorID returns a valid user ID for content creation.
func testAuthorID(t *testing.T, db *sql.DB) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	if err := db.QueryRow("SELECT id FROM users LIMIT 1").Scan(&id); err != nil {
		t.Fatalf("no users in database — run seed first: %v", err)
	}
	return id
}

// cleanPages removes test pages by slug, deepest first.
func cleanPages(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, s := range slugs {
		db.Exec("DELETE FROM pages WHERE slug = $1 OR slug LIKE $2", s, s+"/%")
	}
}

// cleanPosts removes test posts by slug.
func cleanPosts(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, s := range slugs {
		db.Exec("DELETE FROM posts WHERE slug = $1", s)
	}
}

// cleanBlocks removes test block definitions by slug.
func cleanBlocks(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, s := range slugs {
		db.Exec("DELETE FROM blocks WHERE slug = $1", s)
	}
}

// createPageViaHandler drives Pages.Create and returns the created page.
func createPageViaHandler(t *testing.T, env *testEnv, req pageRequest) *models.Page {
	t.Helper()

	httpReq := jsonRequest(t, http.MethodPost, "/admin/api/pages", req)
	sess := testSession(testAuthorID(t, env.DB), "admin@test.local", "admin")
	httpReq = httpReq.WithContext(ctxWithSession(httpReq.Context(), sess))

	rec := httptest.NewRecorder()
	env.Pages.Create(rec, httpReq)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create page %q: got status %d, body %s", req.Slug, rec.Code, rec.Body.String())
	}

	var page models.Page
	decodeResponse(t, rec.Body, &page)
	return &page
}
