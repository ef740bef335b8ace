package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"wellness-entitlements/database"
	"wellness-entitlements/logger"
	"wellness-entitlements/models"
	"wellness-entitlements/services"
	"wellness-entitlements/store"
)

type testServer struct {
	app    *fiber.App
	engine *services.Engine
	repo   *services.ProgressRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Nop()
	kv := store.NewMemoryKV()
	db := database.OpenTestDB(t)
	audit := store.NewGormAuditLog(db)
	repo := services.NewProgressRepository(kv, &services.SyncPersister{KV: kv, Audit: audit}, log)
	engine, err := services.NewEngine(
		repo,
		models.DefaultTierCatalogs(),
		models.MustAchievementCatalog(models.DefaultAchievements...),
		models.TemplateStepLimits,
		log,
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	catalog := services.NewContentCatalog(db)
	if err := catalog.Seed(context.Background(), models.DefaultContent); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	publisher := services.NewTemplatePublisher(db, repo, engine.Tiers[models.DomainTemplate], engine.Constraints, engine.Tracker, nil, log)

	app := fiber.New()
	SetupProgressionRoutes(app, engine, audit, log)
	SetupContentRoutes(app, engine, catalog, log)
	SetupTemplateRoutes(app, engine, publisher, log)
	SetupWaitlistRoutes(app, nil, log)
	SetupActivityStream(app, engine.Ledger, log)
	return &testServer{app: app, engine: engine, repo: repo}
}

func (s *testServer) do(t *testing.T, method, path, user, roles string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	if roles != "" {
		req.Header.Set("X-User-Roles", roles)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out := map[string]interface{}{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && raw[0] == '{' {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func TestProgressRoutes(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodGet, "/user/progress", "", "", nil)
	if code != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", code)
	}

	code, body = s.do(t, http.MethodPost, "/user/activity", "u1", "", map[string]interface{}{"kind": "referral_joined", "amount": 3})
	if code != fiber.StatusOK {
		t.Fatalf("activity: expected 200, got %d %v", code, body)
	}

	code, body = s.do(t, http.MethodGet, "/user/progress", "u1", "", nil)
	if code != fiber.StatusOK {
		t.Fatalf("progress: expected 200, got %d", code)
	}
	limits := body["template_limits"].(map[string]interface{})
	if limits["tier"] != "bronze" || limits["max_steps"].(float64) != 5 {
		t.Fatalf("unexpected template limits: %v", limits)
	}

	code, _ = s.do(t, http.MethodPost, "/user/progress/achievements/nope", "u1", "", map[string]interface{}{"delta": 1})
	if code != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown achievement, got %d", code)
	}
}

func TestAdminGrant(t *testing.T) {
	s := newTestServer(t)
	grant := map[string]interface{}{"user_id": "u2", "amount": 400, "reason": "support"}

	code, _ := s.do(t, http.MethodPost, "/s/admin/mp/grant", "ops", "member", grant)
	if code != fiber.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", code)
	}
	code, body := s.do(t, http.MethodPost, "/s/admin/mp/grant", "ops", "admin", grant)
	if code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d %v", code, body)
	}
	bal, _ := s.engine.Ledger.Balance(context.Background(), "u2")
	if bal.CurrentMP != 400 {
		t.Fatalf("expected 400 MP granted, got %d", bal.CurrentMP)
	}

	grant["amount"] = maxAdminGrant + 1
	code, body = s.do(t, http.MethodPost, "/s/admin/mp/grant", "ops", "admin", grant)
	if code != fiber.StatusBadRequest || body["code"] != "grant_too_large" {
		t.Fatalf("expected grant_too_large, got %d %v", code, body)
	}
	if bal, _ = s.engine.Ledger.Balance(context.Background(), "u2"); bal.CurrentMP != 400 {
		t.Fatalf("rejected grant changed balance: %d", bal.CurrentMP)
	}

	grant["amount"] = 0
	code, body = s.do(t, http.MethodPost, "/s/admin/mp/grant", "ops", "admin", grant)
	if code != fiber.StatusBadRequest || body["code"] != "invalid_amount" {
		t.Fatalf("expected invalid_amount, got %d %v", code, body)
	}
}

func TestContentAcquireStatusCodes(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	code, body := s.do(t, http.MethodPost, "/content/audio-forest-rain/acquire", "u1", "", nil)
	if code != fiber.StatusForbidden || body["code"] != "tier_locked" || body["required_tier"] != "silver" {
		t.Fatalf("expected tier_locked, got %d %v", code, body)
	}

	if _, err := s.engine.Ledger.Earn(ctx, "u1", 1500, "seed"); err != nil {
		t.Fatalf("Earn: %v", err)
	}
	if _, err := s.engine.Ledger.Spend(ctx, "u1", 1450, "other"); err != nil {
		t.Fatalf("Spend: %v", err)
	}
	code, body = s.do(t, http.MethodPost, "/content/audio-forest-rain/acquire", "u1", "", nil)
	if code != fiber.StatusPaymentRequired || body["code"] != "insufficient_funds" {
		t.Fatalf("expected insufficient_funds, got %d %v", code, body)
	}

	code, _ = s.do(t, http.MethodPost, "/content/missing/acquire", "u1", "", nil)
	if code != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	code, _ = s.do(t, http.MethodGet, "/content/video", "u1", "", nil)
	if code != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown domain, got %d", code)
	}
}

func TestTemplateRoutes(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.engine.Ledger.Earn(context.Background(), "u1", 1000, "seed"); err != nil {
		t.Fatalf("Earn: %v", err)
	}

	steps := make([]map[string]interface{}, 6)
	for i := range steps {
		steps[i] = map[string]interface{}{"title": "breathe", "duration_seconds": 60}
	}
	draft := map[string]interface{}{"title": "Calm", "description": "Short calm routine", "steps": steps}

	code, body := s.do(t, http.MethodPost, "/templates/validate", "u1", "", draft)
	if code != fiber.StatusOK || body["valid"] != false {
		t.Fatalf("expected invalid draft, got %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/templates/publish", "u1", "", draft)
	if code != fiber.StatusUnprocessableEntity || body["code"] != "validation_failed" {
		t.Fatalf("expected 422, got %d %v", code, body)
	}
	violations := body["violations"].([]interface{})
	if len(violations) != 1 || violations[0].(map[string]interface{})["code"] != "tooManySteps" {
		t.Fatalf("unexpected violations: %v", violations)
	}

	draft["steps"] = steps[:5]
	code, body = s.do(t, http.MethodPost, "/templates/publish", "u1", "", draft)
	if code != fiber.StatusCreated || body["status"] != "published" {
		t.Fatalf("expected 201, got %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/templates/reorder", "u1", "", map[string]interface{}{"draft": draft, "index": 0, "direction": "sideways"})
	if code != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for bad direction, got %d", code)
	}
}

func TestWaitlistNotConfigured(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, http.MethodPost, "/waitlist", "", "", map[string]interface{}{"email": "a@b.c"})
	if code != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
}

func TestAdminGrantOverflowRejected(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.engine.Ledger.Earn(context.Background(), "u3", math.MaxInt64-10, "seed"); err != nil {
		t.Fatalf("Earn: %v", err)
	}
	grant := map[string]interface{}{"user_id": "u3", "amount": 11, "reason": "support"}
	code, body := s.do(t, http.MethodPost, "/s/admin/mp/grant", "ops", "admin", grant)
	if code != fiber.StatusBadRequest || body["code"] != "balance_overflow" {
		t.Fatalf("expected balance_overflow, got %d %v", code, body)
	}
	bal, _ := s.engine.Ledger.Balance(context.Background(), "u3")
	if bal.CurrentMP != math.MaxInt64-10 {
		t.Fatalf("balance changed: %d", bal.CurrentMP)
	}
}

func TestMPHistory(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.repo.Now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	for _, r := range []string{"r1", "r2", "r3"} {
		if _, err := s.engine.Ledger.Earn(ctx, "u1", 10, r); err != nil {
			t.Fatalf("Earn: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/user/mp/history?limit=2", nil)
	req.Header.Set("X-User-ID", "u1")
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var entries []models.LedgerEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 || entries[0].Reason != "r3" || entries[1].Reason != "r2" {
		t.Fatalf("expected r3, r2 newest first, got %+v", entries)
	}
}

func TestWaitlistRejectsInvalidEmail(t *testing.T) {
	app := fiber.New()
	// Unroutable upstream: validation must fail before any request is made.
	SetupWaitlistRoutes(app, services.NewWaitlistClient("http://127.0.0.1:1", "", logger.Nop()), logger.Nop())

	for _, path := range []string{"/waitlist", "/waitlist?async=true"} {
		for _, email := range []string{"", "not-an-email"} {
			raw, _ := json.Marshal(map[string]string{"email": email})
			req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("%s: %v", path, err)
			}
			var body map[string]interface{}
			_ = json.NewDecoder(resp.Body).Decode(&body)
			resp.Body.Close()
			if resp.StatusCode != fiber.StatusBadRequest || body["code"] != "invalid_email" {
				t.Fatalf("%s %q: expected 400 invalid_email, got %d %v", path, email, resp.StatusCode, body)
			}
		}
	}
}
