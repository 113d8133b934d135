package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"regintel/internal/config"
	"regintel/internal/domain"
	"regintel/internal/infrastructure/classifier"
	"regintel/internal/infrastructure/parser"
	"regintel/internal/registry"
	"regintel/internal/rules"
	"regintel/internal/usecase"
)

const feedFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>CCB News</title>
<item>
  <title>Cannabis Control Board Adopts Emergency Rule</title>
  <link>https://ccb.vermont.gov/news/emergency-rule</link>
  <description>Emergency rule on cannabis potency testing.</description>
  <guid>ccb-2026-081</guid>
</item>
</channel></rss>`

type stubFetcher struct {
	body string
}

func (s *stubFetcher) Fetch(context.Context, string) (string, error) {
	return s.body, nil
}

type stubStore struct {
	jurErr  error
	upserts int
}

func (s *stubStore) JurisdictionIDs(context.Context) (map[string]string, error) {
	if s.jurErr != nil {
		return nil, s.jurErr
	}
	return map[string]string{"VT": "jur-vt"}, nil
}

func (s *stubStore) SeenExternalIDs(context.Context, string) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (s *stubStore) UpsertRecord(context.Context, domain.ContentRecord) error {
	s.upserts++
	return nil
}

func (s *stubStore) InsertRunLog(context.Context, domain.RunLog) error { return nil }

func (s *stubStore) UpsertProgress(context.Context, domain.Progress) error { return nil }

func testPipeline(store *stubStore) *usecase.Pipeline {
	rs := rules.CannabisHemp()
	reg := registry.New(map[string][]registry.SourceEntry{
		rules.DomainCannabisHemp: {
			{
				Jurisdiction: "VT",
				Agency:       "Cannabis Control Board",
				Feeds:        []string{"https://ccb.vermont.gov/rss.xml"},
			},
		},
	})

	return usecase.NewPipeline(usecase.PipelineDeps{
		Rules:      rs,
		Registry:   reg,
		Fetcher:    &stubFetcher{body: feedFixture},
		FeedParser: parser.NewFeed(nil),
		PageParser: parser.NewPage(nil),
		Classifier: classifier.NewHeuristic(rs),
		Records:    store,
		RunLogs:    store,
		Progress:   store,
	})
}

func testServer(store *stubStore, role string) *Server {
	cfg := config.Config{}
	cfg.Database.Role = role
	cfg.Server.AllowedOrigins = []string{"https://regintel.app", "http://localhost:3000"}
	cfg.Server.DefaultOrigin = "https://regintel.app"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New([]*usecase.Pipeline{testPipeline(store)}, cfg, logger)
}

func TestCORSAllow(t *testing.T) {
	t.Parallel()

	c := NewCORS([]string{"https://regintel.app", "http://localhost:3000/"}, "https://regintel.app")

	cases := []struct {
		origin string
		want   string
	}{
		{"https://regintel.app", "https://regintel.app"},
		{"https://regintel.app/", "https://regintel.app"},
		{"http://localhost:3000", "http://localhost:3000"},
		{"http://localhost:5173", "http://localhost:5173"},
		{"http://127.0.0.1:8080", "http://127.0.0.1:8080"},
		{"https://preview-abc123.vercel.app", "https://preview-abc123.vercel.app"},
		{"http://preview-abc123.vercel.app", "https://regintel.app"},
		{"https://evil.example.com", "https://regintel.app"},
		{"https://notvercel.app", "https://regintel.app"},
		{"", "https://regintel.app"},
		{"garbage origin", "https://regintel.app"},
	}

	for _, tc := range cases {
		if got := c.Allow(tc.origin); got != tc.want {
			t.Errorf("Allow(%q) = %q, want %q", tc.origin, got, tc.want)
		}
	}
}

func TestPreflightReturnsNoContent(t *testing.T) {
	t.Parallel()

	srv := testServer(&stubStore{}, config.ServiceRole)
	req := httptest.NewRequest(http.MethodOptions, "/pollers/cannabis_hemp", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow-origin: %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Fatal("expected allow-methods header")
	}
}

func TestUnknownOriginGetsDefault(t *testing.T) {
	t.Parallel()

	srv := testServer(&stubStore{}, config.ServiceRole)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://regintel.app" {
		t.Fatalf("unexpected allow-origin: %q", got)
	}
}

func TestTriggerRequiresServiceRole(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	srv := testServer(store, "anon")
	req := httptest.NewRequest(http.MethodPost, "/pollers/cannabis_hemp", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Success || body.Error == "" {
		t.Fatalf("expected failure body, got %+v", body)
	}
	if store.upserts != 0 {
		t.Fatal("forbidden request must not touch the store")
	}
}

func TestTriggerUnknownDomain(t *testing.T) {
	t.Parallel()

	srv := testServer(&stubStore{}, config.ServiceRole)
	req := httptest.NewRequest(http.MethodPost, "/pollers/psilocybin", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTriggerRunsPipeline(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	srv := testServer(store, config.ServiceRole)
	req := httptest.NewRequest(http.MethodPost, "/pollers/cannabis_hemp",
		strings.NewReader(`{"stateCode":"VT"}`))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var summary domain.RunSummary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if !summary.Success || summary.Status != domain.RunStatusSuccess {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.NewItemsFound != 1 || summary.RecordsProcessed != 1 {
		t.Fatalf("unexpected counters: %+v", summary)
	}
	if store.upserts != 1 {
		t.Fatalf("expected 1 upsert, got %d", store.upserts)
	}
}

func TestTriggerToleratesEmptyBody(t *testing.T) {
	t.Parallel()

	srv := testServer(&stubStore{}, config.ServiceRole)
	req := httptest.NewRequest(http.MethodPost, "/pollers/cannabis_hemp", nil)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty body, got %d", rec.Code)
	}
}

func TestTriggerRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	srv := testServer(&stubStore{}, config.ServiceRole)
	req := httptest.NewRequest(http.MethodPost, "/pollers/cannabis_hemp",
		strings.NewReader(`{"stateCode":`))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTriggerReportsStartupFailure(t *testing.T) {
	t.Parallel()

	store := &stubStore{jurErr: errors.New("connection refused")}
	srv := testServer(store, config.ServiceRole)
	req := httptest.NewRequest(http.MethodPost, "/pollers/cannabis_hemp", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestHealthListsDomains(t *testing.T) {
	t.Parallel()

	srv := testServer(&stubStore{}, config.ServiceRole)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Status  string   `json:"status"`
		Domains []string `json:"domains"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "ok" {
		t.Fatalf("unexpected status: %s", body.Status)
	}

	want := fmt.Sprintf("%v", []string{rules.DomainCannabisHemp})
	if got := fmt.Sprintf("%v", body.Domains); got != want {
		t.Fatalf("expected domains %s, got %s", want, got)
	}
}
