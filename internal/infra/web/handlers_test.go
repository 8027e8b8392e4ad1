package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"telegram-ai-forge/internal/config"
	"telegram-ai-forge/internal/infra/worker"
)

func newTestServer(t *testing.T, jobs JobDirectory) (*Server, string) {
	t.Helper()
	archiveBase := t.TempDir()
	s := NewServer(
		config.WebConfig{Port: 0, AdminSecret: "test-admin-secret", SessionTTL: time.Minute},
		config.PathsConfig{ArchiveBase: archiveBase},
		jobs,
		newTestLogger(),
	)
	return s, archiveBase
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, newFakeJobs())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "OK" {
		t.Fatalf("expected OK body, got %q", rr.Body.String())
	}
}

func TestJobGetHandler(t *testing.T) {
	jobs := newFakeJobs()
	jobs.add(sampleJob("job-1", "u1"))
	s, _ := newTestServer(t, jobs)

	t.Run("success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/job-1", nil)
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		var resp jobViewResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.ID != "job-1" || resp.Status != "done" || resp.ProjectType != "website" {
			t.Fatalf("wrong job view: %+v", resp)
		}
		if resp.Files != 2 {
			t.Fatalf("expected 2 files, got %d", resp.Files)
		}
		if resp.Usage.TotalTokens != 3000 || resp.Usage.Calls != 1 {
			t.Fatalf("wrong usage view: %+v", resp.Usage)
		}
		if resp.Usage.EstimatedCostUSD != 0.0042 {
			t.Fatalf("wrong cost: %v", resp.Usage.EstimatedCostUSD)
		}
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nope", nil)
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})
}

func TestJobArchiveHandler(t *testing.T) {
	jobs := newFakeJobs()
	jobs.add(sampleJob("job-2", "u1"))
	s, archiveBase := newTestServer(t, jobs)

	t.Run("job missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/ghost/archive", nil)
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})

	t.Run("archive missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/job-2/archive", nil)
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for missing zip, got %d", rr.Code)
		}
	})

	t.Run("archive served", func(t *testing.T) {
		zipPath := filepath.Join(archiveBase, "job-2.zip")
		if err := os.WriteFile(zipPath, []byte("PK\x03\x04fakezip"), 0o644); err != nil {
			t.Fatalf("write zip: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/job-2/archive", nil)
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/zip" {
			t.Fatalf("expected zip content type, got %q", ct)
		}
		if cd := rr.Header().Get("Content-Disposition"); cd == "" {
			t.Fatal("expected Content-Disposition header")
		}
		if !bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")) {
			t.Fatal("expected zip payload")
		}
	})
}

func TestQueueHandler(t *testing.T) {
	jobs := newFakeJobs()
	jobs.entries = []worker.QueueEntry{
		{UserID: "u1", JobID: "j1", Label: "website", Active: true},
		{UserID: "u2", JobID: "j2", Label: "website"},
		{UserID: "u3", JobID: "j3", Label: "static_html"},
	}
	s, _ := newTestServer(t, jobs)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/queue", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp struct {
		Entries []struct {
			UserID string `json:"user_id"`
			JobID  string `json:"job_id"`
			Active bool   `json:"active"`
		} `json:"entries"`
		Waiting int `json:"waiting"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(resp.Entries))
	}
	if !resp.Entries[0].Active || resp.Waiting != 2 {
		t.Fatalf("expected active head and 2 waiting, got %+v", resp)
	}
}

func TestAdminDebugFlow(t *testing.T) {
	jobs := newFakeJobs()
	s, _ := newTestServer(t, jobs)
	h := s.Handler()

	var token string

	t.Run("login with wrong secret -> 403", func(t *testing.T) {
		body := bytes.NewBufferString(`{"secret":"wrong"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", body)
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rr.Code)
		}
	})

	t.Run("login with correct secret -> 200 + token", func(t *testing.T) {
		body := bytes.NewBufferString(`{"secret":"test-admin-secret"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", body)
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		var resp struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || resp.Token == "" {
			t.Fatalf("expected session token, got %q (err %v)", resp.Token, err)
		}
		token = resp.Token
	})

	t.Run("debug toggle without token -> 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/debug/u9", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("enable debug with bearer token -> 200", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/debug/u9", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		if !jobs.IsDebug(req.Context(), "u9") {
			t.Fatal("debug flag should be set")
		}
	})

	t.Run("disable debug -> 200", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/debug/u9", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if jobs.IsDebug(req.Context(), "u9") {
			t.Fatal("debug flag should be cleared")
		}
	})

	t.Run("logout -> 204", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/logout", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rr.Code)
		}
	})
}
