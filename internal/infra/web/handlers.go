package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"telegram-ai-forge/internal/domain"
	"telegram-ai-forge/internal/domain/model"
	"telegram-ai-forge/internal/infra/worker"
)

// JobDirectory is the surface the handlers need from the application
// layer: job lookups, queue views and the per-user debug toggle.
type JobDirectory interface {
	Job(jobID string) (*model.Job, error)
	QueueView() []worker.QueueEntry
	Summarize(job *model.Job) model.AggregatedLLMMetadata
	SetDebug(ctx context.Context, userID string, on bool) error
	IsDebug(ctx context.Context, userID string) bool
}

type usageView struct {
	Calls            int      `json:"calls"`
	PromptTokens     int      `json:"prompt_tokens"`
	CompletionTokens int      `json:"completion_tokens"`
	TotalTokens      int      `json:"total_tokens"`
	CacheReadTokens  int      `json:"cache_read_tokens"`
	EstimatedCostUSD float64  `json:"estimated_cost_usd"`
	LLMLatencyMs     int64    `json:"llm_latency_ms"`
	ModelsUsed       []string `json:"models_used,omitempty"`
}

type jobViewResponse struct {
	ID           string           `json:"id"`
	Status       string           `json:"status"`
	ProjectType  string           `json:"project_type"`
	CreatedAt    time.Time        `json:"created_at"`
	UserID       string           `json:"user_id"`
	Files        int              `json:"files"`
	LastError    string           `json:"last_error,omitempty"`
	PolicyFlags  []string         `json:"policy_flags,omitempty"`
	StageTimings map[string]int64 `json:"stage_timings,omitempty"`
	Usage        usageView        `json:"usage"`
}

// jobGetHandler serves the status view for one job.
func jobGetHandler(jobs JobDirectory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		job, err := jobs.Job(id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				respondError(w, http.StatusNotFound, "job not found")
				return
			}
			respondError(w, http.StatusInternalServerError, "failed to get job")
			return
		}

		agg := jobs.Summarize(job)
		resp := jobViewResponse{
			ID:           job.ID,
			Status:       string(job.Status),
			ProjectType:  string(job.ProjectType),
			CreatedAt:    job.CreatedAt,
			UserID:       job.Input.UserID,
			LastError:    job.LastError,
			PolicyFlags:  job.Diagnostics.PolicyFlags,
			StageTimings: job.Diagnostics.StageTimings,
			Usage: usageView{
				Calls:            agg.TotalCalls,
				PromptTokens:     agg.PromptTokens,
				CompletionTokens: agg.CompletionTokens,
				TotalTokens:      agg.TotalTokens,
				CacheReadTokens:  agg.CacheReadTokens,
				EstimatedCostUSD: agg.EstimatedCost,
				LLMLatencyMs:     agg.LLMLatencyMs,
				ModelsUsed:       agg.ModelsUsed,
			},
		}
		if job.Result != nil {
			resp.Files = len(job.Result.Files)
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

// jobArchiveHandler streams the job's zip archive. The archive lives at
// a fixed location derived from the job id, so a successful job lookup
// is the only gate.
func jobArchiveHandler(jobs JobDirectory, archiveBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
			respondError(w, http.StatusNotFound, "job not found")
			return
		}
		job, err := jobs.Job(id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				respondError(w, http.StatusNotFound, "job not found")
				return
			}
			respondError(w, http.StatusInternalServerError, "failed to get job")
			return
		}

		path := filepath.Join(archiveBase, job.ID+".zip")
		if _, err := os.Stat(path); err != nil {
			respondError(w, http.StatusNotFound, "archive not available")
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", job.ID+".zip"))
		http.ServeFile(w, r, path)
	}
}

// queueHandler serves the live queue: active item first, then waiting
// items in FIFO order.
func queueHandler(jobs JobDirectory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := jobs.QueueView()
		waiting := 0
		for _, e := range entries {
			if !e.Active {
				waiting++
			}
		}
		respondJSON(w, http.StatusOK, struct {
			Entries []worker.QueueEntry `json:"entries"`
			Waiting int                 `json:"waiting"`
		}{
			Entries: entries,
			Waiting: waiting,
		})
	}
}

// debugSetHandler flips the per-user debug flag on (POST) or off (DELETE).
func debugSetHandler(jobs JobDirectory, on bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		if userID == "" {
			respondError(w, http.StatusBadRequest, "user id is required")
			return
		}
		if err := jobs.SetDebug(r.Context(), userID, on); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to update debug flag")
			return
		}
		respondJSON(w, http.StatusOK, struct {
			UserID string `json:"user_id"`
			Debug  bool   `json:"debug"`
		}{UserID: userID, Debug: on})
	}
}

type loginRequest struct {
	Secret string `json:"secret"`
}

// loginHandler trades the shared admin secret for a short-lived HS256
// session token (returned in the body and set as a cookie).
func loginHandler(auth *AuthManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !auth.VerifySecret(req.Secret) {
			respondError(w, http.StatusForbidden, "forbidden")
			return
		}
		token, err := auth.Mint(w)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to mint session")
			return
		}
		respondJSON(w, http.StatusOK, struct {
			Token string `json:"token"`
		}{Token: token})
	}
}

func logoutHandler(auth *AuthManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth.Clear(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}
