package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/heimdex/heimdex-pose/internal/history"
	"github.com/heimdex/heimdex-pose/internal/selection"
	"github.com/heimdex/heimdex-pose/internal/skeleton"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())
	if cfg.MaxBodyBytes > 0 {
		r.Use(MaxBodyMiddleware(cfg.MaxBodyBytes))
	}

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/presets", presetsHandler(cfg))
		r.Post("/selections/resolve", resolveHandler(cfg))
		r.Post("/poses/filter", filterHandler(cfg))
		r.Post("/poses/move", moveHandler(cfg))
		r.Post("/poses/attach", attachHandler(cfg))
		r.Post("/poses/merge", mergeHandler(cfg))
		r.Post("/poses/smooth", smoothHandler(cfg))
		r.Get("/runs", listRunsHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  cfg.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{State: "idle"}
		if cfg.Engine != nil {
			resp.Workers = cfg.Engine.Workers()
			resp.Strict = cfg.Engine.Strict()
		}

		if cfg.History != nil {
			ctx := r.Context()
			resp.RunsCount, _ = cfg.History.CountRuns(ctx)
			runs, _ := cfg.History.ListRuns(ctx, 10)

			for _, run := range runs {
				if run.Status == history.StatusRunning {
					resp.RunsRunning++
				}
				if run.Status == history.StatusFailed && resp.LastError == "" {
					resp.LastError = run.Error
				}
			}
			if len(runs) > 0 {
				last := RunToResponse(runs[0])
				resp.LastRun = &last
			}

			switch {
			case resp.RunsRunning > 0:
				resp.State = "busy"
			case len(runs) > 0 && runs[0].Status == history.StatusFailed:
				resp.State = "error"
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func presetsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := skeleton.Names()
		resp := PresetsResponse{
			Presets:     make([]PresetResponse, 0, len(names)),
			CustomFlags: selection.FlagNames,
		}
		for _, name := range names {
			set, err := skeleton.Lookup(name)
			if err != nil {
				continue
			}
			indices := set.Indices()
			keypoints := make([]string, len(indices))
			for i, idx := range indices {
				keypoints[i] = skeleton.BodyName(idx)
			}
			resp.Presets = append(resp.Presets, PresetResponse{Name: name, Indices: indices, Keypoints: keypoints})
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listRunsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 500 {
				WriteError(w, http.StatusBadRequest, "limit must be between 1 and 500", "BAD_REQUEST")
				return
			}
			limit = n
		}

		resp := RunsResponse{Runs: []RunResponse{}}
		if cfg.History != nil {
			runs, err := cfg.History.ListRuns(r.Context(), limit)
			if err != nil {
				WriteError(w, http.StatusInternalServerError, "failed to list runs", "INTERNAL_ERROR")
				return
			}
			for _, run := range runs {
				resp.Runs = append(resp.Runs, RunToResponse(run))
			}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
