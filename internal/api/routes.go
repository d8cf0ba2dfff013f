package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/storyreel/storyreel-agent/internal/captions"
	"github.com/storyreel/storyreel-agent/internal/cloud"
	"github.com/storyreel/storyreel-agent/internal/config"
	"github.com/storyreel/storyreel-agent/internal/export"
	"github.com/storyreel/storyreel-agent/internal/project"
	"github.com/storyreel/storyreel-agent/internal/renderplan"
	"github.com/storyreel/storyreel-agent/internal/storyboard"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Get("/projects", listProjectsHandler(cfg))
		r.Post("/projects", createProjectHandler(cfg))
		r.Get("/projects/{id}", getProjectHandler(cfg))
		r.Delete("/projects/{id}", deleteProjectHandler(cfg))

		r.Get("/projects/{id}/timeline", timelineStateHandler(cfg))
		r.Post("/projects/{id}/timeline/scenes", addSceneHandler(cfg))
		r.Put("/projects/{id}/timeline/scenes/{index}", updateSceneHandler(cfg))
		r.Delete("/projects/{id}/timeline/scenes/{index}", deleteSceneHandler(cfg))
		r.Post("/projects/{id}/timeline/select", selectSceneHandler(cfg))
		r.Post("/projects/{id}/timeline/seek", seekHandler(cfg))
		r.Post("/projects/{id}/timeline/play", playHandler(cfg))
		r.Post("/projects/{id}/timeline/pause", pauseHandler(cfg))
		r.Post("/projects/{id}/timeline/trim/begin", trimBeginHandler(cfg))
		r.Post("/projects/{id}/timeline/trim/move", trimMoveHandler(cfg))
		r.Post("/projects/{id}/timeline/trim/end", trimEndHandler(cfg))

		r.Post("/projects/{id}/captions", applyCaptionsHandler(cfg))
		r.Post("/projects/{id}/jobs", enqueueJobHandler(cfg))
		r.Get("/projects/{id}/jobs", listProjectJobsHandler(cfg))
		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))

		r.Get("/projects/{id}/plan", renderPlanHandler(cfg))
		r.Post("/projects/{id}/render", submitRenderHandler(cfg))
		r.Post("/projects/{id}/export", exportTimelineHandler(cfg))
		r.Post("/storage/upload", storageUploadHandler(cfg))
		r.Get("/storage", listStorageHandler(cfg))

		r.Group(func(r chi.Router) {
			r.Use(LoopbackGuard())
			r.Get("/media", mediaHandler(cfg))
		})
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  config.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		projects, _ := cfg.ProjectService.ListProjects(ctx)
		jobs, _ := cfg.Repository.ListJobs(ctx, 10)

		state := "idle"
		var activeJob *JobResponse
		jobsRunning := 0
		lastError := ""

		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		for _, j := range jobs {
			if j.Status == project.JobStatusRunning {
				state = "enriching"
				resp := JobToResponse(j)
				activeJob = &resp
				jobsRunning++
			}
			if j.Status == project.JobStatusFailed && lastError == "" {
				lastError = j.Error
			}
		}

		if lastError != "" && state == "idle" {
			state = "error"
		}

		resp := StatusResponse{
			State:         state,
			LastError:     lastError,
			ProjectsCount: len(projects),
			JobsRunning:   jobsRunning,
			ActiveJob:     activeJob,
		}

		if cfg.Doctor != nil {
			caps, err := cfg.Doctor.Get(ctx)
			if err == nil && caps != nil {
				renderer := &RendererStatusResponse{
					HasVideo:    caps.HasVideo,
					HasAudio:    caps.HasAudio,
					HasCaptions: caps.HasCaptions,
					DepsAvail:   caps.Summary.Available,
					DepsTotal:   caps.Summary.Total,
				}
				if !caps.ProbedAt.IsZero() {
					renderer.LastProbeAt = caps.ProbedAt.Format(time.RFC3339)
				}
				resp.Renderer = renderer
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := cfg.ProjectService.ListProjects(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list projects", "INTERNAL_ERROR")
			return
		}

		resp := ProjectsResponse{Projects: make([]ProjectResponse, len(projects))}
		for i, p := range projects {
			resp.Projects[i] = ProjectToResponse(p)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func createProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		p, err := cfg.ProjectService.CreateProject(r.Context(), req.Title, req.Script)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
			return
		}

		WriteJSON(w, http.StatusCreated, ProjectToResponse(p))
	}
}

func getProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := cfg.ProjectService.GetProject(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if p == nil {
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, ProjectToResponse(p))
	}
}

func deleteProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.ProjectService.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// session loads the project's live session, writing the error response
// itself when the project is unknown.
func session(cfg ServerConfig, w http.ResponseWriter, r *http.Request) *storyboard.Session {
	sess, err := cfg.ProjectService.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
		} else {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		}
		return nil
	}
	return sess
}

// persistTimeline saves the session's scenes after a structural edit.
// Persistence failure is logged, not surfaced: the in-memory edit already
// happened and the editor state must not diverge from the response.
func persistTimeline(cfg ServerConfig, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if err := cfg.ProjectService.SaveSession(r.Context(), projectID); err != nil {
		cfg.Logger.Warn("failed to persist timeline", "project_id", projectID, "error", err)
	}
}

func writeTimelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storyboard.ErrIndexOutOfRange):
		WriteError(w, http.StatusBadRequest, err.Error(), "INDEX_OUT_OF_RANGE")
	case errors.Is(err, storyboard.ErrEmptyTimeline):
		WriteError(w, http.StatusConflict, err.Error(), "EMPTY_TIMELINE")
	case errors.Is(err, storyboard.ErrTrimInProgress):
		WriteError(w, http.StatusConflict, err.Error(), "TRIM_IN_PROGRESS")
	case errors.Is(err, storyboard.ErrNoTrim):
		WriteError(w, http.StatusConflict, err.Error(), "NO_TRIM")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}

func timelineStateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session(cfg, w, r)
		if sess == nil {
			return
		}
		WriteJSON(w, http.StatusOK, StateToResponse(sess.State()))
	}
}

func addSceneHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session(cfg, w, r)
		if sess == nil {
			return
		}

		if _, err := sess.AddScene(); err != nil {
			writeTimelineError(w, err)
			return
		}

		persistTimeline(cfg, r)
		WriteJSON(w, http.StatusCreated, StateToResponse(sess.State()))
	}
}

func sceneIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid scene index", "VALIDATION_ERROR")
		return 0, false
	}
	return index, true
}

func updateSceneHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, ok := sceneIndex(w, r)
		if !ok {
			return
		}

		var req UpdateSceneRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		sess := session(cfg, w, r)
		if sess == nil {
			return
		}

		if err := sess.UpdateScene(index, req.Scene); err != nil {
			writeTimelineError(w, err)
			return
		}

		persistTimeline(cfg, r)
		WriteJSON(w, http.StatusOK, StateToResponse(sess.State()))
	}
}

func deleteSceneHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, ok := sceneIndex(w, r)
		if !ok {
			return
		}

		sess := session(cfg, w, r)
		if sess == nil {
			return
		}

		if err := sess.DeleteScene(index); err != nil {
			writeTimelineError(w, err)
			return
		}

		persistTimeline(cfg, r)
		WriteJSON(w, http.StatusOK, StateToResponse(sess.State()))
	}
}

func selectSceneHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectSceneRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		sess := session(cfg, w, r)
		if sess == nil {
			return
		}

		if err := sess.SelectScene(req.Index, req.Force); err != nil {
			writeTimelineError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, StateToResponse(sess.State()))
	}
}

func seekHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SeekRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		sess := session(cfg, w, r)
		if sess == nil {
			return
		}

		WriteJSON(w, http.StatusOK, StateToResponse(sess.Seek(req.Time)))
	}
}

func playHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session(cfg, w, r)
		if sess == nil {
			return
		}

		if err := sess.Play(); err != nil {
			writeTimelineError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, StateToResponse(sess.State()))
	}
}

func pauseHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session(cfg, w, r)
		if sess == nil {
			return
		}

		sess.Pause()
		WriteJSON(w, http.StatusOK, StateToResponse(sess.State()))
	}
}

func trimBeginHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TrimBeginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		handle := storyboard.TrimHandle(req.Handle)
		if handle != storyboard.TrimHandleLeft && handle != storyboard.TrimHandleRight {
			WriteError(w, http.StatusBadRequest, "handle must be left or right", "VALIDATION_ERROR")
			return
		}
		if req.ThumbnailWidth <= 0 {
			WriteError(w, http.StatusBadRequest, "thumbnail_width must be positive", "VALIDATION_ERROR")
			return
		}

		sess := session(cfg, w, r)
		if sess == nil {
			return
		}

		if err := sess.BeginTrim(req.Index, handle, req.ThumbnailWidth); err != nil {
			writeTimelineError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, StateToResponse(sess.State()))
	}
}

func trimMoveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TrimMoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		sess := session(cfg, w, r)
		if sess == nil {
			return
		}

		state, err := sess.MoveTrim(req.DeltaPixels)
		if err != nil {
			writeTimelineError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, StateToResponse(state))
	}
}

func trimEndHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session(cfg, w, r)
		if sess == nil {
			return
		}

		result, err := sess.EndTrim()
		if err != nil {
			writeTimelineError(w, err)
			return
		}

		persistTimeline(cfg, r)
		WriteJSON(w, http.StatusOK, TrimEndResponse{
			SceneIndex: result.SceneIndex,
			Handle:     string(result.Handle),
			Duration:   result.Duration,
		})
	}
}

func applyCaptionsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ApplyCaptionsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if req.Captions == "" {
			WriteError(w, http.StatusBadRequest, "captions are required", "VALIDATION_ERROR")
			return
		}

		projectID := chi.URLParam(r, "id")
		err := cfg.ProjectService.ApplyCaptions(r.Context(), projectID, req.Captions, req.VoiceOverDuration)
		if err != nil {
			if errors.Is(err, project.ErrProjectNotFound) {
				WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
			return
		}

		sess := session(cfg, w, r)
		if sess == nil {
			return
		}
		WriteJSON(w, http.StatusOK, StateToResponse(sess.State()))
	}
}

func enqueueJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EnqueueJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		job, err := cfg.ProjectService.EnqueueJob(r.Context(), chi.URLParam(r, "id"), req.Type)
		if err != nil {
			if errors.Is(err, project.ErrProjectNotFound) {
				WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
			return
		}

		WriteJSON(w, http.StatusAccepted, JobToResponse(job))
	}
}

func listProjectJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.ProjectService.ListJobsByProject(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Repository.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Repository.GetJob(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

// projectPlan builds the frame-exact plan the preview player and the
// renderer share. nil return means the error response was written.
func projectPlan(cfg ServerConfig, w http.ResponseWriter, r *http.Request) *renderplan.Plan {
	p, err := cfg.ProjectService.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		return nil
	}
	if p == nil {
		WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
		return nil
	}

	sess := session(cfg, w, r)
	if sess == nil {
		return nil
	}

	scenes := storyboard.RenderableScenes(sess.Scenes())
	if len(scenes) == 0 {
		WriteError(w, http.StatusConflict, "no scenes have images yet", "EMPTY_TIMELINE")
		return nil
	}

	plan := renderplan.Build(scenes, renderplan.Options{
		FPS:               cfg.RenderFPS,
		Width:             cfg.RenderWidth,
		Height:            cfg.RenderHeight,
		VoiceOverURL:      p.VoiceOverURL,
		VoiceOverDuration: p.VoiceOverDuration,
		Captions:          captions.Parse(p.CaptionsRaw),
	})
	return &plan
}

func renderPlanHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan := projectPlan(cfg, w, r)
		if plan == nil {
			return
		}
		WriteJSON(w, http.StatusOK, plan)
	}
}

func submitRenderHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.RenderRunner == nil {
			WriteError(w, http.StatusServiceUnavailable, "renderer not available", "RENDERER_UNAVAILABLE")
			return
		}

		plan := projectPlan(cfg, w, r)
		if plan == nil {
			return
		}

		result, err := cfg.RenderRunner.RenderPlan(r.Context(), plan, chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if !result.IsSuccess() {
			cfg.Logger.Error("render failed",
				"exit_code", result.ExitCode,
				"stderr_tail", result.StderrTail,
			)
			WriteError(w, http.StatusInternalServerError, "render failed", "RENDER_FAILED")
			return
		}

		WriteJSON(w, http.StatusOK, RenderSubmitResponse{
			Status:     "completed",
			OutputPath: result.OutputPath,
			ReportPath: result.ReportPath,
			DurationMs: result.Duration.Milliseconds(),
		})
	}
}

func exportTimelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		p, err := cfg.ProjectService.GetProject(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if p == nil {
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		}

		sess := session(cfg, w, r)
		if sess == nil {
			return
		}

		resp, err := cfg.Exporter.Export(req, p.Title, sess.Scenes())
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

// maxUploadBytes bounds a single storage upload.
const maxUploadBytes = 64 << 20

func storageUploadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Cloud == nil {
			WriteError(w, http.StatusServiceUnavailable, "cloud storage not available", "EXTERNAL_SERVICE_ERROR")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid multipart body", "BAD_REQUEST")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			WriteError(w, http.StatusBadRequest, "file field is required", "VALIDATION_ERROR")
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "cannot read upload", "BAD_REQUEST")
			return
		}

		obj, err := cfg.Cloud.Storage().Upload(r.Context(), header.Filename, content)
		if err != nil {
			cfg.Logger.Error("storage upload failed", "filename", header.Filename, "error", err)
			WriteError(w, http.StatusBadGateway, "storage upload failed", "EXTERNAL_SERVICE_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, obj)
	}
}

func listStorageHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Cloud == nil {
			WriteError(w, http.StatusServiceUnavailable, "cloud storage not available", "EXTERNAL_SERVICE_ERROR")
			return
		}

		objects, err := cfg.Cloud.Storage().List(r.Context())
		if err != nil {
			cfg.Logger.Error("storage list failed", "error", err)
			WriteError(w, http.StatusBadGateway, "storage list failed", "EXTERNAL_SERVICE_ERROR")
			return
		}
		if objects == nil {
			objects = []cloud.StorageObject{}
		}

		WriteJSON(w, http.StatusOK, map[string]any{"objects": objects})
	}
}

func mediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawURL := r.URL.Query().Get("url")
		if rawURL == "" {
			WriteError(w, http.StatusBadRequest, "url is required", "VALIDATION_ERROR")
			return
		}

		if err := cfg.Media.ServeURL(w, r, rawURL); err != nil {
			cfg.Logger.Error("media error", "error", err)
		}
	}
}
