package project

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/storyreel/storyreel-agent/internal/cloud"
	"github.com/storyreel/storyreel-agent/internal/storyboard"
)

const (
	imageConcurrency = 4

	speechPollMax = 150 // 5 minutes at 2s per poll
)

// Runner drains pending enrichment jobs one at a time. Each job type maps
// to a SaaS call; results land back in the project's scenes through the
// live session so an open editor sees them.
type Runner struct {
	service      *Service
	repo         Repository
	client       cloud.Client
	logger       *slog.Logger
	pollInterval time.Duration
	speechPoll   time.Duration
	running      atomic.Bool
	paused       atomic.Bool
}

func NewRunner(service *Service, repo Repository, client cloud.Client, logger *slog.Logger) *Runner {
	return &Runner{
		service:      service,
		repo:         repo,
		client:       client,
		logger:       logger,
		pollInterval: 5 * time.Second,
		speechPoll:   2 * time.Second,
	}
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("job runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) processNextJob(ctx context.Context) {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return
	}

	if len(jobs) == 0 {
		return
	}

	job := jobs[0]
	r.logger.Info("processing job", "job_id", job.ID, "type", job.Type, "project_id", job.ProjectID)

	if r.client == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "cloud client not configured")
		return
	}

	switch job.Type {
	case JobTypePrompts:
		r.processPromptsJob(ctx, job)
	case JobTypeImages:
		r.processImagesJob(ctx, job)
	case JobTypeVoiceOver:
		r.processVoiceOverJob(ctx, job)
	case JobTypeCaptions:
		r.processCaptionsJob(ctx, job)
	default:
		r.logger.Warn("unknown job type", "type", job.Type)
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "unknown job type")
	}
}

// processPromptsJob fills in an image prompt for every scene that lacks
// one, passing each scene the prompt of its predecessor so the batch keeps
// a consistent visual style. Individual scene failures are recorded on the
// scene and do not abort the rest of the batch.
func (r *Runner) processPromptsJob(ctx context.Context, job *Job) {
	sess, err := r.service.Session(ctx, job.ProjectID)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, err.Error())
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")

	scenes := sess.Scenes()
	attempted, failed := 0, 0
	previous := ""
	for i, scene := range scenes {
		if scene.Prompt != "" {
			previous = scene.Prompt
			continue
		}
		attempted++

		prompt, err := r.client.Prompts().GeneratePrompt(ctx, scene.Content, previous)
		if err != nil {
			failed++
			scene.Error = err.Error()
			r.logger.Warn("prompt generation failed", "job_id", job.ID, "scene_id", scene.ID, "error", err)
		} else {
			scene.Prompt = prompt
			scene.Error = ""
			previous = prompt
		}
		r.updateSceneByID(sess, i, scene)
	}

	r.finishBatchJob(ctx, job, "prompt", attempted, failed)
}

// processImagesJob renders an image for every scene that has a prompt but
// no image yet, fanning out with bounded concurrency.
func (r *Runner) processImagesJob(ctx context.Context, job *Job) {
	sess, err := r.service.Session(ctx, job.ProjectID)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, err.Error())
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")

	scenes := sess.Scenes()

	var mu sync.Mutex
	attempted, failed := 0, 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(imageConcurrency)

	for i, scene := range scenes {
		if scene.Prompt == "" || scene.ImageURL != "" {
			continue
		}
		attempted++

		g.Go(func() error {
			result, err := r.client.Images().GenerateImage(gctx, scene.Prompt, scene.Seed)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				scene.Error = err.Error()
				r.logger.Warn("image generation failed", "job_id", job.ID, "scene_id", scene.ID, "error", err)
			} else {
				scene.ImageURL = result.URL
				scene.Seed = result.Seed
				scene.Error = ""
			}
			r.updateSceneByID(sess, i, scene)
			return nil
		})
	}
	g.Wait()

	r.finishBatchJob(ctx, job, "image", attempted, failed)
}

func (r *Runner) finishBatchJob(ctx context.Context, job *Job, kind string, attempted, failed int) {
	switch {
	case attempted == 0:
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
		r.logger.Info("job had nothing to do", "job_id", job.ID)
	case failed == attempted:
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed,
			fmt.Sprintf("all %d %s generations failed", attempted, kind))
	case failed > 0:
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted,
			fmt.Sprintf("%d of %d %s generations failed", failed, attempted, kind))
		r.persistScenes(ctx, job.ProjectID)
	default:
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
		r.persistScenes(ctx, job.ProjectID)
	}
}

// processVoiceOverJob submits the script for synthesis and, unless the
// submit already came back done, polls until the SaaS reports a terminal
// status. Completion enqueues a captions job so scene durations get
// re-synchronized to the narration.
func (r *Runner) processVoiceOverJob(ctx context.Context, job *Job) {
	p, err := r.repo.GetProject(ctx, job.ProjectID)
	if err != nil || p == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "project not found")
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")
	r.repo.UpdateProjectStatus(ctx, p.ID, ProjectStatusEnriching)

	voiceID, err := r.repo.GetConfig(ctx, "voice_id")
	if err != nil {
		r.logger.Warn("failed to read voice config", "error", err)
	}

	result, err := r.client.Speech().SubmitSpeech(ctx, p.Script, voiceID)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("speech submit failed: %v", err))
		return
	}
	r.repo.UpdateJobTracking(ctx, job.ID, result.TrackingID)

	// Short scripts complete inline on submit; everything else polls.
	switch result.Status {
	case cloud.SpeechStatusDone:
	case cloud.SpeechStatusFailed:
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed,
			fmt.Sprintf("speech generation failed: %s", result.Error))
		return
	default:
		result, err = r.pollSpeech(ctx, job.ID, result.TrackingID)
		if err != nil {
			r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, err.Error())
			return
		}
	}

	if err := r.repo.UpdateProjectVoiceOver(ctx, p.ID, result.URL, result.Duration); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("persist voice-over failed: %v", err))
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	r.logger.Info("voice-over completed", "job_id", job.ID, "duration", result.Duration)

	if _, err := r.service.EnqueueJob(ctx, p.ID, JobTypeCaptions); err != nil {
		r.logger.Warn("failed to enqueue captions job", "project_id", p.ID, "error", err)
	}
}

func (r *Runner) pollSpeech(ctx context.Context, jobID, trackingID string) (*cloud.SpeechResult, error) {
	ticker := time.NewTicker(r.speechPoll)
	defer ticker.Stop()

	for attempt := 0; attempt < speechPollMax; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		r.repo.IncrementJobAttempts(ctx, jobID)

		result, err := r.client.Speech().PollSpeech(ctx, trackingID)
		if err != nil {
			r.logger.Warn("speech poll failed", "job_id", jobID, "error", err)
			continue
		}

		switch result.Status {
		case cloud.SpeechStatusDone:
			return result, nil
		case cloud.SpeechStatusFailed:
			return nil, fmt.Errorf("speech generation failed: %s", result.Error)
		}
	}

	return nil, fmt.Errorf("speech generation timed out after %d polls", speechPollMax)
}

// processCaptionsJob transcribes the voice-over and applies the word
// timings to the timeline.
func (r *Runner) processCaptionsJob(ctx context.Context, job *Job) {
	p, err := r.repo.GetProject(ctx, job.ProjectID)
	if err != nil || p == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "project not found")
		return
	}
	if p.VoiceOverURL == "" {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "project has no voice-over")
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")

	raw, err := r.client.Transcripts().Transcribe(ctx, p.VoiceOverURL)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("transcription failed: %v", err))
		return
	}

	if err := r.service.ApplyCaptions(ctx, p.ID, raw, p.VoiceOverDuration); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, err.Error())
		return
	}

	r.repo.UpdateProjectStatus(ctx, p.ID, ProjectStatusReady)
	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	r.logger.Info("captions job completed", "job_id", job.ID, "project_id", p.ID)
}

// updateSceneByID writes a scene back through the session, re-resolving
// the index by ID in case the user edited the timeline mid-job.
func (r *Runner) updateSceneByID(sess *storyboard.Session, hint int, scene storyboard.Scene) {
	current := sess.Scenes()
	if hint < len(current) && current[hint].ID == scene.ID {
		sess.UpdateScene(hint, scene)
		return
	}
	for i, s := range current {
		if s.ID == scene.ID {
			sess.UpdateScene(i, scene)
			return
		}
	}
}

func (r *Runner) persistScenes(ctx context.Context, projectID string) {
	if err := r.service.SaveSession(ctx, projectID); err != nil {
		r.logger.Warn("failed to persist scenes", "project_id", projectID, "error", err)
	}
}

func (r *Runner) GetActiveJobCount(ctx context.Context) int {
	jobs, err := r.repo.ListJobs(ctx, 100)
	if err != nil {
		return 0
	}
	count := 0
	for _, j := range jobs {
		if j.Status == JobStatusRunning {
			count++
		}
	}
	return count
}
