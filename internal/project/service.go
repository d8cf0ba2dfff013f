package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/storyreel/storyreel-agent/internal/captions"
	"github.com/storyreel/storyreel-agent/internal/storyboard"
)

var ErrProjectNotFound = errors.New("project not found")

type Service struct {
	repo   Repository
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*storyboard.Session
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		logger:   logger,
		sessions: make(map[string]*storyboard.Session),
	}
}

// CreateProject segments the script into scenes and persists the project.
func (s *Service) CreateProject(ctx context.Context, title, script string) (*Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if strings.TrimSpace(script) == "" {
		return nil, fmt.Errorf("script is required")
	}

	chunks := storyboard.SegmentScript(script, storyboard.DefaultMaxWordsPerScene)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("script contains no usable text")
	}

	now := time.Now()
	p := &Project{
		ID:        NewID(),
		Title:     title,
		Script:    script,
		Status:    ProjectStatusDraft,
		Scenes:    storyboard.NewScenes(chunks),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("project created", "project_id", p.ID, "scenes", len(p.Scenes))
	}
	return p, nil
}

func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	return s.repo.GetProject(ctx, id)
}

func (s *Service) ListProjects(ctx context.Context) ([]*Project, error) {
	return s.repo.ListProjects(ctx)
}

func (s *Service) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok {
		sess.Close()
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	return s.repo.DeleteProject(ctx, id)
}

// Session returns the live editing session for a project, creating one
// from the persisted scenes on first access. Sessions are per-project
// singletons so the playback clock and trim state have one owner.
func (s *Service) Session(ctx context.Context, projectID string) (*storyboard.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[projectID]; ok {
		return sess, nil
	}

	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProjectNotFound
	}

	sess := storyboard.NewSession(p.Scenes, s.logger)
	s.sessions[projectID] = sess
	return sess, nil
}

// SaveSession persists the session's current scene sequence.
func (s *Service) SaveSession(ctx context.Context, projectID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[projectID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.repo.UpdateProjectScenes(ctx, projectID, sess.Scenes())
}

// ApplyCaptions parses raw caption text, redistributes scene durations to
// match the speech timing and persists both the captions and the scenes.
func (s *Service) ApplyCaptions(ctx context.Context, projectID, raw string, voiceOverDuration float64) error {
	segments := captions.Parse(raw)
	if len(segments) == 0 {
		return fmt.Errorf("no caption cues recognized")
	}

	sess, err := s.Session(ctx, projectID)
	if err != nil {
		return err
	}
	sess.ApplyCaptions(segments, voiceOverDuration)

	if err := s.repo.UpdateProjectCaptions(ctx, projectID, raw); err != nil {
		return err
	}
	if err := s.repo.UpdateProjectScenes(ctx, projectID, sess.Scenes()); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("captions applied", "project_id", projectID, "segments", len(segments))
	}
	return nil
}

// EnqueueJob records a background enrichment job for the runner to pick up.
func (s *Service) EnqueueJob(ctx context.Context, projectID, jobType string) (*Job, error) {
	switch jobType {
	case JobTypePrompts, JobTypeImages, JobTypeVoiceOver, JobTypeCaptions:
	default:
		return nil, fmt.Errorf("unknown job type %q", jobType)
	}

	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProjectNotFound
	}

	now := time.Now()
	job := &Job{
		ID:        NewID(),
		ProjectID: projectID,
		Type:      jobType,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("job enqueued", "job_id", job.ID, "project_id", projectID, "type", jobType)
	}
	return job, nil
}

func (s *Service) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.GetJob(ctx, id)
}

func (s *Service) ListJobsByProject(ctx context.Context, projectID string) ([]*Job, error) {
	return s.repo.ListJobsByProject(ctx, projectID)
}

// Close shuts down all live sessions.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.Close()
		delete(s.sessions, id)
	}
}
