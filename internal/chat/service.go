package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/suPer8Hu/echocare/internal/ai"
	"github.com/suPer8Hu/echocare/internal/common"
)

var ErrEmptyMessage = errors.New("chat: empty message")

// Service answers legacy single-chat messages, either inline or through jobs.
type Service struct {
	repo     *Repo
	registry *ai.Registry
	provider string
	model    string
}

const defaultProvider = "rules"

func NewService(repo *Repo, registry *ai.Registry, provider, model string) *Service {
	if strings.TrimSpace(provider) == "" {
		provider = defaultProvider
	}
	return &Service{repo: repo, registry: registry, provider: provider, model: model}
}

func (s *Service) Reply(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	p, err := s.registry.Get(ctx, s.provider, s.model)
	if err != nil {
		return "", err
	}
	return p.Chat(ctx, []ai.Message{{Role: ai.RoleUser, Content: message}})
}

// Enqueue stores a queued job. With a key, a repeated request returns the
// first job and created=false.
func (s *Service) Enqueue(ctx context.Context, message string, idempotencyKey *string) (job *Job, created bool, err error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, false, ErrEmptyMessage
	}
	id, err := common.NewULID()
	if err != nil {
		return nil, false, err
	}
	return s.repo.CreateJobOrGetExisting(ctx, &Job{
		ID:             id,
		Prompt:         message,
		Provider:       s.provider,
		IdempotencyKey: idempotencyKey,
		Status:         JobQueued,
	})
}

func (s *Service) GetJob(ctx context.Context, jobID string) (*Job, error) {
	return s.repo.GetJobByID(ctx, jobID)
}

// Process runs a queued job to completion. A job that is not queued is left
// alone and reported as done.
func (s *Service) Process(ctx context.Context, jobID string) error {
	claimed, err := s.repo.UpdateJobStatusRunning(ctx, jobID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	j, err := s.repo.GetJobByID(ctx, jobID)
	if err != nil {
		return err
	}

	// a claimed job must leave running even when ctx is cancelled mid-call
	finish := context.WithoutCancel(ctx)

	p, err := s.registry.Get(ctx, j.Provider, s.model)
	if err == nil {
		var reply string
		reply, err = p.Chat(ctx, []ai.Message{{Role: ai.RoleUser, Content: j.Prompt}})
		if err == nil {
			return s.repo.MarkJobSucceeded(finish, jobID, reply)
		}
	}

	if markErr := s.repo.MarkJobFailed(finish, jobID, err.Error()); markErr != nil {
		return markErr
	}
	return err
}
