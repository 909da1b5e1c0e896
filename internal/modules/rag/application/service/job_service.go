package service

import (
	"context"
	"strings"

	botService "DocLink/internal/modules/bot/application/service"
	"DocLink/internal/modules/rag/application/dto/respond"
	"DocLink/internal/modules/rag/domain/repository"
	"DocLink/pkg/xerr"
)

type JobService interface {
	Get(ctx context.Context, ownerUserId, jobUuid string) (*respond.JobStatusRespond, error)
}

type jobService struct {
	bots botService.BotService
	jobs repository.IngestJobRepository
}

func NewJobService(bots botService.BotService, jobs repository.IngestJobRepository) JobService {
	return &jobService{bots: bots, jobs: jobs}
}

func (s *jobService) Get(ctx context.Context, ownerUserId, jobUuid string) (*respond.JobStatusRespond, error) {
	job, err := s.jobs.GetByUuid(ctx, strings.TrimSpace(jobUuid))
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, xerr.New(xerr.NotFound, xerr.ErrNotFound.Message)
	}
	// 归属校验走机器人记录，任务本身不带 owner
	if _, err := s.bots.GetOwned(ctx, ownerUserId, job.BotUuid); err != nil {
		return nil, err
	}

	return &respond.JobStatusRespond{
		Uuid:            job.Uuid,
		DocumentUuid:    job.DocumentUuid,
		Stage:           job.Stage,
		Percent:         job.Percent,
		Message:         job.Message,
		VectorsUploaded: job.VectorsUploaded,
		ErrorMsg:        job.ErrorMsg,
	}, nil
}
