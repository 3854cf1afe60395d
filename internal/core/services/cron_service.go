package services

import (
	"context"
	"fmt"
	"time"

	"chamanexus/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CronService runs scheduled maintenance jobs
type CronService struct {
	cron             *cron.Cron
	refreshTokenRepo repositories.RefreshTokenRepository
	log              *zap.Logger
	now              func() time.Time
}

// NewCronService creates a new cron service
func NewCronService(refreshTokenRepo repositories.RefreshTokenRepository, log *zap.Logger) *CronService {
	return &CronService{
		cron:             cron.New(),
		refreshTokenRepo: refreshTokenRepo,
		log:              log,
		now:              time.Now,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start(tokenCleanupSpec string) error {
	if _, err := s.cron.AddFunc(tokenCleanupSpec, func() {
		if _, err := s.CleanupExpiredTokens(context.Background()); err != nil {
			s.log.Error("token cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule token cleanup %q: %w", tokenCleanupSpec, err)
	}

	s.cron.Start()
	s.log.Info("cron started", zap.String("token_cleanup", tokenCleanupSpec))
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("cron stopped")
}

// CleanupExpiredTokens deletes refresh tokens past their expiry
func (s *CronService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.refreshTokenRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	if n > 0 {
		s.log.Info("expired refresh tokens removed", zap.Int64("count", n))
	}
	return n, nil
}
