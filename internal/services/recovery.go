package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Soumabha100/X-clone-backend/internal/metrics"
	"github.com/Soumabha100/X-clone-backend/internal/repository"
	"github.com/Soumabha100/X-clone-backend/pkg/cache"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
	"github.com/google/uuid"
)

// RecoveryService 崩溃恢复服务
type RecoveryService struct {
	userRepo    *repository.UserRepository
	cascadeRepo *repository.CascadeRepository
	sessions    *cache.SessionStore
	statuses    *cache.CascadeStatusStore
	logger      *logger.Logger
	staleAfter  time.Duration
	now         func() time.Time
}

func NewRecoveryService(
	userRepo *repository.UserRepository,
	cascadeRepo *repository.CascadeRepository,
	sessions *cache.SessionStore,
	statuses *cache.CascadeStatusStore,
	logger *logger.Logger,
	staleAfter time.Duration,
) *RecoveryService {
	return &RecoveryService{
		userRepo:    userRepo,
		cascadeRepo: cascadeRepo,
		sessions:    sessions,
		statuses:    statuses,
		logger:      logger,
		staleAfter:  staleAfter,
		now:         time.Now,
	}
}

// RecoveryStats 一次恢复任务的结果。Pending 是仍在执行中的删除，Completed 是尚未过期的完成记录。
type RecoveryStats struct {
	CascadesResumed   int   `json:"cascades_resumed"`
	CascadesDropped   int   `json:"cascades_dropped"`
	CascadesPending   int   `json:"cascades_pending"`
	CascadesCompleted int   `json:"cascades_completed"`
	CountsRepaired    int64 `json:"counts_repaired"`
	DanglingSwept     int64 `json:"dangling_swept"`
}

// RecoverPendingCascades 恢复超时未完成的账号删除
func (s *RecoveryService) RecoverPendingCascades(ctx context.Context) (*RecoveryStats, error) {
	s.logger.Debug("Starting recovery of pending cascades")

	statuses, err := s.statuses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan cascade status keys: %w", err)
	}

	stats := &RecoveryStats{}
	for _, status := range statuses {
		outcome, err := s.recoverSingleCascade(ctx, status)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", status.UserID).Error("Failed to recover cascade")
			continue
		}
		switch outcome {
		case cascadeResumed:
			stats.CascadesResumed++
		case cascadeDropped:
			stats.CascadesDropped++
		case cascadePending:
			stats.CascadesPending++
		case cascadeCompleted:
			stats.CascadesCompleted++
		}
	}

	if stats.CascadesResumed > 0 || stats.CascadesDropped > 0 {
		s.logger.WithFields(map[string]interface{}{
			"resumed": stats.CascadesResumed,
			"dropped": stats.CascadesDropped,
		}).Info("Cascade recovery completed")
	}
	return stats, nil
}

type cascadeOutcome int

const (
	cascadeSkipped cascadeOutcome = iota
	cascadePending
	cascadeCompleted
	cascadeResumed
	cascadeDropped
)

func (s *RecoveryService) recoverSingleCascade(ctx context.Context, status *cache.CascadeStatus) (cascadeOutcome, error) {
	if status.Status == cache.CascadeCompleted {
		return cascadeCompleted, nil
	}
	if status.Status != cache.CascadeStarted {
		return cascadeSkipped, nil
	}
	// 任务太新，可能仍在执行
	if s.now().Unix()-status.Timestamp < int64(s.staleAfter.Seconds()) {
		return cascadePending, nil
	}

	userID, err := uuid.Parse(status.UserID)
	if err != nil {
		return cascadeSkipped, fmt.Errorf("invalid user ID: %w", err)
	}

	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return cascadeSkipped, err
	}
	if exists {
		// 事务未提交，删除没有生效
		if err := s.statuses.Clear(ctx, userID); err != nil {
			return cascadeSkipped, err
		}
		return cascadeDropped, nil
	}

	if _, err := s.ResumeAccountPurge(ctx, userID); err != nil {
		return cascadeSkipped, err
	}
	return cascadeResumed, nil
}

// ResumeAccountPurge 清理已删除账号的残留记录并吊销会话，可重复执行
func (s *RecoveryService) ResumeAccountPurge(ctx context.Context, userID uuid.UUID) (*repository.PurgeResult, error) {
	result, err := s.cascadeRepo.PurgeAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to purge account: %w", err)
	}
	if total := result.Total(); total > 0 {
		metrics.RepairedRecords.WithLabelValues("cascade").Add(float64(total))
	}

	if err := s.sessions.Revoke(ctx, userID, s.now()); err != nil {
		return nil, err
	}
	if err := s.statuses.Mark(ctx, userID, cache.CascadeCompleted, s.now()); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":  userID,
		"repaired": result.Total(),
	}).Info("Account purge resumed successfully")
	return result, nil
}

// RepairFollowCounts 按关注表重新计算计数，不传 id 时检查所有用户
func (s *RecoveryService) RepairFollowCounts(ctx context.Context, ids ...uuid.UUID) (int64, error) {
	repaired, err := s.cascadeRepo.RecountFollows(ctx, ids...)
	if err != nil {
		return 0, err
	}
	if repaired > 0 {
		metrics.RepairedRecords.WithLabelValues("follow_counts").Add(float64(repaired))
	}
	return repaired, nil
}

// SweepDanglingReferences 删除指向不存在用户或帖子的记录
func (s *RecoveryService) SweepDanglingReferences(ctx context.Context) (int64, error) {
	swept, err := s.cascadeRepo.SweepDangling(ctx)
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		metrics.RepairedRecords.WithLabelValues("dangling").Add(float64(swept))
		s.logger.WithField("swept", swept).Warn("Dangling references removed")
	}
	return swept, nil
}

// RunOnce 依次执行所有修复步骤
func (s *RecoveryService) RunOnce(ctx context.Context) (*RecoveryStats, error) {
	stats, err := s.RecoverPendingCascades(ctx)
	if err != nil {
		return nil, err
	}
	if stats.CountsRepaired, err = s.RepairFollowCounts(ctx); err != nil {
		return stats, err
	}
	if stats.DanglingSwept, err = s.SweepDanglingReferences(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}

// StartRecoveryJob 启动定期恢复任务
func (s *RecoveryService) StartRecoveryJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Recovery job stopped")
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.WithError(err).Error("Recovery job failed")
			}
		}
	}
}
