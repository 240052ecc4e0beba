package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
	"github.com/yourusername/mobit-catalog/internal/domain/repository"
)

// logActivity records an action. A failing activity log never fails the action itself.
func logActivity(ctx context.Context, repo repository.ActivityRepository, logger *zap.Logger, sessionID, action, details string) {
	if repo == nil {
		return
	}
	entry := entity.Activity{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Action:    action,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
	if err := repo.LogAction(ctx, entry); err != nil {
		logger.Warn("failed to log activity", zap.String("action", action), zap.Error(err))
	}
}

func notify(s *entity.Session, level entity.NoticeLevel, texts ...string) {
	for _, text := range texts {
		s.Notices = append(s.Notices, entity.Notice{Level: level, Text: text})
	}
}
