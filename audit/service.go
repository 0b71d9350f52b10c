// audit/service.go
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Service interface {
	Record(ctx context.Context, log AuditLog) error
	QueryLogs(ctx context.Context, query LogQuery) ([]AuditLog, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Record(ctx context.Context, log AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = s.now()
	}
	return s.repo.Save(ctx, log)
}

func (s *service) QueryLogs(ctx context.Context, query LogQuery) ([]AuditLog, error) {
	if query.To.IsZero() {
		query.To = s.now()
	}
	if query.From.IsZero() {
		query.From = query.To.Add(-30 * 24 * time.Hour)
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}
	return s.repo.Query(ctx, query)
}
