package repository

import (
	"context"
	"time"

	auditdomain "github.com/commissionlabs/commissiond/internal/audit/domain"
	"gorm.io/gorm"
)

type repository struct{}

func Provide() auditdomain.Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, log *auditdomain.AuditLog) error {
	return db.WithContext(ctx).Create(log).Error
}

func (r *repository) Recent(ctx context.Context, db *gorm.DB, limit int) ([]auditdomain.AuditLog, error) {
	var logs []auditdomain.AuditLog
	err := db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

func (r *repository) Range(ctx context.Context, db *gorm.DB, start, end time.Time, actions []string) ([]auditdomain.AuditLog, error) {
	query := db.WithContext(ctx).Model(&auditdomain.AuditLog{}).
		Where("created_at >= ? AND created_at < ?", start, end)
	if len(actions) > 0 {
		query = query.Where("action IN ?", actions)
	}

	var logs []auditdomain.AuditLog
	err := query.Order("created_at ASC").Find(&logs).Error
	return logs, err
}
