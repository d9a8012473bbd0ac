package repository

import (
	"context"

	"github.com/commissionlabs/commissiond/internal/period"
	tierdomain "github.com/commissionlabs/commissiond/internal/tier/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repository struct{}

func Provide() tierdomain.Repository {
	return &repository{}
}

// ReplaceForOfficePeriod deletes the existing bracket set and inserts the new
// one. Callers must run it inside a transaction so no partial set is visible.
func (r *repository) ReplaceForOfficePeriod(ctx context.Context, db *gorm.DB, officeID snowflake.ID, p period.Period, tiers []tierdomain.CommissionTier) error {
	err := db.WithContext(ctx).
		Where("office_id = ? AND month = ? AND year = ?", officeID, p.Month, p.Year).
		Delete(&tierdomain.CommissionTier{}).Error
	if err != nil {
		return err
	}
	if len(tiers) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&tiers).Error
}

func (r *repository) ListForOfficePeriod(ctx context.Context, db *gorm.DB, officeID snowflake.ID, p period.Period) ([]tierdomain.CommissionTier, error) {
	var tiers []tierdomain.CommissionTier
	err := db.WithContext(ctx).
		Where("office_id = ? AND month = ? AND year = ?", officeID, p.Month, p.Year).
		Order("metric ASC, sort_order ASC, min_value ASC").
		Find(&tiers).Error
	return tiers, err
}
