package repository

import (
	"context"

	plandomain "github.com/commissionlabs/commissiond/internal/plan/domain"
	"github.com/commissionlabs/commissiond/internal/period"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repository struct{}

func Provide() plandomain.Repository {
	return &repository{}
}

// ReplaceForRepPeriod removes any existing plan for the representative and
// period, line items included, then inserts the new one. Callers must run it
// inside a transaction.
func (r *repository) ReplaceForRepPeriod(ctx context.Context, db *gorm.DB, plan *plandomain.IndividualPlan) error {
	var existing []plandomain.IndividualPlan
	err := db.WithContext(ctx).
		Where("representative_id = ? AND month = ? AND year = ?", plan.RepresentativeID, plan.Month, plan.Year).
		Find(&existing).Error
	if err != nil {
		return err
	}

	for _, old := range existing {
		if err := db.WithContext(ctx).Where("plan_id = ?", old.ID).Delete(&plandomain.PlanLineItem{}).Error; err != nil {
			return err
		}
		if err := db.WithContext(ctx).Delete(&plandomain.IndividualPlan{}, "id = ?", old.ID).Error; err != nil {
			return err
		}
	}

	return db.WithContext(ctx).Create(plan).Error
}

func (r *repository) FindForRepPeriod(ctx context.Context, db *gorm.DB, repID snowflake.ID, p period.Period) (*plandomain.IndividualPlan, error) {
	var plan plandomain.IndividualPlan
	err := db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("representative_id = ? AND month = ? AND year = ?", repID, p.Month, p.Year).
		First(&plan).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repository) ListForPeriod(ctx context.Context, db *gorm.DB, p period.Period) ([]plandomain.IndividualPlan, error) {
	var plans []plandomain.IndividualPlan
	err := db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("month = ? AND year = ?", p.Month, p.Year).
		Order("representative_id ASC").
		Find(&plans).Error
	return plans, err
}
