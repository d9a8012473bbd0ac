// Package seed provisions a small development dataset: two offices, a handful
// of representatives and one period of order activity with tiers and plans.
package seed

import (
	"context"
	"errors"
	"time"

	statsdomain "github.com/commissionlabs/commissiond/internal/orderstats/domain"
	"github.com/commissionlabs/commissiond/internal/period"
	plandomain "github.com/commissionlabs/commissiond/internal/plan/domain"
	tierdomain "github.com/commissionlabs/commissiond/internal/tier/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Run is idempotent: it does nothing if any office already exists.
func Run(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&statsdomain.Office{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return seedAll(tx, node)
	})
}

func seedAll(tx *gorm.DB, node *snowflake.Node) error {
	now := time.Now().UTC()
	p := period.FromTime(now.AddDate(0, -1, 0))

	offices := []statsdomain.Office{
		{ID: node.Generate(), Name: "Downtown Office", CreatedAt: now},
		{ID: node.Generate(), Name: "Harbor Office", CreatedAt: now},
	}
	for i := range offices {
		offices[i].Code = slug.Make(offices[i].Name)
	}
	if err := tx.Create(&offices).Error; err != nil {
		return err
	}

	reps := []statsdomain.Representative{
		{ID: node.Generate(), OfficeID: offices[0].ID, DisplayName: "Ava Martin", Active: true, CreatedAt: now},
		{ID: node.Generate(), OfficeID: offices[0].ID, DisplayName: "Ben Okafor", Active: true, CreatedAt: now},
		{ID: node.Generate(), OfficeID: offices[1].ID, DisplayName: "Carla Reyes", Active: true, CreatedAt: now},
	}
	if err := tx.Create(&reps).Error; err != nil {
		return err
	}

	maxUnits := int64(10)
	tiers := []tierdomain.CommissionTier{
		{
			ID: node.Generate(), OfficeID: offices[0].ID, Month: p.Month, Year: p.Year,
			Metric: tierdomain.MetricUnitsSold, MinValue: 5, MaxValue: &maxUnits,
			BonusForm: tierdomain.BonusFlat, BonusAmountCents: 50_000, SortOrder: 0, CreatedAt: now,
		},
		{
			ID: node.Generate(), OfficeID: offices[0].ID, Month: p.Month, Year: p.Year,
			Metric: tierdomain.MetricUnitsSold, MinValue: 10,
			BonusForm: tierdomain.BonusFlat, BonusAmountCents: 120_000, SortOrder: 1, CreatedAt: now,
		},
		{
			ID: node.Generate(), OfficeID: offices[0].ID, Month: p.Month, Year: p.Year,
			Metric: tierdomain.MetricOrderTotal, MinValue: 5_000_000,
			BonusForm: tierdomain.BonusPercentage, BonusAmountCents: 200, SortOrder: 0, CreatedAt: now,
		},
	}
	if err := tx.Create(&tiers).Error; err != nil {
		return err
	}

	start := p.Start()
	orders := make([]statsdomain.Order, 0, 12)
	for i := 0; i < 7; i++ {
		orders = append(orders, statsdomain.Order{
			ID:               node.Generate(),
			RepresentativeID: reps[0].ID,
			TotalCents:       1_000_000,
			Status:           statsdomain.OrderStatusCompleted,
			PlacedAt:         start.AddDate(0, 0, i+1),
		})
	}
	for i := 0; i < 3; i++ {
		orders = append(orders, statsdomain.Order{
			ID:               node.Generate(),
			RepresentativeID: reps[1].ID,
			TotalCents:       450_000,
			Status:           statsdomain.OrderStatusCompleted,
			PlacedAt:         start.AddDate(0, 0, i+2),
		})
	}
	// A cancelled order that must stay out of every statistic.
	orders = append(orders, statsdomain.Order{
		ID:               node.Generate(),
		RepresentativeID: reps[0].ID,
		TotalCents:       2_000_000,
		Status:           statsdomain.OrderStatusCancelled,
		PlacedAt:         start.AddDate(0, 0, 10),
	})
	if err := tx.Create(&orders).Error; err != nil {
		return err
	}

	planID := node.Generate()
	plans := []plandomain.IndividualPlan{
		{
			ID:                         planID,
			RepresentativeID:           reps[0].ID,
			Month:                      p.Month,
			Year:                       p.Year,
			SalaryCents:                200_000,
			CancellationDeductionCents: 20_000,
			LineItems: []plandomain.PlanLineItem{
				{ID: node.Generate(), PlanID: planID, Name: "Car allowance", AmountCents: 30_000, Position: 0},
			},
			CreatedAt: now,
		},
		{
			ID:               node.Generate(),
			RepresentativeID: reps[1].ID,
			Month:            p.Month,
			Year:             p.Year,
			SalaryCents:      180_000,
			CreatedAt:        now,
		},
	}
	return tx.Create(&plans).Error
}
