package repository

import (
	"context"

	statsdomain "github.com/commissionlabs/commissiond/internal/orderstats/domain"
	"github.com/commissionlabs/commissiond/internal/period"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repository struct{}

func Provide() statsdomain.Provider {
	return &repository{}
}

func (r *repository) GetRepresentative(ctx context.Context, db *gorm.DB, id snowflake.ID) (*statsdomain.Representative, error) {
	var rep statsdomain.Representative
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&rep).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rep, nil
}

func (r *repository) ListRepresentativesByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]statsdomain.Representative, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var reps []statsdomain.Representative
	err := db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&reps).Error
	return reps, err
}

func (r *repository) ListActiveRepresentatives(ctx context.Context, db *gorm.DB) ([]statsdomain.Representative, error) {
	var reps []statsdomain.Representative
	err := db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&reps).Error
	return reps, err
}

func (r *repository) StatsFor(ctx context.Context, db *gorm.DB, repID snowflake.ID, p period.Period) (statsdomain.PeriodStatistics, error) {
	var stats statsdomain.PeriodStatistics
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) AS units_sold, COALESCE(SUM(total_cents), 0) AS order_total_cents
		 FROM orders
		 WHERE representative_id = ?
		 AND placed_at >= ? AND placed_at < ?
		 AND status <> ?`,
		repID,
		p.Start(),
		p.End(),
		statsdomain.OrderStatusCancelled,
	).Scan(&stats).Error
	return stats, err
}

func (r *repository) StatsForPeriod(ctx context.Context, db *gorm.DB, p period.Period) (map[snowflake.ID]statsdomain.PeriodStatistics, error) {
	var rows []struct {
		RepresentativeID snowflake.ID
		UnitsSold        int64
		OrderTotalCents  int64
	}
	err := db.WithContext(ctx).Raw(
		`SELECT representative_id,
		        COUNT(*) AS units_sold,
		        COALESCE(SUM(total_cents), 0) AS order_total_cents
		 FROM orders
		 WHERE placed_at >= ? AND placed_at < ?
		 AND status <> ?
		 GROUP BY representative_id`,
		p.Start(),
		p.End(),
		statsdomain.OrderStatusCancelled,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[snowflake.ID]statsdomain.PeriodStatistics, len(rows))
	for _, row := range rows {
		out[row.RepresentativeID] = statsdomain.PeriodStatistics{
			UnitsSold:       row.UnitsSold,
			OrderTotalCents: row.OrderTotalCents,
		}
	}
	return out, nil
}
