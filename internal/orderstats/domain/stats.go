// Package domain holds read models over the order/user subsystem. The engine
// consumes these rows by stable identifier only and never mutates them.
package domain

import (
	"context"
	"time"

	"github.com/commissionlabs/commissiond/internal/period"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Office mirrors the sales office record owned by the order/user subsystem.
type Office struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Code      string       `gorm:"type:text;not null;uniqueIndex" json:"code"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Office) TableName() string { return "offices" }

// Representative mirrors the sales representative record owned by the
// order/user subsystem. Office assignment is resolved at generation time from
// this row.
type Representative struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OfficeID    snowflake.ID `gorm:"not null;index" json:"office_id"`
	DisplayName string       `gorm:"type:text;not null" json:"display_name"`
	Active      bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Representative) TableName() string { return "representatives" }

// OrderStatus values mirrored from the order subsystem. Cancelled orders are
// excluded from every statistic.
type OrderStatus string

const (
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is the order subsystem's row, read only for aggregation.
type Order struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	RepresentativeID snowflake.ID `gorm:"not null;index" json:"representative_id"`
	TotalCents       int64        `gorm:"not null" json:"total_cents"`
	Status           OrderStatus  `gorm:"type:text;not null" json:"status"`
	PlacedAt         time.Time    `gorm:"not null;index" json:"placed_at"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

// PeriodStatistics is a representative's qualifying activity for one period,
// already excluding cancelled orders.
type PeriodStatistics struct {
	UnitsSold       int64 `json:"units_sold"`
	OrderTotalCents int64 `json:"order_total_cents"`
}

func (s PeriodStatistics) IsZero() bool {
	return s.UnitsSold == 0 && s.OrderTotalCents == 0
}

// Provider supplies representatives and their per-period statistics.
type Provider interface {
	GetRepresentative(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Representative, error)
	ListRepresentativesByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Representative, error)
	ListActiveRepresentatives(ctx context.Context, db *gorm.DB) ([]Representative, error)
	StatsFor(ctx context.Context, db *gorm.DB, repID snowflake.ID, p period.Period) (PeriodStatistics, error)
	StatsForPeriod(ctx context.Context, db *gorm.DB, p period.Period) (map[snowflake.ID]PeriodStatistics, error)
}
