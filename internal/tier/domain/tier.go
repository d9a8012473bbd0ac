// Package domain defines office-level bonus bracket schedules.
package domain

import (
	"context"
	"errors"
	"time"

	auditdomain "github.com/commissionlabs/commissiond/internal/audit/domain"
	"github.com/commissionlabs/commissiond/internal/period"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// TierMetric selects which period statistic a bracket is matched against.
type TierMetric string

const (
	MetricUnitsSold  TierMetric = "units_sold"
	MetricOrderTotal TierMetric = "order_total"
)

// BonusForm selects how a matched bracket pays out.
type BonusForm string

const (
	// BonusFlat pays BonusAmountCents once.
	BonusFlat BonusForm = "flat"
	// BonusPercentage pays BonusAmountCents basis points of the period's
	// order total, regardless of which metric matched.
	BonusPercentage BonusForm = "percentage"
)

var (
	ErrInvalidOffice    = errors.New("tier_invalid_office")
	ErrInvalidMetric    = errors.New("tier_invalid_metric")
	ErrInvalidBonusForm = errors.New("tier_invalid_bonus_form")
	ErrInvalidMinValue  = errors.New("tier_invalid_min_value")
	ErrInvalidMaxValue  = errors.New("tier_invalid_max_value")
	ErrInvalidBonus     = errors.New("tier_invalid_bonus_amount")
)

// CommissionTier is one bonus bracket of an office's schedule for a period.
// Bounds are [MinValue, MaxValue) in the metric's native unit: units for
// units_sold, cents for order_total. A nil MaxValue means unbounded.
// BonusAmountCents holds cents for flat tiers and basis points for
// percentage tiers.
type CommissionTier struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	OfficeID         snowflake.ID `gorm:"not null;index:idx_tiers_office_period" json:"office_id"`
	Month            int          `gorm:"not null;index:idx_tiers_office_period" json:"month"`
	Year             int          `gorm:"not null;index:idx_tiers_office_period" json:"year"`
	Metric           TierMetric   `gorm:"type:text;not null" json:"metric"`
	MinValue         int64        `gorm:"not null" json:"min_value"`
	MaxValue         *int64       `json:"max_value,omitempty"`
	BonusForm        BonusForm    `gorm:"type:text;not null" json:"bonus_form"`
	BonusAmountCents int64        `gorm:"not null" json:"bonus_amount_cents"`
	SortOrder        int          `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (CommissionTier) TableName() string { return "commission_tiers" }

func (t TierMetric) Valid() bool {
	return t == MetricUnitsSold || t == MetricOrderTotal
}

func (f BonusForm) Valid() bool {
	return f == BonusFlat || f == BonusPercentage
}

// TierInput is one bracket of a replace request.
type TierInput struct {
	Metric           TierMetric `json:"metric"`
	MinValue         int64      `json:"min_value"`
	MaxValue         *int64     `json:"max_value,omitempty"`
	BonusForm        BonusForm  `json:"bonus_form"`
	BonusAmountCents int64      `json:"bonus_amount_cents"`
	SortOrder        int        `json:"sort_order"`
}

// ReplaceRequest swaps an office's full bracket set for a period.
type ReplaceRequest struct {
	OfficeID snowflake.ID
	Period   period.Period
	Tiers    []TierInput
	Actor    auditdomain.Actor
}

type Service interface {
	Replace(ctx context.Context, req ReplaceRequest) ([]CommissionTier, error)
	List(ctx context.Context, officeID snowflake.ID, p period.Period) ([]CommissionTier, error)
}

type Repository interface {
	ReplaceForOfficePeriod(ctx context.Context, db *gorm.DB, officeID snowflake.ID, p period.Period, tiers []CommissionTier) error
	ListForOfficePeriod(ctx context.Context, db *gorm.DB, officeID snowflake.ID, p period.Period) ([]CommissionTier, error)
}
