// Package domain defines per-representative compensation plans.
package domain

import (
	"context"
	"errors"
	"time"

	auditdomain "github.com/commissionlabs/commissiond/internal/audit/domain"
	statsdomain "github.com/commissionlabs/commissiond/internal/orderstats/domain"
	"github.com/commissionlabs/commissiond/internal/period"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrInvalidRepresentative = errors.New("plan_invalid_representative")
	ErrRepresentativeMissing = errors.New("plan_representative_not_found")
	ErrInvalidSalary         = errors.New("plan_invalid_salary")
	ErrInvalidDeduction      = errors.New("plan_invalid_deduction")
	ErrInvalidLineItem       = errors.New("plan_invalid_line_item")
)

// IndividualPlan is one representative's compensation plan for a period.
// Replaced wholesale on save, never edited incrementally.
type IndividualPlan struct {
	ID                         snowflake.ID   `gorm:"primaryKey" json:"id"`
	RepresentativeID           snowflake.ID   `gorm:"not null;uniqueIndex:idx_plans_rep_period,priority:1" json:"representative_id"`
	Month                      int            `gorm:"not null;uniqueIndex:idx_plans_rep_period,priority:2" json:"month"`
	Year                       int            `gorm:"not null;uniqueIndex:idx_plans_rep_period,priority:3" json:"year"`
	SalaryCents                int64          `gorm:"not null;default:0" json:"salary_cents"`
	CancellationDeductionCents int64          `gorm:"not null;default:0" json:"cancellation_deduction_cents"`
	LineItems                  []PlanLineItem `gorm:"foreignKey:PlanID" json:"line_items"`
	CreatedAt                  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (IndividualPlan) TableName() string { return "individual_plans" }

// PlanLineItem is a named flat amount added to the plan total.
type PlanLineItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	PlanID      snowflake.ID `gorm:"not null;index" json:"plan_id"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	AmountCents int64        `gorm:"not null" json:"amount_cents"`
	Position    int          `gorm:"not null;default:0" json:"position"`
}

// TableName sets the database table name.
func (PlanLineItem) TableName() string { return "plan_line_items" }

// LineItemInput is one line of a replace request.
type LineItemInput struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
}

// ReplaceRequest swaps a representative's full plan for a period.
type ReplaceRequest struct {
	RepresentativeID           snowflake.ID
	Period                     period.Period
	SalaryCents                int64
	CancellationDeductionCents int64
	LineItems                  []LineItemInput
	Actor                      auditdomain.Actor
}

// PlanWithStats pairs a plan with the representative's computed activity,
// as shown on the period planning screen.
type PlanWithStats struct {
	Representative statsdomain.Representative   `json:"representative"`
	Plan           *IndividualPlan              `json:"plan,omitempty"`
	Stats          statsdomain.PeriodStatistics `json:"stats"`
}

type Service interface {
	Replace(ctx context.Context, req ReplaceRequest) (*IndividualPlan, error)
	GetForRepresentative(ctx context.Context, repID snowflake.ID, p period.Period) (*IndividualPlan, error)
	ListForPeriod(ctx context.Context, p period.Period) ([]PlanWithStats, error)
}

type Repository interface {
	ReplaceForRepPeriod(ctx context.Context, db *gorm.DB, plan *IndividualPlan) error
	FindForRepPeriod(ctx context.Context, db *gorm.DB, repID snowflake.ID, p period.Period) (*IndividualPlan, error)
	ListForPeriod(ctx context.Context, db *gorm.DB, p period.Period) ([]IndividualPlan, error)
}
