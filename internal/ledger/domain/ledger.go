// Package domain defines the per-representative commission ledger: one entry
// per representative and period, holding computed and manually adjusted pay.
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

// EntryStatus is the reviewer workflow state of a ledger entry.
type EntryStatus string

const (
	StatusPending  EntryStatus = "pending"
	StatusReviewed EntryStatus = "reviewed"
	StatusApproved EntryStatus = "approved"
)

func (s EntryStatus) Valid() bool {
	return s == StatusPending || s == StatusReviewed || s == StatusApproved
}

var (
	ErrEntryNotFound    = errors.New("ledger_entry_not_found")
	ErrInvalidEntryID   = errors.New("ledger_invalid_entry_id")
	ErrInvalidStatus    = errors.New("ledger_invalid_status")
	ErrInvalidDeduction = errors.New("ledger_invalid_deduction")
	ErrConflict         = errors.New("ledger_concurrent_modification")
)

// LedgerEntry is permanent payroll history: created by the first generation
// run for a (representative, period) and never deleted. Generation runs only
// ever overwrite PlanTotalCents (and the deduction while DeductionEdited is
// false); the reviewer-owned fields survive regeneration untouched.
type LedgerEntry struct {
	ID                         snowflake.ID `gorm:"primaryKey" json:"id"`
	RepresentativeID           snowflake.ID `gorm:"not null;uniqueIndex:idx_ledger_rep_period,priority:1" json:"representative_id"`
	Month                      int          `gorm:"not null;uniqueIndex:idx_ledger_rep_period,priority:2" json:"month"`
	Year                       int          `gorm:"not null;uniqueIndex:idx_ledger_rep_period,priority:3" json:"year"`
	OfficeID                   snowflake.ID `gorm:"not null;index" json:"office_id"`
	PlanTotalCents             int64        `gorm:"not null;default:0" json:"plan_total_cents"`
	CancellationDeductionCents int64        `gorm:"not null;default:0" json:"cancellation_deduction_cents"`
	CancellationNote           string       `gorm:"type:text" json:"cancellation_note"`
	AdjustmentCents            int64        `gorm:"not null;default:0" json:"adjustment_cents"`
	AdjustmentNote             string       `gorm:"type:text" json:"adjustment_note"`
	Notes                      string       `gorm:"type:text" json:"notes"`
	Status                     EntryStatus  `gorm:"type:text;not null;default:'pending'" json:"status"`
	ReviewedByID               *string      `gorm:"type:text" json:"reviewed_by_id,omitempty"`
	ReviewedByName             *string      `gorm:"type:text" json:"reviewed_by_name,omitempty"`
	ReviewedAt                 *time.Time   `json:"reviewed_at,omitempty"`
	FinalAmountCents           int64        `gorm:"not null;default:0" json:"final_amount_cents"`
	DeductionEdited            bool         `gorm:"not null;default:false" json:"deduction_edited"`
	Version                    int64        `gorm:"not null;default:1" json:"version"`
	CreatedAt                  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt                  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (LedgerEntry) TableName() string { return "ledger_entries" }

// RecomputeFinalAmount restores the derived-amount invariant. Must be called
// after every mutation of its inputs.
func (e *LedgerEntry) RecomputeFinalAmount() {
	e.FinalAmountCents = e.PlanTotalCents - e.CancellationDeductionCents + e.AdjustmentCents
}

func (e *LedgerEntry) Period() period.Period {
	return period.Period{Month: e.Month, Year: e.Year}
}

// RepresentativeFailure reports one representative whose upsert failed during
// a batch run.
type RepresentativeFailure struct {
	RepresentativeID snowflake.ID `json:"representative_id"`
	Error            string       `json:"error"`
}

// GenerateResult is the outcome of one batch generation run. Failures are
// data, not errors: partial success is the expected mode.
type GenerateResult struct {
	RunID   string                  `json:"run_id"`
	Period  period.Period           `json:"period"`
	Created int                     `json:"created"`
	Updated int                     `json:"updated"`
	Failed  []RepresentativeFailure `json:"failed"`
}

// UpdateRequest is the reviewer mutation contract: every mutable field is an
// explicit optional parameter, nil meaning "leave unchanged".
type UpdateRequest struct {
	EntryID                    snowflake.ID
	AdjustmentCents            *int64
	AdjustmentNote             *string
	CancellationDeductionCents *int64
	CancellationNote           *string
	Notes                      *string
	Status                     *EntryStatus
	Actor                      auditdomain.Actor
}

type Service interface {
	Generate(ctx context.Context, p period.Period, actor auditdomain.Actor) (*GenerateResult, error)
	Update(ctx context.Context, req UpdateRequest) (*LedgerEntry, error)
	ListForPeriod(ctx context.Context, p period.Period) ([]LedgerEntry, error)
	GetByID(ctx context.Context, id snowflake.ID) (*LedgerEntry, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *LedgerEntry) error
	// UpdateVersioned persists entry with an optimistic version check and
	// reports whether a row was written.
	UpdateVersioned(ctx context.Context, db *gorm.DB, entry *LedgerEntry) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*LedgerEntry, error)
	FindForRepPeriod(ctx context.Context, db *gorm.DB, repID snowflake.ID, p period.Period) (*LedgerEntry, error)
	ListForPeriod(ctx context.Context, db *gorm.DB, p period.Period) ([]LedgerEntry, error)
}
