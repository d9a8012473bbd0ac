// Package domain defines the append-only audit trail written by every
// mutating operation in the engine.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Actor identifies who performed a mutation. The engine does not authorize
// actions; the identifier is opaque and used only for attribution.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SystemActor attributes mutations triggered by the CLI or scheduler rather
// than a human operator.
var SystemActor = Actor{ID: "system", Name: "System"}

// Audit actions recorded by the engine. Each action has its own metadata
// schema so records are independently parseable.
const (
	ActionTiersReplaced = "commission.tiers.replaced"
	ActionPlanReplaced  = "commission.plan.replaced"
	ActionLedgerRun     = "ledger.generated"
	ActionEntryUpdated  = "ledger.entry.updated"
)

// AuditLog is one immutable record. Rows are never updated or deleted.
type AuditLog struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	Action      string            `gorm:"type:text;not null;index" json:"action"`
	Description string            `gorm:"type:text;not null" json:"description"`
	ActorID     string            `gorm:"type:text;not null" json:"actor_id"`
	ActorName   string            `gorm:"type:text" json:"actor_name"`
	TargetType  string            `gorm:"type:text;not null" json:"target_type"`
	TargetID    *string           `gorm:"type:text;index" json:"target_id,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;index;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }

// Record carries one audit write. Metadata values must be JSON-serializable.
type Record struct {
	Action      string
	Description string
	Actor       Actor
	TargetType  string
	TargetID    *string
	Metadata    map[string]interface{}
}

type Service interface {
	Record(ctx context.Context, rec Record) error
	// RecordTx appends the record through the caller's transaction so a
	// mutation and its audit record commit or roll back together.
	RecordTx(ctx context.Context, db *gorm.DB, rec Record) error
	Recent(ctx context.Context, limit int) ([]AuditLog, error)
	Export(ctx context.Context, req ExportRequest) (*ExportResult, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, log *AuditLog) error
	Recent(ctx context.Context, db *gorm.DB, limit int) ([]AuditLog, error)
	Range(ctx context.Context, db *gorm.DB, start, end time.Time, actions []string) ([]AuditLog, error)
}
