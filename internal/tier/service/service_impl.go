package service

import (
	"context"
	"fmt"

	auditdomain "github.com/commissionlabs/commissiond/internal/audit/domain"
	"github.com/commissionlabs/commissiond/internal/clock"
	"github.com/commissionlabs/commissiond/internal/period"
	tierdomain "github.com/commissionlabs/commissiond/internal/tier/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clk      clock.Clock
	repo     tierdomain.Repository
	auditSvc auditdomain.Service
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     tierdomain.Repository
	AuditSvc auditdomain.Service
}

func New(p Params) tierdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("tier.service"),
		genID:    p.GenID,
		clk:      p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

// Replace swaps an office's full bracket set for a period. Validation failures
// reject the whole request and leave the prior set intact.
func (s *Service) Replace(ctx context.Context, req tierdomain.ReplaceRequest) ([]tierdomain.CommissionTier, error) {
	if req.OfficeID == 0 {
		return nil, tierdomain.ErrInvalidOffice
	}
	if err := req.Period.Validate(); err != nil {
		return nil, err
	}
	for i, in := range req.Tiers {
		if err := validateTierInput(in); err != nil {
			return nil, fmt.Errorf("tier %d: %w", i, err)
		}
	}

	now := s.clk.Now(ctx)
	entities := make([]tierdomain.CommissionTier, 0, len(req.Tiers))
	for _, in := range req.Tiers {
		entities = append(entities, tierdomain.CommissionTier{
			ID:               s.genID.Generate(),
			OfficeID:         req.OfficeID,
			Month:            req.Period.Month,
			Year:             req.Period.Year,
			Metric:           in.Metric,
			MinValue:         in.MinValue,
			MaxValue:         in.MaxValue,
			BonusForm:        in.BonusForm,
			BonusAmountCents: in.BonusAmountCents,
			SortOrder:        in.SortOrder,
			CreatedAt:        now,
		})
	}

	officeID := req.OfficeID.String()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.ReplaceForOfficePeriod(ctx, tx, req.OfficeID, req.Period, entities); err != nil {
			return err
		}
		// The replacement and its audit record commit together.
		return s.auditSvc.RecordTx(ctx, tx, auditdomain.Record{
			Action:      auditdomain.ActionTiersReplaced,
			Description: fmt.Sprintf("replaced commission tiers for office %s, period %s", officeID, req.Period),
			Actor:       req.Actor,
			TargetType:  "office",
			TargetID:    &officeID,
			Metadata: map[string]interface{}{
				"office_id":  officeID,
				"month":      req.Period.Month,
				"year":       req.Period.Year,
				"tier_count": len(entities),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	return entities, nil
}

func (s *Service) List(ctx context.Context, officeID snowflake.ID, p period.Period) ([]tierdomain.CommissionTier, error) {
	if officeID == 0 {
		return nil, tierdomain.ErrInvalidOffice
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.ListForOfficePeriod(ctx, s.db, officeID, p)
}

func validateTierInput(in tierdomain.TierInput) error {
	if !in.Metric.Valid() {
		return tierdomain.ErrInvalidMetric
	}
	if !in.BonusForm.Valid() {
		return tierdomain.ErrInvalidBonusForm
	}
	if in.MinValue < 0 {
		return tierdomain.ErrInvalidMinValue
	}
	if in.MaxValue != nil && *in.MaxValue <= in.MinValue {
		return tierdomain.ErrInvalidMaxValue
	}
	if in.BonusAmountCents < 0 {
		return tierdomain.ErrInvalidBonus
	}
	return nil
}
