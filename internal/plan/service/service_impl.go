package service

import (
	"context"
	"fmt"
	"strings"

	auditdomain "github.com/commissionlabs/commissiond/internal/audit/domain"
	"github.com/commissionlabs/commissiond/internal/clock"
	statsdomain "github.com/commissionlabs/commissiond/internal/orderstats/domain"
	"github.com/commissionlabs/commissiond/internal/period"
	plandomain "github.com/commissionlabs/commissiond/internal/plan/domain"
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
	repo     plandomain.Repository
	stats    statsdomain.Provider
	auditSvc auditdomain.Service
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     plandomain.Repository
	Stats    statsdomain.Provider
	AuditSvc auditdomain.Service
}

func New(p Params) plandomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("plan.service"),
		genID:    p.GenID,
		clk:      p.Clock,
		repo:     p.Repo,
		stats:    p.Stats,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Replace(ctx context.Context, req plandomain.ReplaceRequest) (*plandomain.IndividualPlan, error) {
	if req.RepresentativeID == 0 {
		return nil, plandomain.ErrInvalidRepresentative
	}
	if err := req.Period.Validate(); err != nil {
		return nil, err
	}
	if req.SalaryCents < 0 {
		return nil, plandomain.ErrInvalidSalary
	}
	if req.CancellationDeductionCents < 0 {
		return nil, plandomain.ErrInvalidDeduction
	}
	for i, item := range req.LineItems {
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("line item %d: %w", i, plandomain.ErrInvalidLineItem)
		}
	}

	rep, err := s.stats.GetRepresentative(ctx, s.db, req.RepresentativeID)
	if err != nil {
		return nil, err
	}
	if rep == nil {
		return nil, plandomain.ErrRepresentativeMissing
	}

	now := s.clk.Now(ctx)
	planID := s.genID.Generate()
	items := make([]plandomain.PlanLineItem, 0, len(req.LineItems))
	for i, item := range req.LineItems {
		items = append(items, plandomain.PlanLineItem{
			ID:          s.genID.Generate(),
			PlanID:      planID,
			Name:        strings.TrimSpace(item.Name),
			AmountCents: item.AmountCents,
			Position:    i,
		})
	}

	entity := &plandomain.IndividualPlan{
		ID:                         planID,
		RepresentativeID:           req.RepresentativeID,
		Month:                      req.Period.Month,
		Year:                       req.Period.Year,
		SalaryCents:                req.SalaryCents,
		CancellationDeductionCents: req.CancellationDeductionCents,
		LineItems:                  items,
		CreatedAt:                  now,
	}

	repID := req.RepresentativeID.String()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.ReplaceForRepPeriod(ctx, tx, entity); err != nil {
			return err
		}
		// The replacement and its audit record commit together.
		return s.auditSvc.RecordTx(ctx, tx, auditdomain.Record{
			Action:      auditdomain.ActionPlanReplaced,
			Description: fmt.Sprintf("replaced individual plan for representative %s, period %s", repID, req.Period),
			Actor:       req.Actor,
			TargetType:  "representative",
			TargetID:    &repID,
			Metadata: map[string]interface{}{
				"representative_id":            repID,
				"month":                        req.Period.Month,
				"year":                         req.Period.Year,
				"salary_cents":                 req.SalaryCents,
				"cancellation_deduction_cents": req.CancellationDeductionCents,
				"line_item_count":              len(items),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	return entity, nil
}

func (s *Service) GetForRepresentative(ctx context.Context, repID snowflake.ID, p period.Period) (*plandomain.IndividualPlan, error) {
	if repID == 0 {
		return nil, plandomain.ErrInvalidRepresentative
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.FindForRepPeriod(ctx, s.db, repID, p)
}

// ListForPeriod returns every active representative with their plan (if any)
// and computed period statistics, as shown on the planning screen.
func (s *Service) ListForPeriod(ctx context.Context, p period.Period) ([]plandomain.PlanWithStats, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	reps, err := s.stats.ListActiveRepresentatives(ctx, s.db)
	if err != nil {
		return nil, err
	}

	plans, err := s.repo.ListForPeriod(ctx, s.db, p)
	if err != nil {
		return nil, err
	}
	planByRep := make(map[snowflake.ID]*plandomain.IndividualPlan, len(plans))
	for i := range plans {
		planByRep[plans[i].RepresentativeID] = &plans[i]
	}

	statsByRep, err := s.stats.StatsForPeriod(ctx, s.db, p)
	if err != nil {
		return nil, err
	}

	out := make([]plandomain.PlanWithStats, 0, len(reps))
	for _, rep := range reps {
		out = append(out, plandomain.PlanWithStats{
			Representative: rep,
			Plan:           planByRep[rep.ID],
			Stats:          statsByRep[rep.ID],
		})
	}
	return out, nil
}
