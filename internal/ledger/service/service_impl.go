package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	auditdomain "github.com/commissionlabs/commissiond/internal/audit/domain"
	"github.com/commissionlabs/commissiond/internal/clock"
	ledgerdomain "github.com/commissionlabs/commissiond/internal/ledger/domain"
	"github.com/commissionlabs/commissiond/internal/metrics"
	statsdomain "github.com/commissionlabs/commissiond/internal/orderstats/domain"
	"github.com/commissionlabs/commissiond/internal/period"
	plandomain "github.com/commissionlabs/commissiond/internal/plan/domain"
	tierdomain "github.com/commissionlabs/commissiond/internal/tier/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clk      clock.Clock
	repo     ledgerdomain.Repository
	tierRepo tierdomain.Repository
	planRepo plandomain.Repository
	stats    statsdomain.Provider
	auditSvc auditdomain.Service
	metrics  *metrics.Metrics
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     ledgerdomain.Repository
	TierRepo tierdomain.Repository
	PlanRepo plandomain.Repository
	Stats    statsdomain.Provider
	AuditSvc auditdomain.Service
	Metrics  *metrics.Metrics `optional:"true"`
}

func New(p Params) ledgerdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("ledger.service"),
		genID:    p.GenID,
		clk:      p.Clock,
		repo:     p.Repo,
		tierRepo: p.TierRepo,
		planRepo: p.PlanRepo,
		stats:    p.Stats,
		auditSvc: p.AuditSvc,
		metrics:  p.Metrics,
	}
}

// Generate recomputes the ledger for every representative with a plan or
// qualifying order activity in the period. The population ignores the active
// flag: a representative who left after the period still has payroll history
// to settle. Each representative's upsert runs in its own transaction; one
// failure never aborts the rest of the batch. Existing entries keep every
// reviewer-owned field: regeneration is a recompute, not a reset.
func (s *Service) Generate(ctx context.Context, p period.Period, actor auditdomain.Actor) (*ledgerdomain.GenerateResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	plans, err := s.planRepo.ListForPeriod(ctx, s.db, p)
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

	repIDs := make([]snowflake.ID, 0, len(planByRep)+len(statsByRep))
	for id := range planByRep {
		repIDs = append(repIDs, id)
	}
	for id, repStats := range statsByRep {
		if _, hasPlan := planByRep[id]; hasPlan || repStats.IsZero() {
			continue
		}
		repIDs = append(repIDs, id)
	}
	sort.Slice(repIDs, func(i, j int) bool { return repIDs[i] < repIDs[j] })

	reps, err := s.stats.ListRepresentativesByIDs(ctx, s.db, repIDs)
	if err != nil {
		return nil, err
	}
	repByID := make(map[snowflake.ID]statsdomain.Representative, len(reps))
	for _, rep := range reps {
		repByID[rep.ID] = rep
	}

	result := &ledgerdomain.GenerateResult{
		RunID:  uuid.NewString(),
		Period: p,
		Failed: []ledgerdomain.RepresentativeFailure{},
	}

	tiersByOffice := make(map[snowflake.ID][]tierdomain.CommissionTier)

	for _, repID := range repIDs {
		rep, ok := repByID[repID]
		if !ok {
			// A plan or order row referencing a representative that no
			// longer exists. Report it; do not drop it silently.
			result.Failed = append(result.Failed, ledgerdomain.RepresentativeFailure{
				RepresentativeID: repID,
				Error:            fmt.Sprintf("representative %s not found", repID),
			})
			continue
		}
		plan := planByRep[rep.ID]
		repStats := statsByRep[rep.ID]

		tiers, ok := tiersByOffice[rep.OfficeID]
		if !ok {
			tiers, err = s.tierRepo.ListForOfficePeriod(ctx, s.db, rep.OfficeID, p)
			if err != nil {
				result.Failed = append(result.Failed, ledgerdomain.RepresentativeFailure{
					RepresentativeID: rep.ID,
					Error:            fmt.Sprintf("load office tiers: %v", err),
				})
				continue
			}
			tiersByOffice[rep.OfficeID] = tiers
		}

		created, err := s.upsertEntry(ctx, rep, p, plan, tiers, repStats)
		if errors.Is(err, ledgerdomain.ErrConflict) {
			// A manual edit landed between our read and write. One retry
			// per representative, then report the failure.
			created, err = s.upsertEntry(ctx, rep, p, plan, tiers, repStats)
		}
		if err != nil {
			s.log.Warn("ledger upsert failed",
				zap.String("representative_id", rep.ID.String()),
				zap.String("period", p.String()),
				zap.Error(err))
			result.Failed = append(result.Failed, ledgerdomain.RepresentativeFailure{
				RepresentativeID: rep.ID,
				Error:            err.Error(),
			})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.recordRunMetrics(ctx, result)

	if err := s.auditSvc.Record(ctx, auditdomain.Record{
		Action:      auditdomain.ActionLedgerRun,
		Description: fmt.Sprintf("generated commission ledger for period %s", p),
		Actor:       actor,
		TargetType:  "period",
		Metadata: map[string]interface{}{
			"run_id":       result.RunID,
			"month":        p.Month,
			"year":         p.Year,
			"created":      result.Created,
			"updated":      result.Updated,
			"failed_count": len(result.Failed),
		},
	}); err != nil {
		s.log.Warn("audit ledger generation", zap.Error(err))
	}

	return result, nil
}

// upsertEntry runs one representative's read-compute-write cycle in a single
// transaction guarded by the entry version, so a concurrent reviewer edit is
// never silently overwritten.
func (s *Service) upsertEntry(
	ctx context.Context,
	rep statsdomain.Representative,
	p period.Period,
	plan *plandomain.IndividualPlan,
	tiers []tierdomain.CommissionTier,
	repStats statsdomain.PeriodStatistics,
) (created bool, err error) {
	if err := validatePlanForGeneration(plan); err != nil {
		return false, err
	}

	planTotal := ComputePlanTotal(CalculatorInput{
		Tiers: tiers,
		Plan:  plan,
		Stats: repStats,
	})

	now := s.clk.Now(ctx)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindForRepPeriod(ctx, tx, rep.ID, p)
		if err != nil {
			return err
		}

		if existing == nil {
			entry := &ledgerdomain.LedgerEntry{
				ID:               s.genID.Generate(),
				RepresentativeID: rep.ID,
				Month:            p.Month,
				Year:             p.Year,
				OfficeID:         rep.OfficeID,
				PlanTotalCents:   planTotal,
				Status:           ledgerdomain.StatusPending,
				Version:          1,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if plan != nil {
				entry.CancellationDeductionCents = plan.CancellationDeductionCents
			}
			entry.RecomputeFinalAmount()
			if err := s.repo.Insert(ctx, tx, entry); err != nil {
				return err
			}
			created = true
			return nil
		}

		existing.PlanTotalCents = planTotal
		existing.OfficeID = rep.OfficeID
		if !existing.DeductionEdited && plan != nil {
			existing.CancellationDeductionCents = plan.CancellationDeductionCents
		}
		existing.RecomputeFinalAmount()
		existing.UpdatedAt = now

		ok, err := s.repo.UpdateVersioned(ctx, tx, existing)
		if err != nil {
			return err
		}
		if !ok {
			return ledgerdomain.ErrConflict
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// validatePlanForGeneration guards the batch against rows written around the
// plan store's validation. A malformed plan fails its own representative and
// nothing else.
func validatePlanForGeneration(plan *plandomain.IndividualPlan) error {
	if plan == nil {
		return nil
	}
	if plan.SalaryCents < 0 {
		return fmt.Errorf("malformed plan %s: negative salary", plan.ID)
	}
	if plan.CancellationDeductionCents < 0 {
		return fmt.Errorf("malformed plan %s: negative cancellation deduction", plan.ID)
	}
	for _, item := range plan.LineItems {
		if item.AmountCents < 0 {
			return fmt.Errorf("malformed plan %s: negative line item %q", plan.ID, item.Name)
		}
	}
	return nil
}

func (s *Service) recordRunMetrics(ctx context.Context, result *ledgerdomain.GenerateResult) {
	if s.metrics == nil {
		return
	}
	s.metrics.GenerationRuns.Inc()
	s.metrics.EntriesCreated.Add(float64(result.Created))
	s.metrics.EntriesUpdated.Add(float64(result.Updated))
	s.metrics.EntriesFailed.Add(float64(len(result.Failed)))
	s.metrics.LastRunTimestamp.Set(float64(s.clk.Now(ctx).Unix()))
}

func (s *Service) ListForPeriod(ctx context.Context, p period.Period) ([]ledgerdomain.LedgerEntry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.ListForPeriod(ctx, s.db, p)
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*ledgerdomain.LedgerEntry, error) {
	if id == 0 {
		return nil, ledgerdomain.ErrInvalidEntryID
	}
	entry, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ledgerdomain.ErrEntryNotFound
	}
	return entry, nil
}
