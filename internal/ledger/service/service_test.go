package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	auditdomain "github.com/commissionlabs/commissiond/internal/audit/domain"
	auditrepository "github.com/commissionlabs/commissiond/internal/audit/repository"
	auditservice "github.com/commissionlabs/commissiond/internal/audit/service"
	"github.com/commissionlabs/commissiond/internal/clock"
	ledgerdomain "github.com/commissionlabs/commissiond/internal/ledger/domain"
	ledgerrepository "github.com/commissionlabs/commissiond/internal/ledger/repository"
	statsdomain "github.com/commissionlabs/commissiond/internal/orderstats/domain"
	statsrepository "github.com/commissionlabs/commissiond/internal/orderstats/repository"
	"github.com/commissionlabs/commissiond/internal/period"
	plandomain "github.com/commissionlabs/commissiond/internal/plan/domain"
	planrepository "github.com/commissionlabs/commissiond/internal/plan/repository"
	tierdomain "github.com/commissionlabs/commissiond/internal/tier/domain"
	tierrepository "github.com/commissionlabs/commissiond/internal/tier/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testPeriod = period.Period{Month: 3, Year: 2026}

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	now      time.Time
	svc      ledgerdomain.Service
	auditSvc auditdomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&statsdomain.Office{},
		&statsdomain.Representative{},
		&statsdomain.Order{},
		&tierdomain.CommissionTier{},
		&plandomain.IndividualPlan{},
		&plandomain.PlanLineItem{},
		&ledgerdomain.LedgerEntry{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	clk := clock.Fixed{T: now}
	log := zap.NewNop()

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: clk,
		Repo:  auditrepository.Provide(),
	})

	svc := New(Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    clk,
		Repo:     ledgerrepository.Provide(),
		TierRepo: tierrepository.Provide(),
		PlanRepo: planrepository.Provide(),
		Stats:    statsrepository.Provide(),
		AuditSvc: auditSvc,
	})

	return &fixture{db: db, node: node, now: now, svc: svc, auditSvc: auditSvc}
}

func (f *fixture) createOffice(t *testing.T, name string) *statsdomain.Office {
	t.Helper()
	office := &statsdomain.Office{ID: f.node.Generate(), Name: name, Code: strings.ToLower(name)}
	require.NoError(t, f.db.Create(office).Error)
	return office
}

func (f *fixture) createRep(t *testing.T, officeID snowflake.ID, name string, active bool) *statsdomain.Representative {
	t.Helper()
	rep := &statsdomain.Representative{
		ID:          f.node.Generate(),
		OfficeID:    officeID,
		DisplayName: name,
		Active:      active,
	}
	require.NoError(t, f.db.Create(rep).Error)
	return rep
}

func (f *fixture) createOrders(t *testing.T, repID snowflake.ID, totals ...int64) {
	t.Helper()
	for i, total := range totals {
		require.NoError(t, f.db.Create(&statsdomain.Order{
			ID:               f.node.Generate(),
			RepresentativeID: repID,
			TotalCents:       total,
			Status:           statsdomain.OrderStatusCompleted,
			PlacedAt:         testPeriod.Start().Add(time.Duration(i+1) * time.Hour),
		}).Error)
	}
}

func (f *fixture) createPlan(t *testing.T, repID snowflake.ID, salary, deduction int64) *plandomain.IndividualPlan {
	t.Helper()
	plan := &plandomain.IndividualPlan{
		ID:                         f.node.Generate(),
		RepresentativeID:           repID,
		Month:                      testPeriod.Month,
		Year:                       testPeriod.Year,
		SalaryCents:                salary,
		CancellationDeductionCents: deduction,
	}
	require.NoError(t, f.db.Create(plan).Error)
	return plan
}

func (f *fixture) createUnitsTier(t *testing.T, officeID snowflake.ID, min int64, max *int64, form tierdomain.BonusForm, amount int64) {
	t.Helper()
	require.NoError(t, f.db.Create(&tierdomain.CommissionTier{
		ID:               f.node.Generate(),
		OfficeID:         officeID,
		Month:            testPeriod.Month,
		Year:             testPeriod.Year,
		Metric:           tierdomain.MetricUnitsSold,
		MinValue:         min,
		MaxValue:         max,
		BonusForm:        form,
		BonusAmountCents: amount,
	}).Error)
}

func (f *fixture) entryFor(t *testing.T, repID snowflake.ID) *ledgerdomain.LedgerEntry {
	t.Helper()
	var entry ledgerdomain.LedgerEntry
	err := f.db.Where("representative_id = ? AND month = ? AND year = ?",
		repID, testPeriod.Month, testPeriod.Year).First(&entry).Error
	require.NoError(t, err)
	return &entry
}

func TestGenerate_CreatesEntryFromPlanAndTiers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	office := f.createOffice(t, "Berlin")
	f.createUnitsTier(t, office.ID, 5, nil, tierdomain.BonusFlat, 50_000)
	rep := f.createRep(t, office.ID, "Ada", true)
	f.createPlan(t, rep.ID, 200_000, 7_500)
	f.createOrders(t, rep.ID, 10_000, 10_000, 10_000, 10_000, 10_000)

	// A cancelled order and one outside the period must not count.
	require.NoError(t, f.db.Create(&statsdomain.Order{
		ID:               f.node.Generate(),
		RepresentativeID: rep.ID,
		TotalCents:       99_999,
		Status:           statsdomain.OrderStatusCancelled,
		PlacedAt:         testPeriod.Start().Add(time.Hour),
	}).Error)
	require.NoError(t, f.db.Create(&statsdomain.Order{
		ID:               f.node.Generate(),
		RepresentativeID: rep.ID,
		TotalCents:       99_999,
		Status:           statsdomain.OrderStatusCompleted,
		PlacedAt:         testPeriod.End().Add(time.Hour),
	}).Error)

	result, err := f.svc.Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Empty(t, result.Failed)

	entry := f.entryFor(t, rep.ID)
	assert.Equal(t, office.ID, entry.OfficeID)
	assert.Equal(t, int64(250_000), entry.PlanTotalCents)
	assert.Equal(t, int64(7_500), entry.CancellationDeductionCents)
	assert.Equal(t, int64(242_500), entry.FinalAmountCents)
	assert.Equal(t, ledgerdomain.StatusPending, entry.Status)
	assert.False(t, entry.DeductionEdited)
	assert.Equal(t, int64(1), entry.Version)
	assert.Nil(t, entry.ReviewedByID)
}

func TestGenerate_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	office := f.createOffice(t, "Berlin")
	f.createUnitsTier(t, office.ID, 5, nil, tierdomain.BonusFlat, 50_000)
	rep := f.createRep(t, office.ID, "Ada", true)
	f.createPlan(t, rep.ID, 200_000, 0)
	f.createOrders(t, rep.ID, 10_000, 10_000, 10_000, 10_000, 10_000)

	_, err := f.svc.Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)
	first := f.entryFor(t, rep.ID)

	result, err := f.svc.Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Updated)

	second := f.entryFor(t, rep.ID)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.PlanTotalCents, second.PlanTotalCents)
	assert.Equal(t, first.FinalAmountCents, second.FinalAmountCents)
	assert.Equal(t, first.Status, second.Status)

	var count int64
	require.NoError(t, f.db.Model(&ledgerdomain.LedgerEntry{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGenerate_PreservesManualStateOnRerun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	office := f.createOffice(t, "Berlin")
	rep := f.createRep(t, office.ID, "Ada", true)
	plan := f.createPlan(t, rep.ID, 300_000, 0)

	_, err := f.svc.Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)
	entry := f.entryFor(t, rep.ID)
	assert.Equal(t, int64(300_000), entry.PlanTotalCents)

	// A reviewer approves the entry with a manual adjustment.
	adj := int64(10_000)
	note := "Q1 spiff"
	approved := ledgerdomain.StatusApproved
	_, err = f.svc.Update(ctx, ledgerdomain.UpdateRequest{
		EntryID:         entry.ID,
		AdjustmentCents: &adj,
		AdjustmentNote:  &note,
		Status:          &approved,
		Actor:           auditdomain.Actor{ID: "u-7", Name: "Grace"},
	})
	require.NoError(t, err)

	// The plan changes afterwards and the ledger is regenerated.
	require.NoError(t, f.db.Model(plan).Update("salary_cents", 320_000).Error)

	result, err := f.svc.Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	updated := f.entryFor(t, rep.ID)
	assert.Equal(t, int64(320_000), updated.PlanTotalCents)
	assert.Equal(t, int64(10_000), updated.AdjustmentCents)
	assert.Equal(t, "Q1 spiff", updated.AdjustmentNote)
	assert.Equal(t, int64(330_000), updated.FinalAmountCents)
	assert.Equal(t, ledgerdomain.StatusApproved, updated.Status)
	require.NotNil(t, updated.ReviewedByID)
	assert.Equal(t, "u-7", *updated.ReviewedByID)
	require.NotNil(t, updated.ReviewedAt)
}

func TestGenerate_DeductionFollowsPlanUntilEdited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	office := f.createOffice(t, "Berlin")
	rep := f.createRep(t, office.ID, "Ada", true)
	plan := f.createPlan(t, rep.ID, 100_000, 5_000)

	_, err := f.svc.Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), f.entryFor(t, rep.ID).CancellationDeductionCents)

	// Plan deduction changes: regeneration follows it.
	require.NoError(t, f.db.Model(plan).Update("cancellation_deduction_cents", 8_000).Error)
	_, err = f.svc.Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)
	entry := f.entryFor(t, rep.ID)
	assert.Equal(t, int64(8_000), entry.CancellationDeductionCents)
	assert.False(t, entry.DeductionEdited)

	// A manual edit takes ownership of the deduction.
	ded := int64(2_000)
	_, err = f.svc.Update(ctx, ledgerdomain.UpdateRequest{
		EntryID:                    entry.ID,
		CancellationDeductionCents: &ded,
		Actor:                      auditdomain.SystemActor,
	})
	require.NoError(t, err)

	require.NoError(t, f.db.Model(plan).Update("cancellation_deduction_cents", 9_000).Error)
	_, err = f.svc.Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)

	entry = f.entryFor(t, rep.ID)
	assert.Equal(t, int64(2_000), entry.CancellationDeductionCents)
	assert.True(t, entry.DeductionEdited)
	assert.Equal(t, int64(98_000), entry.FinalAmountCents)
}

func TestGenerate_MalformedPlanFailsOnlyItsRepresentative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	office := f.createOffice(t, "Berlin")
	var reps []*statsdomain.Representative
	for i := 0; i < 4; i++ {
		rep := f.createRep(t, office.ID, fmt.Sprintf("Rep %d", i), true)
		f.createPlan(t, rep.ID, 100_000, 0)
		reps = append(reps, rep)
	}

	// One plan is corrupted below the store's validation layer.
	bad := reps[2]
	require.NoError(t, f.db.Model(&plandomain.IndividualPlan{}).
		Where("representative_id = ?", bad.ID).
		Update("salary_cents", -1).Error)

	result, err := f.svc.Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Created)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, bad.ID, result.Failed[0].RepresentativeID)
	assert.Contains(t, result.Failed[0].Error, "malformed plan")

	var count int64
	require.NoError(t, f.db.Model(&ledgerdomain.LedgerEntry{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	var badCount int64
	require.NoError(t, f.db.Model(&ledgerdomain.LedgerEntry{}).
		Where("representative_id = ?", bad.ID).Count(&badCount).Error)
	assert.Zero(t, badCount)
}

func TestGenerate_IncludesDeactivatedRepresentativeWithHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A representative who quit after the period still has a plan and
	// qualifying orders; their payroll history must be settled.
	office := f.createOffice(t, "Berlin")
	departed := f.createRep(t, office.ID, "Gone", false)
	f.createPlan(t, departed.ID, 100_000, 0)
	f.createOrders(t, departed.ID, 10_000)

	ordersOnly := f.createRep(t, office.ID, "Also Gone", false)
	f.createOrders(t, ordersOnly.ID, 20_000)

	result, err := f.svc.Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Empty(t, result.Failed)

	entry := f.entryFor(t, departed.ID)
	assert.Equal(t, int64(100_000), entry.PlanTotalCents)
	entry = f.entryFor(t, ordersOnly.ID)
	assert.Equal(t, int64(0), entry.PlanTotalCents)
}

func TestGenerate_SkipsRepresentativesWithoutPlanOrActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	office := f.createOffice(t, "Berlin")
	f.createRep(t, office.ID, "Idle", true)
	outside := f.createRep(t, office.ID, "Busy Elsewhere", true)
	require.NoError(t, f.db.Create(&statsdomain.Order{
		ID:               f.node.Generate(),
		RepresentativeID: outside.ID,
		TotalCents:       10_000,
		Status:           statsdomain.OrderStatusCompleted,
		PlacedAt:         testPeriod.End().Add(time.Hour),
	}).Error)

	result, err := f.svc.Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Empty(t, result.Failed)

	var count int64
	require.NoError(t, f.db.Model(&ledgerdomain.LedgerEntry{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGenerate_MissingRepresentativeRowReported(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// An orphaned plan whose representative row is gone is reported as a
	// failure, not dropped.
	ghostID := f.node.Generate()
	f.createPlan(t, ghostID, 100_000, 0)

	result, err := f.svc.Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, ghostID, result.Failed[0].RepresentativeID)
	assert.Contains(t, result.Failed[0].Error, "not found")
}

func TestGenerate_NoPlanButActivityStillPaysBonus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	office := f.createOffice(t, "Berlin")
	f.createUnitsTier(t, office.ID, 2, nil, tierdomain.BonusFlat, 30_000)
	rep := f.createRep(t, office.ID, "Ada", true)
	f.createOrders(t, rep.ID, 10_000, 10_000, 10_000)

	result, err := f.svc.Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)

	entry := f.entryFor(t, rep.ID)
	assert.Equal(t, int64(30_000), entry.PlanTotalCents)
	assert.Equal(t, int64(30_000), entry.FinalAmountCents)
	assert.Zero(t, entry.CancellationDeductionCents)
}

func TestGenerate_InvalidPeriod(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Generate(context.Background(), period.Period{Month: 13, Year: 2026}, auditdomain.SystemActor)
	require.ErrorIs(t, err, period.ErrInvalidMonth)
}

func TestGenerate_WritesAuditRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	office := f.createOffice(t, "Berlin")
	rep := f.createRep(t, office.ID, "Ada", true)
	f.createPlan(t, rep.ID, 100_000, 0)

	result, err := f.svc.Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)

	logs, err := f.auditSvc.Recent(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, auditdomain.ActionLedgerRun, logs[0].Action)
	assert.Equal(t, result.RunID, logs[0].Metadata["run_id"])
}

func TestGetByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	office := f.createOffice(t, "Berlin")
	rep := f.createRep(t, office.ID, "Ada", true)
	f.createPlan(t, rep.ID, 100_000, 0)
	_, err := f.svc.Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)
	entry := f.entryFor(t, rep.ID)

	got, err := f.svc.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)

	_, err = f.svc.GetByID(ctx, f.node.Generate())
	require.ErrorIs(t, err, ledgerdomain.ErrEntryNotFound)

	_, err = f.svc.GetByID(ctx, 0)
	require.ErrorIs(t, err, ledgerdomain.ErrInvalidEntryID)
}

func TestListForPeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	office := f.createOffice(t, "Berlin")
	for i := 0; i < 3; i++ {
		rep := f.createRep(t, office.ID, fmt.Sprintf("Rep %d", i), true)
		f.createPlan(t, rep.ID, 100_000, 0)
	}
	_, err := f.svc.Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)

	entries, err := f.svc.ListForPeriod(ctx, testPeriod)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	entries, err = f.svc.ListForPeriod(ctx, period.Period{Month: 4, Year: 2026})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// conflictRepo forces version conflicts: for the first `conflicts` writes it
// bumps the stored row version inside the caller's transaction before
// delegating, so the guarded update sees a stale version and writes nothing.
type conflictRepo struct {
	ledgerdomain.Repository
	conflicts int
	calls     int
}

func (r *conflictRepo) UpdateVersioned(ctx context.Context, db *gorm.DB, entry *ledgerdomain.LedgerEntry) (bool, error) {
	r.calls++
	if r.conflicts > 0 {
		r.conflicts--
		err := db.Exec("UPDATE ledger_entries SET version = version + 1 WHERE id = ?", entry.ID).Error
		if err != nil {
			return false, err
		}
	}
	return r.Repository.UpdateVersioned(ctx, db, entry)
}

func (f *fixture) serviceWithRepo(repo ledgerdomain.Repository) ledgerdomain.Service {
	return New(Params{
		DB:       f.db,
		Log:      zap.NewNop(),
		GenID:    f.node,
		Clock:    clock.Fixed{T: f.now},
		Repo:     repo,
		TierRepo: tierrepository.Provide(),
		PlanRepo: planrepository.Provide(),
		Stats:    statsrepository.Provide(),
		AuditSvc: f.auditSvc,
	})
}

func TestGenerate_RetriesOnceOnVersionConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	office := f.createOffice(t, "Berlin")
	rep := f.createRep(t, office.ID, "Ada", true)
	f.createPlan(t, rep.ID, 100_000, 0)
	_, err := f.svc.Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)

	repo := &conflictRepo{Repository: ledgerrepository.Provide(), conflicts: 1}
	result, err := f.serviceWithRepo(repo).Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Empty(t, result.Failed)
	assert.Equal(t, 2, repo.calls)
}

func TestGenerate_PersistentConflictReportedAsFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	office := f.createOffice(t, "Berlin")
	rep := f.createRep(t, office.ID, "Ada", true)
	f.createPlan(t, rep.ID, 100_000, 0)
	_, err := f.svc.Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)

	repo := &conflictRepo{Repository: ledgerrepository.Provide(), conflicts: 2}
	result, err := f.serviceWithRepo(repo).Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Updated)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, rep.ID, result.Failed[0].RepresentativeID)
	assert.Equal(t, ledgerdomain.ErrConflict.Error(), result.Failed[0].Error)
	assert.Equal(t, 2, repo.calls)
}

func TestUpdate_ConcurrentEditReturnsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	office := f.createOffice(t, "Berlin")
	rep := f.createRep(t, office.ID, "Ada", true)
	f.createPlan(t, rep.ID, 100_000, 0)
	_, err := f.svc.Generate(ctx, testPeriod, auditdomain.SystemActor)
	require.NoError(t, err)
	entry := f.entryFor(t, rep.ID)

	repo := &conflictRepo{Repository: ledgerrepository.Provide(), conflicts: 1}
	adj := int64(5_000)
	_, err = f.serviceWithRepo(repo).Update(ctx, ledgerdomain.UpdateRequest{
		EntryID:         entry.ID,
		AdjustmentCents: &adj,
		Actor:           auditdomain.SystemActor,
	})
	require.ErrorIs(t, err, ledgerdomain.ErrConflict)

	// The conflicted edit left nothing behind.
	reloaded := f.entryFor(t, rep.ID)
	assert.Zero(t, reloaded.AdjustmentCents)
	assert.Equal(t, entry.Version, reloaded.Version)
	assert.Equal(t, entry.FinalAmountCents, reloaded.FinalAmountCents)
}
