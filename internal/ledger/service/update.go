package service

import (
	"context"
	"fmt"

	auditdomain "github.com/commissionlabs/commissiond/internal/audit/domain"
	ledgerdomain "github.com/commissionlabs/commissiond/internal/ledger/domain"
	"gorm.io/gorm"
)

// Update applies a reviewer mutation: adjustment, deduction, notes and/or a
// status transition. The derived final amount is recomputed after every
// change, the full before/after delta is written to the audit trail, and the
// write is guarded by the entry version.
func (s *Service) Update(ctx context.Context, req ledgerdomain.UpdateRequest) (*ledgerdomain.LedgerEntry, error) {
	if req.EntryID == 0 {
		return nil, ledgerdomain.ErrInvalidEntryID
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, ledgerdomain.ErrInvalidStatus
	}
	if req.CancellationDeductionCents != nil && *req.CancellationDeductionCents < 0 {
		return nil, ledgerdomain.ErrInvalidDeduction
	}

	var updated *ledgerdomain.LedgerEntry

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.repo.FindByID(ctx, tx, req.EntryID)
		if err != nil {
			return err
		}
		if entry == nil {
			return ledgerdomain.ErrEntryNotFound
		}

		changes := map[string]interface{}{}

		if req.AdjustmentCents != nil && *req.AdjustmentCents != entry.AdjustmentCents {
			changes["adjustment_cents"] = beforeAfter(entry.AdjustmentCents, *req.AdjustmentCents)
			entry.AdjustmentCents = *req.AdjustmentCents
		}
		if req.AdjustmentNote != nil && *req.AdjustmentNote != entry.AdjustmentNote {
			changes["adjustment_note"] = beforeAfter(entry.AdjustmentNote, *req.AdjustmentNote)
			entry.AdjustmentNote = *req.AdjustmentNote
		}
		if req.CancellationDeductionCents != nil && *req.CancellationDeductionCents != entry.CancellationDeductionCents {
			changes["cancellation_deduction_cents"] = beforeAfter(entry.CancellationDeductionCents, *req.CancellationDeductionCents)
			entry.CancellationDeductionCents = *req.CancellationDeductionCents
			// From here on, generation runs stop refreshing the deduction
			// from the plan; the reviewer owns it.
			entry.DeductionEdited = true
		}
		if req.CancellationNote != nil && *req.CancellationNote != entry.CancellationNote {
			changes["cancellation_note"] = beforeAfter(entry.CancellationNote, *req.CancellationNote)
			entry.CancellationNote = *req.CancellationNote
		}
		if req.Notes != nil && *req.Notes != entry.Notes {
			changes["notes"] = beforeAfter(entry.Notes, *req.Notes)
			entry.Notes = *req.Notes
		}

		if req.Status != nil {
			s.applyStatusTransition(ctx, entry, *req.Status, req.Actor, changes)
		}

		if len(changes) == 0 {
			// Nothing changed; still return the current row.
			updated = entry
			return nil
		}

		before := entry.FinalAmountCents
		entry.RecomputeFinalAmount()
		if entry.FinalAmountCents != before {
			changes["final_amount_cents"] = beforeAfter(before, entry.FinalAmountCents)
		}
		entry.UpdatedAt = s.clk.Now(ctx)

		ok, err := s.repo.UpdateVersioned(ctx, tx, entry)
		if err != nil {
			return err
		}
		if !ok {
			return ledgerdomain.ErrConflict
		}

		// The mutation and its audit record commit together; an audit
		// failure rolls the whole edit back.
		entryID := entry.ID.String()
		if err := s.auditSvc.RecordTx(ctx, tx, auditdomain.Record{
			Action:      auditdomain.ActionEntryUpdated,
			Description: fmt.Sprintf("updated ledger entry %s", entryID),
			Actor:       req.Actor,
			TargetType:  "ledger_entry",
			TargetID:    &entryID,
			Metadata: map[string]interface{}{
				"entry_id":          entryID,
				"representative_id": entry.RepresentativeID.String(),
				"month":             entry.Month,
				"year":              entry.Year,
				"changes":           changes,
			},
		}); err != nil {
			return err
		}

		updated = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// applyStatusTransition moves the entry to the requested state. Any state may
// be requested from any state; entering reviewed or approved stamps reviewer
// attribution, returning to pending clears it. Same-state requests are no-ops.
func (s *Service) applyStatusTransition(
	ctx context.Context,
	entry *ledgerdomain.LedgerEntry,
	target ledgerdomain.EntryStatus,
	actor auditdomain.Actor,
	changes map[string]interface{},
) {
	if entry.Status == target {
		return
	}

	changes["status"] = beforeAfter(string(entry.Status), string(target))
	entry.Status = target

	switch target {
	case ledgerdomain.StatusReviewed, ledgerdomain.StatusApproved:
		now := s.clk.Now(ctx)
		entry.ReviewedByID = &actor.ID
		entry.ReviewedByName = &actor.Name
		entry.ReviewedAt = &now
	case ledgerdomain.StatusPending:
		entry.ReviewedByID = nil
		entry.ReviewedByName = nil
		entry.ReviewedAt = nil
	}
}

func beforeAfter(before, after interface{}) map[string]interface{} {
	return map[string]interface{}{"before": before, "after": after}
}
