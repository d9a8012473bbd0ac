package server

import (
	ledgerdomain "github.com/commissionlabs/commissiond/internal/ledger/domain"
	"github.com/commissionlabs/commissiond/internal/period"
	"github.com/gin-gonic/gin"
)

type generateLedgerRequest struct {
	Month int `json:"month" binding:"required"`
	Year  int `json:"year" binding:"required"`
}

// @Summary      Generate Ledger
// @Description  Recompute the commission ledger for every representative in a period
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        request body generateLedgerRequest true "Generate Request"
// @Success      200  {object}  map[string]any
// @Router       /ledger/generate [post]
func (s *Server) GenerateLedger(c *gin.Context) {
	var req generateLedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	p, err := period.New(req.Month, req.Year)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.ledgerSvc.Generate(c.Request.Context(), p, actorFromRequest(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, result)
}

// @Summary      Get Ledger For Period
// @Description  List all ledger entries of a period
// @Tags         ledger
// @Produce      json
// @Param        month query int true "Month"
// @Param        year  query int true "Year"
// @Success      200  {object}  map[string]any
// @Router       /ledger [get]
func (s *Server) GetLedgerForPeriod(c *gin.Context) {
	p, err := periodFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	entries, err := s.ledgerSvc.ListForPeriod(c.Request.Context(), p)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondList(c, entries)
}

type updateLedgerEntryRequest struct {
	AdjustmentCents            *int64  `json:"adjustment_cents,omitempty"`
	AdjustmentNote             *string `json:"adjustment_note,omitempty"`
	CancellationDeductionCents *int64  `json:"cancellation_deduction_cents,omitempty"`
	CancellationNote           *string `json:"cancellation_note,omitempty"`
	Notes                      *string `json:"notes,omitempty"`
	Status                     *string `json:"status,omitempty"`
}

// @Summary      Update Ledger Entry
// @Description  Reviewer mutation: adjustment, deduction, notes and/or status
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        id      path  string                   true "Ledger Entry ID"
// @Param        request body  updateLedgerEntryRequest true "Update Request"
// @Success      200  {object}  map[string]any
// @Router       /ledger/entries/{id} [patch]
func (s *Server) UpdateLedgerEntry(c *gin.Context) {
	entryID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, ledgerdomain.ErrInvalidEntryID)
		return
	}

	var req updateLedgerEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	update := ledgerdomain.UpdateRequest{
		EntryID:                    entryID,
		AdjustmentCents:            req.AdjustmentCents,
		AdjustmentNote:             req.AdjustmentNote,
		CancellationDeductionCents: req.CancellationDeductionCents,
		CancellationNote:           req.CancellationNote,
		Notes:                      req.Notes,
		Actor:                      actorFromRequest(c),
	}
	if req.Status != nil {
		status := ledgerdomain.EntryStatus(*req.Status)
		update.Status = &status
	}

	entry, err := s.ledgerSvc.Update(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, entry)
}
