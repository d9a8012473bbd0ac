package server

import (
	"github.com/commissionlabs/commissiond/internal/period"
	plandomain "github.com/commissionlabs/commissiond/internal/plan/domain"
	"github.com/gin-gonic/gin"
)

// @Summary      List Plans For Period
// @Description  Every active representative with plan and computed order statistics
// @Tags         plans
// @Produce      json
// @Param        month query int true "Month"
// @Param        year  query int true "Year"
// @Success      200  {object}  map[string]any
// @Router       /plans [get]
func (s *Server) ListPlansForPeriod(c *gin.Context) {
	p, err := periodFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	plans, err := s.planSvc.ListForPeriod(c.Request.Context(), p)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondList(c, plans)
}

type setIndividualPlanRequest struct {
	Month                      int                        `json:"month" binding:"required"`
	Year                       int                        `json:"year" binding:"required"`
	SalaryCents                int64                      `json:"salary_cents"`
	CancellationDeductionCents int64                      `json:"cancellation_deduction_cents"`
	LineItems                  []plandomain.LineItemInput `json:"line_items"`
}

// @Summary      Set Individual Plan
// @Description  Replace a representative's full plan for a period
// @Tags         plans
// @Accept       json
// @Produce      json
// @Param        id      path  string                   true "Representative ID"
// @Param        request body  setIndividualPlanRequest true "Replace Plan Request"
// @Success      200  {object}  map[string]any
// @Router       /representatives/{id}/plan [put]
func (s *Server) SetIndividualPlan(c *gin.Context) {
	repID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, plandomain.ErrInvalidRepresentative)
		return
	}

	var req setIndividualPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	p, err := period.New(req.Month, req.Year)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	plan, err := s.planSvc.Replace(c.Request.Context(), plandomain.ReplaceRequest{
		RepresentativeID:           repID,
		Period:                     p,
		SalaryCents:                req.SalaryCents,
		CancellationDeductionCents: req.CancellationDeductionCents,
		LineItems:                  req.LineItems,
		Actor:                      actorFromRequest(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, plan)
}
