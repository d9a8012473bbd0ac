package server

import (
	"github.com/commissionlabs/commissiond/internal/period"
	tierdomain "github.com/commissionlabs/commissiond/internal/tier/domain"
	"github.com/gin-gonic/gin"
)

// @Summary      Get Office Tiers
// @Description  List an office's commission brackets for a period
// @Tags         tiers
// @Produce      json
// @Param        id    path   string true  "Office ID"
// @Param        month query  int    true  "Month"
// @Param        year  query  int    true  "Year"
// @Success      200  {object}  map[string]any
// @Router       /offices/{id}/tiers [get]
func (s *Server) GetOfficeTiers(c *gin.Context) {
	officeID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, tierdomain.ErrInvalidOffice)
		return
	}
	p, err := periodFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tiers, err := s.tierSvc.List(c.Request.Context(), officeID, p)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondList(c, tiers)
}

type setOfficeTiersRequest struct {
	Month int                    `json:"month" binding:"required"`
	Year  int                    `json:"year" binding:"required"`
	Tiers []tierdomain.TierInput `json:"tiers"`
}

// @Summary      Set Office Tiers
// @Description  Replace an office's full commission bracket set for a period
// @Tags         tiers
// @Accept       json
// @Produce      json
// @Param        id      path  string                true  "Office ID"
// @Param        request body  setOfficeTiersRequest true  "Replace Tiers Request"
// @Success      200  {object}  map[string]any
// @Router       /offices/{id}/tiers [put]
func (s *Server) SetOfficeTiers(c *gin.Context) {
	officeID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, tierdomain.ErrInvalidOffice)
		return
	}

	var req setOfficeTiersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	p, err := period.New(req.Month, req.Year)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tiers, err := s.tierSvc.Replace(c.Request.Context(), tierdomain.ReplaceRequest{
		OfficeID: officeID,
		Period:   p,
		Tiers:    req.Tiers,
		Actor:    actorFromRequest(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondList(c, tiers)
}
