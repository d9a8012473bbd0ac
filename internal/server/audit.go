package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	auditdomain "github.com/commissionlabs/commissiond/internal/audit/domain"
	"github.com/gin-gonic/gin"
)

// @Summary      Recent Audit Log
// @Description  Most recent audit records, newest first
// @Tags         audit
// @Produce      json
// @Param        limit query int false "Record limit"
// @Success      200  {object}  map[string]any
// @Router       /audit [get]
func (s *Server) GetRecentAuditLog(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			AbortWithError(c, errInvalidRequest)
			return
		}
		limit = parsed
	}

	logs, err := s.auditSvc.Recent(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondList(c, logs)
}

// @Summary      Export Audit Log
// @Description  Export a date range of audit records as CSV or JSON
// @Tags         audit
// @Produce      json
// @Param        from   query string true  "Start date (RFC3339 or 2006-01-02)"
// @Param        to     query string true  "End date (RFC3339 or 2006-01-02)"
// @Param        format query string false "csv or json"
// @Success      200  {string}  string
// @Router       /audit/export [get]
func (s *Server) ExportAuditLog(c *gin.Context) {
	start, err := parseDate(c.Query("from"))
	if err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}
	end, err := parseDate(c.Query("to"))
	if err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	format := auditdomain.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))

	result, err := s.auditSvc.Export(c.Request.Context(), auditdomain.ExportRequest{
		StartDate: start,
		EndDate:   end,
		Format:    format,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	contentType := "text/csv"
	if result.Format == auditdomain.ExportFormatJSON {
		contentType = "application/json"
	}
	c.Header("X-Export-Checksum", result.Checksum)
	c.Header("X-Export-Count", fmt.Sprintf("%d", result.Count))
	c.Data(http.StatusOK, contentType, result.Data)
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
