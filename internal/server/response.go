package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	auditdomain "github.com/commissionlabs/commissiond/internal/audit/domain"
	ledgerdomain "github.com/commissionlabs/commissiond/internal/ledger/domain"
	"github.com/commissionlabs/commissiond/internal/period"
	plandomain "github.com/commissionlabs/commissiond/internal/plan/domain"
	tierdomain "github.com/commissionlabs/commissiond/internal/tier/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

var errInvalidRequest = errors.New("invalid_request")

func respondData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func respondList(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// AbortWithError maps domain errors to HTTP statuses: validation 400,
// not-found 404, write conflicts 409, everything else 500.
func AbortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case isNotFoundError(err):
		status = http.StatusNotFound
	case errors.Is(err, ledgerdomain.ErrConflict):
		status = http.StatusConflict
	case isValidationError(err):
		status = http.StatusBadRequest
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ledgerdomain.ErrEntryNotFound) ||
		errors.Is(err, plandomain.ErrRepresentativeMissing)
}

func isValidationError(err error) bool {
	for _, candidate := range []error{
		errInvalidRequest,
		period.ErrInvalidMonth,
		period.ErrInvalidYear,
		tierdomain.ErrInvalidOffice,
		tierdomain.ErrInvalidMetric,
		tierdomain.ErrInvalidBonusForm,
		tierdomain.ErrInvalidMinValue,
		tierdomain.ErrInvalidMaxValue,
		tierdomain.ErrInvalidBonus,
		plandomain.ErrInvalidRepresentative,
		plandomain.ErrInvalidSalary,
		plandomain.ErrInvalidDeduction,
		plandomain.ErrInvalidLineItem,
		ledgerdomain.ErrInvalidEntryID,
		ledgerdomain.ErrInvalidStatus,
		ledgerdomain.ErrInvalidDeduction,
	} {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}

// actorFromRequest reads audit attribution from request headers. Identity is
// asserted by the caller; this engine does not authorize.
func actorFromRequest(c *gin.Context) auditdomain.Actor {
	id := strings.TrimSpace(c.GetHeader("X-Actor-Id"))
	name := strings.TrimSpace(c.GetHeader("X-Actor-Name"))
	if id == "" {
		return auditdomain.SystemActor
	}
	return auditdomain.Actor{ID: id, Name: name}
}

func periodFromQuery(c *gin.Context) (period.Period, error) {
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		return period.Period{}, errInvalidRequest
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		return period.Period{}, errInvalidRequest
	}
	return period.New(month, year)
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
