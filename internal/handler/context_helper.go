package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-pay-api/internal/middleware"
	"github.com/noah-isme/school-pay-api/internal/models"
	appErrors "github.com/noah-isme/school-pay-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// parsePeriod reads the from/to query parameters as YYYY-MM-DD dates.
func parsePeriod(c *gin.Context) (time.Time, time.Time, error) {
	rawFrom := c.Query("from")
	rawTo := c.Query("to")
	if rawFrom == "" || rawTo == "" {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "from and to required")
	}
	from, err := time.Parse("2006-01-02", rawFrom)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "from must be formatted YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", rawTo)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must be formatted YYYY-MM-DD")
	}
	return from, to, nil
}
