package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/middleware"
	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *middleware.Claims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*middleware.Claims)
	if !ok {
		return nil
	}
	return claims
}

func actorID(c *gin.Context) string {
	claims := claimsFromContext(c)
	if claims == nil {
		return ""
	}
	return claims.Subject
}

// periodFromQuery parses optional from/to date bounds (YYYY-MM-DD).
func periodFromQuery(c *gin.Context) (models.Period, error) {
	var period models.Period
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return period, appErrors.Clone(appErrors.ErrValidation, "invalid from date")
		}
		period.From = from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return period, appErrors.Clone(appErrors.ErrValidation, "invalid to date")
		}
		period.To = to
	}
	return period, nil
}
