package controllers

import (
	"strconv"

	"cafepos/pkg/resp"
	"cafepos/services"
	"cafepos/utils"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// ---------- helpers ----------

func actorOf(c *gin.Context) services.Actor {
	return services.Actor{UserID: utils.CurrentUserID(c), Role: utils.CurrentRole(c)}
}

func queryLimit(c *gin.Context, fallback int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// accessError answers the errors every customer-scoped endpoint shares. It reports
// whether it wrote a response.
func accessError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, services.ErrCustomerNotFound):
		resp.NotFound(c, "customer not found")
	case errors.Is(err, services.ErrForbidden):
		resp.Forbidden(c, "forbidden")
	case errors.Is(err, services.ErrCafeNotFound):
		resp.NotFound(c, "cafe not found")
	default:
		return false
	}
	return true
}
