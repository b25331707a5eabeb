package controllers

import (
	"net/http"

	"cafepos/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type ProfileController struct {
	service *services.ProfileService
}

func NewProfileController(s *services.ProfileService) *ProfileController {
	return &ProfileController{service: s}
}

type generateProfileReq struct {
	CustomerID string `json:"customerId"`
}

// ---------- POST /api/profile/generate ----------
func (ctrl *ProfileController) Generate(c *gin.Context) {
	var body generateProfileReq
	// an unreadable body is treated like a missing customerId
	_ = c.ShouldBindJSON(&body)

	res, err := ctrl.service.Generate(c.Request.Context(), body.CustomerID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCustomerIDRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "customerId is required"})
		case errors.Is(err, services.ErrNotEnoughOrders):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Need at least 5 orders to generate profile"})
		case errors.Is(err, services.ErrCustomerNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		default:
			log.Error().Err(err).Str("customerId", body.CustomerID).Msg("generate profile failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate profile"})
		}
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---------- GET /api/profile/:customerId ----------
func (ctrl *ProfileController) Get(c *gin.Context) {
	p, err := ctrl.service.Get(c.Request.Context(), actorOf(c), c.Param("customerId"))
	if err != nil {
		if accessError(c, err) {
			return
		}
		switch {
		case errors.Is(err, services.ErrProfileNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		default:
			log.Error().Err(err).Msg("load profile failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}
