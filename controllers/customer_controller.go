package controllers

import (
	"cafepos/pkg/resp"
	"cafepos/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type CustomerController struct {
	service *services.CustomerService
}

func NewCustomerController(s *services.CustomerService) *CustomerController {
	return &CustomerController{service: s}
}

// POST /api/customers
func (ctrl *CustomerController) Create(c *gin.Context) {
	var req services.CreateCustomerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	cust, err := ctrl.service.Create(c.Request.Context(), actorOf(c), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNameRequired):
			resp.BadRequest(c, err.Error())
		case accessError(c, err):
		default:
			resp.ServerError(c, err, "create customer failed")
		}
		return
	}
	resp.Created(c, cust)
}

// GET /api/customers?cafeId=&limit=
func (ctrl *CustomerController) List(c *gin.Context) {
	cafeID := c.Query("cafeId")
	if cafeID == "" {
		resp.BadRequest(c, "cafeId is required")
		return
	}
	rows, err := ctrl.service.ListByCafe(c.Request.Context(), actorOf(c), cafeID, queryLimit(c, 50))
	if err != nil {
		if !accessError(c, err) {
			resp.ServerError(c, err, "list customers failed")
		}
		return
	}
	resp.OK(c, gin.H{"items": rows})
}
