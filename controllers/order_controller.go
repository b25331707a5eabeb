package controllers

import (
	"cafepos/pkg/resp"
	"cafepos/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type OrderController struct {
	service *services.OrderService
}

func NewOrderController(s *services.OrderService) *OrderController {
	return &OrderController{service: s}
}

// POST /api/orders
func (ctrl *OrderController) Create(c *gin.Context) {
	var req services.CreateOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	order, err := ctrl.service.Create(c.Request.Context(), actorOf(c), &req)
	if err != nil {
		switch {
		case accessError(c, err):
		case errors.Is(err, services.ErrItemsRequired),
			errors.Is(err, services.ErrInvalidQuantity),
			errors.Is(err, services.ErrProductNotFound):
			resp.BadRequest(c, err.Error())
		default:
			resp.ServerError(c, err, "create order failed")
		}
		return
	}
	resp.Created(c, order)
}

// GET /api/orders?customerId=&limit=
func (ctrl *OrderController) List(c *gin.Context) {
	customerID := c.Query("customerId")
	if customerID == "" {
		resp.BadRequest(c, "customerId is required")
		return
	}
	rows, err := ctrl.service.ListForCustomer(c.Request.Context(), actorOf(c), customerID, queryLimit(c, 20))
	if err != nil {
		if !accessError(c, err) {
			resp.ServerError(c, err, "list orders failed")
		}
		return
	}
	resp.OK(c, gin.H{"items": rows})
}

// GET /api/orders/:id
func (ctrl *OrderController) Detail(c *gin.Context) {
	order, err := ctrl.service.Detail(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			resp.NotFound(c, "order not found")
		case accessError(c, err):
		default:
			resp.ServerError(c, err, "load order failed")
		}
		return
	}
	resp.OK(c, order)
}

type statusReq struct {
	Status string `json:"status" binding:"required"`
}

// PATCH /api/orders/:id/status
func (ctrl *OrderController) UpdateStatus(c *gin.Context) {
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	change, err := ctrl.service.AdvanceStatus(c.Request.Context(), actorOf(c), c.Param("id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			resp.NotFound(c, "order not found")
		case errors.Is(err, services.ErrInvalidTransition):
			resp.Conflict(c, err.Error())
		case errors.Is(err, services.ErrConcurrentUpdate):
			resp.Conflict(c, err.Error())
		case accessError(c, err):
		default:
			resp.ServerError(c, err, "update status failed")
		}
		return
	}
	resp.OK(c, change)
}
