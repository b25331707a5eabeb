package controllers

import (
	"cafepos/pkg/resp"
	"cafepos/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type LoyaltyController struct {
	service *services.LoyaltyService
}

func NewLoyaltyController(s *services.LoyaltyService) *LoyaltyController {
	return &LoyaltyController{service: s}
}

// ---------- GET /api/loyalty/points?customerId= ----------
func (ctrl *LoyaltyController) Points(c *gin.Context) {
	customerID := c.Query("customerId")
	if customerID == "" {
		resp.BadRequest(c, "customerId is required")
		return
	}
	sum, err := ctrl.service.Summary(c.Request.Context(), actorOf(c), customerID)
	if err != nil {
		if !accessError(c, err) {
			resp.ServerError(c, err, "failed to load points")
		}
		return
	}
	resp.OK(c, sum)
}

// ---------- GET /api/loyalty/transactions?customerId=&limit= ----------
func (ctrl *LoyaltyController) Transactions(c *gin.Context) {
	customerID := c.Query("customerId")
	if customerID == "" {
		resp.BadRequest(c, "customerId is required")
		return
	}
	rows, err := ctrl.service.History(c.Request.Context(), actorOf(c), customerID, queryLimit(c, 50))
	if err != nil {
		if !accessError(c, err) {
			resp.ServerError(c, err, "failed to load transactions")
		}
		return
	}
	resp.OK(c, gin.H{"items": rows})
}

type bonusReq struct {
	CustomerID  string `json:"customerId" binding:"required"`
	Points      int    `json:"points" binding:"required"`
	Description string `json:"description"`
}

// ---------- POST /api/loyalty/bonus ----------
func (ctrl *LoyaltyController) Bonus(c *gin.Context) {
	var req bonusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	res, err := ctrl.service.Bonus(c.Request.Context(), actorOf(c), req.CustomerID, req.Points, req.Description)
	if err != nil {
		switch {
		case accessError(c, err):
		case errors.Is(err, services.ErrInsufficientPoints):
			resp.BadRequest(c, "insufficient points")
		case errors.Is(err, services.ErrInvalidPoints):
			resp.BadRequest(c, "points must be non-zero")
		case errors.Is(err, services.ErrConcurrentUpdate):
			resp.Conflict(c, err.Error())
		default:
			resp.ServerError(c, err, "failed to apply bonus")
		}
		return
	}
	resp.Created(c, res)
}

type redeemReq struct {
	CustomerID string `json:"customerId" binding:"required"`
	Type       string `json:"type" binding:"required"`
}

// ---------- POST /api/loyalty/vouchers/redeem ----------
func (ctrl *LoyaltyController) RedeemVoucher(c *gin.Context) {
	var req redeemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	v, err := ctrl.service.RedeemVoucher(c.Request.Context(), actorOf(c), req.CustomerID, req.Type)
	if err != nil {
		switch {
		case accessError(c, err):
		case errors.Is(err, services.ErrUnknownVoucherType):
			resp.BadRequest(c, "unknown voucher type")
		case errors.Is(err, services.ErrInsufficientPoints):
			resp.BadRequest(c, "insufficient points")
		case errors.Is(err, services.ErrConcurrentUpdate):
			resp.Conflict(c, err.Error())
		default:
			resp.ServerError(c, err, "failed to redeem voucher")
		}
		return
	}
	resp.Created(c, v)
}

// ---------- POST /api/loyalty/vouchers/:code/use ----------
func (ctrl *LoyaltyController) UseVoucher(c *gin.Context) {
	v, err := ctrl.service.UseVoucher(c.Request.Context(), actorOf(c), c.Param("code"))
	if err != nil {
		switch {
		case accessError(c, err):
		case errors.Is(err, services.ErrVoucherNotFound):
			resp.NotFound(c, "voucher not found")
		case errors.Is(err, services.ErrVoucherExpired):
			resp.BadRequest(c, "voucher expired")
		case errors.Is(err, services.ErrVoucherUsed):
			resp.Conflict(c, "voucher already used")
		default:
			resp.ServerError(c, err, "failed to use voucher")
		}
		return
	}
	resp.OK(c, v)
}

// ---------- GET /api/loyalty/audit/:customerId ----------
func (ctrl *LoyaltyController) Audit(c *gin.Context) {
	report, err := ctrl.service.Audit(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		if !accessError(c, err) {
			resp.ServerError(c, err, "failed to audit ledger")
		}
		return
	}
	resp.OK(c, report)
}

// ---------- POST /api/loyalty/rules ----------
func (ctrl *LoyaltyController) CreateRule(c *gin.Context) {
	var req services.CreateRuleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	rule, err := ctrl.service.CreateRule(c.Request.Context(), actorOf(c), req)
	if err != nil {
		switch {
		case accessError(c, err):
		case errors.Is(err, services.ErrInvalidRule):
			resp.BadRequest(c, err.Error())
		default:
			resp.ServerError(c, err, "failed to create rule")
		}
		return
	}
	resp.Created(c, rule)
}

// ---------- GET /api/loyalty/rules?cafeId= ----------
func (ctrl *LoyaltyController) ListRules(c *gin.Context) {
	rules, err := ctrl.service.ListRules(c.Request.Context(), actorOf(c), c.Query("cafeId"))
	if err != nil {
		if !accessError(c, err) {
			resp.ServerError(c, err, "failed to list rules")
		}
		return
	}
	resp.OK(c, gin.H{"items": rules})
}
