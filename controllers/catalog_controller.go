package controllers

import (
	"cafepos/pkg/resp"
	"cafepos/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type CatalogController struct {
	service *services.CatalogService
}

func NewCatalogController(s *services.CatalogService) *CatalogController {
	return &CatalogController{service: s}
}

// GET /cafes
func (ctl *CatalogController) ListCafes(c *gin.Context) {
	cafes, err := ctl.service.ListCafes(c.Request.Context())
	if err != nil {
		resp.ServerError(c, err, "list cafes failed")
		return
	}
	resp.OK(c, gin.H{"items": cafes})
}

// GET /cafes/:slug/menu
func (ctl *CatalogController) Menu(c *gin.Context) {
	menu, err := ctl.service.Menu(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, services.ErrCafeNotFound) {
			resp.NotFound(c, "cafe not found")
			return
		}
		resp.ServerError(c, err, "load menu failed")
		return
	}
	resp.OK(c, menu)
}

// POST /api/cafes/:cafeId/products
func (ctl *CatalogController) CreateProduct(c *gin.Context) {
	var req services.ProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	p, err := ctl.service.CreateProduct(c.Request.Context(), actorOf(c), c.Param("cafeId"), req)
	if err != nil {
		catalogError(c, err, "create product failed")
		return
	}
	resp.Created(c, p)
}

// PATCH /api/products/:id
func (ctl *CatalogController) UpdateProduct(c *gin.Context) {
	var patch services.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	p, err := ctl.service.UpdateProduct(c.Request.Context(), actorOf(c), c.Param("id"), patch)
	if err != nil {
		catalogError(c, err, "update product failed")
		return
	}
	resp.OK(c, p)
}

func catalogError(c *gin.Context, err error, msg string) {
	switch {
	case accessError(c, err):
	case errors.Is(err, services.ErrProductNotFound):
		resp.NotFound(c, "product not found")
	case errors.Is(err, services.ErrInvalidPrice),
		errors.Is(err, services.ErrInvalidRoast),
		errors.Is(err, services.ErrInvalidCategory):
		resp.BadRequest(c, err.Error())
	default:
		resp.ServerError(c, err, msg)
	}
}
