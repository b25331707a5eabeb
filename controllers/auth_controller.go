package controllers

import (
	"cafepos/pkg/resp"
	"cafepos/services"
	"cafepos/utils"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(s *services.AuthService) *AuthController { return &AuthController{service: s} }

// POST /auth/register
func (a *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	user, err := a.service.Register(req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			resp.Conflict(c, "email already registered")
			return
		}
		resp.ServerError(c, err, "register failed")
		return
	}
	resp.Created(c, gin.H{"id": user.ID, "email": user.Email, "name": user.Name, "role": user.Role})
}

// POST /auth/login
func (a *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	token, user, err := a.service.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			resp.Unauthorized(c, "invalid credentials")
			return
		}
		resp.ServerError(c, err, "login failed")
		return
	}
	resp.OK(c, gin.H{
		"token": token,
		"user":  gin.H{"id": user.ID, "email": user.Email, "name": user.Name, "role": user.Role},
	})
}

// GET /auth/me
func (a *AuthController) Me(c *gin.Context) {
	user, err := a.service.GetProfile(utils.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			resp.NotFound(c, "user not found")
			return
		}
		resp.ServerError(c, err, "load user failed")
		return
	}
	resp.OK(c, user)
}
