package utils

import "github.com/gin-gonic/gin"

func CurrentUserID(c *gin.Context) string {
	return c.GetString("userId")
}

func CurrentRole(c *gin.Context) string {
	return c.GetString("role")
}
