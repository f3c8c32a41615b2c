package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"certify-backend/internal/shared/server/middleware"
	"certify-backend/internal/shared/server/respond"
)

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

func meHandler(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	if principal.ID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}

	response := gin.H{
		"userId":     principal.ID,
		"role":       string(principal.Role),
		"isReviewer": principal.IsReviewer(),
	}
	if principal.DisplayName != "" {
		response["name"] = principal.DisplayName
	}

	respond.JSON(c, http.StatusOK, response)
}
