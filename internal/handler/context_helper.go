package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-api/internal/middleware"
	"github.com/noah-isme/hostel-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return nil
	}
	return claims
}

func userFromClaims(claims *models.JWTClaims) models.User {
	return models.User{
		ID:        claims.UserID,
		Email:     claims.Email,
		Role:      claims.Role,
		StudentID: claims.StudentID,
	}
}
