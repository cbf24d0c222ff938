package handler

import (
	"github.com/gin-gonic/gin"
	appmembership "github.com/onixgym/backend/internal/application/membership"
	"github.com/onixgym/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthUseCases
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthUseCases) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// CurrentUserResponse is the identity carried by the caller's token
type CurrentUserResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login authenticates a usuario and returns a signed access token.
//
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req appmembership.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Logout revokes the token that authenticated this request.
//
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"message": "Logged out"})
}

// Me returns the identity of the caller.
//
// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	h.Success(c, CurrentUserResponse{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	})
}
