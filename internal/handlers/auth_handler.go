package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/pfman/internal/models"
)

// AuthHandler serves the signed-in user's profile. There is no login yet,
// so every request sees the same demo user.
type AuthHandler struct {
	user models.User
}

// NewAuthHandler creates an AuthHandler for the demo user.
func NewAuthHandler() *AuthHandler {
	first, last := "Jane", "Spoonfighter"
	picture := "https://raw.githubusercontent.com/mantinedev/mantine/master/.demo/avatars/avatar-5.png"
	return &AuthHandler{user: models.User{
		ID:        "user1234",
		FirstName: &first,
		LastName:  &last,
		Email:     "janspoon@fighter.dev",
		Picture:   &picture,
	}}
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, h.user)
}
