package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const AuthCookie = "fde_jwt"

type AuthInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Login checks the operator credentials and issues a JWT.
func (h *Handler) Login(c *gin.Context) {
	var input AuthInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	op := h.Auth.Operator
	if op.Email == "" || op.PasswordHash == "" || len(h.Auth.Secret) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Login not configured"})
		return
	}
	if !strings.EqualFold(input.Email, op.Email) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.generateToken(op.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}
	setAuthCookie(c, token, h.Auth.TokenTTL)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) generateToken(email string) (string, error) {
	ttl := h.Auth.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(h.Auth.Secret)
}

func setAuthCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetCookie(AuthCookie, token, int(ttl.Seconds()), "/", "", false, true) // HttpOnly, not Secure for local dev
}
