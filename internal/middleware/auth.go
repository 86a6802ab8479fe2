package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"devqa/internal/auth"
	"devqa/internal/models"
	"devqa/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	CheckUserKey = "user"
	ClaimsKey    = "claims"
)

// UserLoader finds the user a token was issued to.
type UserLoader interface {
	Get(ctx context.Context, userID uint) (*models.User, error)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

// AuthRequired accepts only requests carrying a valid, unrevoked bearer
// token of an existing user, and puts that user into the context.
func AuthRequired(issuer *auth.Issuer, revoker auth.Revoker, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "authentication required")
			return
		}

		claims, err := issuer.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		ctx := c.Request.Context()
		revoked, err := revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			slog.Error("check token revocation", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if revoked {
			abortUnauthorized(c, "token revoked")
			return
		}

		user, err := users.Get(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				abortUnauthorized(c, "user no longer exists")
				return
			}
			slog.Error("load token user", "user_id", claims.UserID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(CheckUserKey, user)
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// CurrentUser returns the user set by AuthRequired.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(CheckUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// CurrentClaims returns the token claims set by AuthRequired.
func CurrentClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
