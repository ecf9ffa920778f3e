package middlewares

import (
	"context"
	"log"
	"net/http"
	"ticketcore/src/models"
	"ticketcore/src/types"

	"github.com/gin-gonic/gin"
)

// UserResolver maps an authenticated subject to an internal user.
type UserResolver interface {
	FindUserBySubject(ctx context.Context, subject string) (*models.User, error)
}

// AuthMiddleware resolves the bearer token's subject to a user and stores the
// user's id and role on the request context.
func AuthMiddleware(key []byte, users UserResolver) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw, err := bearerToken(ctx)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		claims, err := ParseToken(key, raw)
		if err != nil {
			log.Printf("[auth] token error: %s\n", err.Error())
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		user, err := users.FindUserBySubject(ctx.Request.Context(), claims.Subject)
		if err != nil {
			log.Printf("[auth] Could not resolve subject %s: %s\n", claims.Subject, err.Error())
			abortResolveError(ctx, err)
			return
		}
		ctx.Set("id", user.ID)
		ctx.Set("email", user.Email)
		ctx.Set("role", user.Role)
		ctx.Next()
	}
}

// abortResolveError keeps an unknown subject a 401 while storage outages and
// lock timeouts stay retryable.
func abortResolveError(ctx *gin.Context, err error) {
	kind := types.KindOf(err)
	switch {
	case kind == types.KIND_NOT_FOUND:
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case types.Retryable(err):
		ctx.Header("Retry-After", "1")
		ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable", "kind": kind})
	default:
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred", "kind": kind})
	}
}

// RequireRole rejects users whose role is not one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role := ctx.GetString("role")
		for _, r := range roles {
			if r == role {
				ctx.Next()
				return
			}
		}
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	}
}

func MaintenanceMiddleware(enabled bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if enabled {
			ctx.Header("Retry-After", "120")
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Service is under maintenance"})
			return
		}
		ctx.Next()
	}
}
