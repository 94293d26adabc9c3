package middleware

import (
	"fmt"
	"net/http"
	"strings"

	pkgAuth "wetime-service/pkg/auth"
	appErr "wetime-service/pkg/errors"
	"wetime-service/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ContextParticipantIDKey = "participantID"
	ContextTenantIDKey      = "tenantID"
)

// AuthRequired resolves the bearer token into the caller's participant and
// tenant ids.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, http.StatusUnauthorized, err.Error())
			c.Abort()
			return
		}

		claims, err := pkgAuth.ParseToken(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, pkgAuth.ErrInvalidToken.Error())
			c.Abort()
			return
		}

		c.Set(ContextParticipantIDKey, claims.ParticipantID)
		c.Set(ContextTenantIDKey, claims.TenantID)
		c.Next()
	}
}

func extractBearerToken(authHeader string) (string, error) {
	if strings.TrimSpace(authHeader) == "" {
		return "", fmt.Errorf("%w: missing authorization header", appErr.ErrUnauthorized)
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("%w: invalid authorization header", appErr.ErrUnauthorized)
	}
	return strings.TrimSpace(parts[1]), nil
}
