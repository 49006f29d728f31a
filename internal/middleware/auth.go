package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/careops/scheduler-api/internal/model"
	"github.com/careops/scheduler-api/pkg/auth"
	apperrors "github.com/careops/scheduler-api/pkg/errors"
	"github.com/careops/scheduler-api/pkg/httputil"
)

const contextPrincipal = "principal"

type AuthMiddleware struct {
	verifier auth.Verifier
}

func NewAuthMiddleware(verifier auth.Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Authenticate verifies the bearer token and stores the resulting principal
// for the handler to pass explicitly into service calls.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			httputil.RespondWithError(c, apperrors.Unauthorized(fmt.Errorf("missing authorization header")))
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			httputil.RespondWithError(c, apperrors.Unauthorized(fmt.Errorf("malformed authorization header")))
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Unauthorized(err))
			return
		}

		c.Set(contextPrincipal, &model.Principal{
			UserID: claims.UserID,
			Role:   model.Role(claims.Role),
			Name:   claims.Name,
		})
		c.Next()
	}
}

// PrincipalFromContext returns the authenticated caller, or nil when the
// route is unauthenticated.
func PrincipalFromContext(c *gin.Context) *model.Principal {
	if v, ok := c.Get(contextPrincipal); ok {
		if p, ok := v.(*model.Principal); ok {
			return p
		}
	}
	return nil
}
