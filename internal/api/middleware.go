package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/victornm/quizforge/internal/auth"
	"github.com/victornm/quizforge/internal/errors"
)

const ctxKeyUserID = "auth.user_id"

// AuthRequired validates the bearer token and stores the caller's user
// id on the request context.
func AuthRequired(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, errors.New(errors.CodeUnauthenticated,
				errors.WithMessagef("authorization header required")))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, errors.New(errors.CodeUnauthenticated,
				errors.WithMessagef("authorization header must be of the form: Bearer <token>")))
			return
		}

		userID, err := tokens.Validate(parts[1])
		if err != nil {
			abort(c, err)
			return
		}

		c.Set(ctxKeyUserID, userID)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(ctxKeyUserID)
}
