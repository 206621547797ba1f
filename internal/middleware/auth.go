package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/flicky/go-shop-api/internal/access"
	"github.com/flicky/go-shop-api/internal/dto"
)

const principalKey = "principal"

// Authenticate resolves the caller from a bearer token. Requests without an
// Authorization header continue as anonymous; a header that does not carry a
// valid token is rejected.
func Authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(principalKey, access.Principal{})
			c.Next()
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			abort(c, http.StatusUnauthorized, "unauthorized", "invalid authorization header")
			return
		}

		claims := &access.Claims{}
		token, err := jwt.ParseWithClaims(header[7:], claims,
			func(*jwt.Token) (interface{}, error) { return []byte(secret), nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		)
		if err != nil || !token.Valid {
			abort(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		principal, err := claims.Principal()
		if err != nil {
			abort(c, http.StatusUnauthorized, "unauthorized", "invalid user id")
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// Require checks op against the access policy for the current caller.
func Require(op access.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := access.Authorize(op, PrincipalFrom(c)); err != nil {
			if errors.Is(err, access.ErrUnauthorized) {
				abort(c, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}
			abort(c, http.StatusForbidden, "forbidden", access.ErrForbidden.Error())
			return
		}
		c.Next()
	}
}

func PrincipalFrom(c *gin.Context) access.Principal {
	v, _ := c.Get(principalKey)
	p, _ := v.(access.Principal)
	return p
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: message, Code: code})
}
