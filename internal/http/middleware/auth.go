// Package middleware – bearer-token authentication.
//
// This file validates the Authorization header against a shared HS256 secret
// and stashes the token subject in the Gin context as "userID", where the
// handlers' identity helper picks it up.
//
// When no secret is configured the middleware is a no-op: development setups
// fall back to the X-User-ID header handled downstream.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ctxKeyUserID is the Gin context key carrying the authenticated user id.
const ctxKeyUserID = "userID"

// Auth returns a middleware that validates a `Bearer <jwt>` Authorization
// header signed with the given HS256 secret. The user id comes from the
// "user_id" claim, falling back to the registered "sub" claim.
//
// An empty secret disables verification entirely (no-op middleware).
func Auth(secret string) gin.HandlerFunc {
	if secret == "" {
		return func(c *gin.Context) { c.Next() }
	}
	key := []byte(secret)

	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			// No token: downstream RequireAuth decides whether that matters.
			c.Next()
			return
		}
		if !strings.HasPrefix(auth, "Bearer ") {
			abortUnauthorized(c, "authorization header must be a bearer token")
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), claims,
			func(t *jwt.Token) (any, error) { return key, nil },
			jwt.WithValidMethods([]string{"HS256"}),
		)
		if err != nil || !token.Valid {
			abortUnauthorized(c, "invalid token")
			return
		}

		uid, _ := claims["user_id"].(string)
		if uid == "" {
			uid, _ = claims["sub"].(string)
		}
		if uid == "" {
			abortUnauthorized(c, "token carries no subject")
			return
		}

		c.Set(ctxKeyUserID, uid)
		c.Next()
	}
}

// RequireAuth aborts with 401 when no upstream middleware established a user
// identity. Mount it on route groups that must not fall back to the demo
// identity headers.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v, ok := c.Get(ctxKeyUserID); ok {
			if s, _ := v.(string); s != "" {
				c.Next()
				return
			}
		}
		abortUnauthorized(c, "authentication required")
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    "unauthorized",
		"message": msg,
	})
}
