package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/studyhall/studyhall-gateway/internal/response"
	"github.com/studyhall/studyhall-gateway/internal/upstream"
)

const (
	// ContextKeyUserID is the Gin context key for the bearer's subject.
	ContextKeyUserID = "user_id"
	// ContextKeyToken is the Gin context key for the raw bearer token.
	ContextKeyToken = "token"
)

// RequireBearer extracts the bearer token from the Authorization header
// (or the ?token= query for WebSocket upgrades, which cannot send headers),
// checks it is well-formed and unexpired, and stashes the subject and raw
// token in the Gin context.
//
// Signature verification is the upstream's job: the gateway never holds the
// signing key, so it rejects only what the upstream is guaranteed to reject
// anyway and forwards the token as-is.
func RequireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := extractToken(c)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		subject, err := inspectToken(tokenStr)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		c.Set(ContextKeyUserID, subject)
		c.Set(ContextKeyToken, tokenStr)
		c.Next()
	}
}

// GetUserID retrieves the bearer's subject from the Gin context.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

// GetToken retrieves the raw bearer token from the Gin context.
func GetToken(c *gin.Context) string {
	return c.GetString(ContextKeyToken)
}

// UpstreamContext returns a context carrying the request's bearer token for
// upstream calls.
func UpstreamContext(c *gin.Context) context.Context {
	return upstream.WithToken(c.Request.Context(), GetToken(c))
}

func extractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1], nil
		}
	}

	// Fallback for WebSocket upgrades which cannot send headers
	if tokenStr := c.Query("token"); tokenStr != "" {
		return tokenStr, nil
	}

	return "", fmt.Errorf("authorization header or token query required")
}

// inspectToken parses the token without verifying its signature and returns
// the subject claim. Expired tokens are rejected here to save a round trip.
func inspectToken(tokenStr string) (string, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return "", err
	}
	if exp != nil && exp.Before(time.Now()) {
		return "", fmt.Errorf("token expired")
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("subject claim required")
	}
	return subject, nil
}
