package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wavelength-app/wavelength/internal/server/auth"
)

// userIDKey is the gin context key carrying the authenticated user id.
const userIDKey = "userID"

// bearerAuth admits requests carrying a valid "Authorization: Bearer <token>"
// header. A missing or malformed header is rejected with 401 before any
// handler logic runs; a token that fails verification (bad signature,
// expired, tampered) is rejected with 403. The reason is never surfaced to
// the client.
func (s *HTTPServer) bearerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Access denied"})
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")

		userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Invalid token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// requestLogger logs one line per request with method, path, status, and
// latency.
func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// corsMiddleware allows cross-origin calls from any origin, matching the
// original deployment where the front end was served separately. With the
// embedded front end it only matters for split deployments.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		header := c.Writer.Header()
		header.Set("Vary", "Origin")
		header.Set("Access-Control-Allow-Origin", "*")
		header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		header.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
