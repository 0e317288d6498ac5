package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"evently-booking/internal/shared/config"
	"evently-booking/internal/shared/utils/response"
	"evently-booking/pkg/logger"
	"evently-booking/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Roles carried in token claims. Identity issuance lives upstream; the
// core only reads the claim.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// AccessClaims is the verified token payload the core consumes.
type AccessClaims struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// JWTAuth verifies the bearer token and loads user identity into the
// request context.
func JWTAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, cfg)
		if !ok {
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)
		c.Next()
	}
}

func parseBearer(c *gin.Context, cfg *config.Config) (*AccessClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		response.Error(c, http.StatusUnauthorized, "authorization header is required")
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		response.Error(c, http.StatusUnauthorized, "authorization header format must be Bearer {token}")
		return nil, false
	}

	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil || !token.Valid {
		response.Error(c, http.StatusUnauthorized, "invalid or expired token")
		return nil, false
	}

	if claims.TokenType != "access" {
		response.Error(c, http.StatusUnauthorized, "invalid token type")
		return nil, false
	}
	if claims.UserID <= 0 {
		response.Error(c, http.StatusUnauthorized, "token carries no user identity")
		return nil, false
	}

	return claims, true
}

// OptionalAuth loads identity when a valid token is present but never
// rejects the request. Used on public availability reads.
func OptionalAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Next()
			return
		}

		claims := &AccessClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWT.Secret), nil
		})
		if err != nil || !token.Valid || claims.TokenType != "access" {
			c.Next()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)
		c.Next()
	}
}

// RequireRole middleware checks if user has required role
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("user_role")
		if !exists {
			response.Error(c, http.StatusUnauthorized, "user role not found in context")
			c.Abort()
			return
		}

		if userRole.(string) != requiredRole {
			response.Error(c, http.StatusForbidden, "insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAdmin middleware that requires admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(RoleAdmin)
}

// GetUserID reads the authenticated user id from the request context.
func GetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// GetUserEmail reads the authenticated user email, empty when anonymous.
func GetUserEmail(c *gin.Context) string {
	if v, exists := c.Get("user_email"); exists {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// IsAdmin reports whether the request carries the admin role.
func IsAdmin(c *gin.Context) bool {
	if v, exists := c.Get("user_role"); exists {
		if s, ok := v.(string); ok {
			return s == RoleAdmin
		}
	}
	return false
}

// RequestID assigns a request id when the client did not send one and
// echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// RequestLogger emits one log line per served request.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log
		if requestID, exists := c.Get("request_id"); exists {
			entry = entry.WithRequestID(requestID.(string))
		}
		if userID, ok := GetUserID(c); ok {
			entry = entry.WithUserID(userID)
		}
		entry.LogHTTPRequest(c, time.Since(start))
	}
}

// Metrics records request counters and latency per route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
