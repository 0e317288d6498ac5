package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"evently-booking/internal/shared/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Load()
	cfg.JWT.Secret = "test-secret"
	return cfg
}

func signToken(t *testing.T, secret string, claims AccessClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func accessClaims(userID int64, role string) AccessClaims {
	return AccessClaims{
		UserID:    userID,
		Email:     "user@example.com",
		Role:      role,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "evently",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func authedRouter(cfg *config.Config, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWTAuth(cfg)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id, "admin": IsAdmin(c)})
	})
	r.GET("/protected", handlers...)
	return r
}

func doGet(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	r := authedRouter(testConfig())

	w := doGet(r, "/protected", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "detail")
}

func TestJWTAuthRejectsMalformedHeader(t *testing.T) {
	r := authedRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthRejectsBadSignature(t *testing.T) {
	cfg := testConfig()
	r := authedRouter(cfg)

	token := signToken(t, "a-different-secret", accessClaims(7, RoleUser))
	w := doGet(r, "/protected", token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthRejectsNonAccessToken(t *testing.T) {
	cfg := testConfig()
	r := authedRouter(cfg)

	claims := accessClaims(7, RoleUser)
	claims.TokenType = "refresh"
	token := signToken(t, cfg.JWT.Secret, claims)
	w := doGet(r, "/protected", token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token type")
}

func TestJWTAuthRejectsExpiredToken(t *testing.T) {
	cfg := testConfig()
	r := authedRouter(cfg)

	claims := accessClaims(7, RoleUser)
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	token := signToken(t, cfg.JWT.Secret, claims)
	w := doGet(r, "/protected", token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthLoadsIdentity(t *testing.T) {
	cfg := testConfig()
	r := authedRouter(cfg)

	token := signToken(t, cfg.JWT.Secret, accessClaims(42, RoleUser))
	w := doGet(r, "/protected", token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":42,"admin":false}`, w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	cfg := testConfig()
	r := authedRouter(cfg, RequireAdmin())

	userToken := signToken(t, cfg.JWT.Secret, accessClaims(7, RoleUser))
	w := doGet(r, "/protected", userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminToken := signToken(t, cfg.JWT.Secret, accessClaims(1, RoleAdmin))
	w = doGet(r, "/protected", adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":1,"admin":true}`, w.Body.String())
}

func TestOptionalAuthPassesAnonymous(t *testing.T) {
	cfg := testConfig()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/open", OptionalAuth(cfg), func(c *gin.Context) {
		_, authed := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"authed": authed})
	})

	w := doGet(r, "/open", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authed":false}`, w.Body.String())

	token := signToken(t, cfg.JWT.Secret, accessClaims(9, RoleUser))
	w = doGet(r, "/open", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authed":true}`, w.Body.String())
}

func TestRequestIDEchoedAndGenerated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RequestID(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doGet(r, "/x", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get("X-Request-ID"))
}
