package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/reviewhub/reviewhub/internal/config"
	"github.com/reviewhub/reviewhub/pkg/logger"
	"github.com/stretchr/testify/assert"
)

type fakeChecker struct {
	complete bool
	err      error
}

func (f *fakeChecker) IsProfileComplete(ctx context.Context, userID string) (bool, error) {
	return f.complete, f.err
}

func gateRouter(checker ProfileChecker, policy string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextUserID, "some-user")
	})
	router.Use(NewProfileGate(checker, &config.GuardConfig{FailPolicy: policy}, logger.NewLogger()))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func doGet(router *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)
	return w
}

func TestProfileGateAllowsCompleteProfile(t *testing.T) {
	router := gateRouter(&fakeChecker{complete: true}, config.GuardFailOpen)

	w := doGet(router)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfileGateBlocksIncompleteProfile(t *testing.T) {
	router := gateRouter(&fakeChecker{complete: false}, config.GuardFailOpen)

	w := doGet(router)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), CompletionPath)
}

func TestProfileGateFailOpen(t *testing.T) {
	router := gateRouter(&fakeChecker{err: errors.New("redis down")}, config.GuardFailOpen)

	w := doGet(router)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfileGateFailClosed(t *testing.T) {
	router := gateRouter(&fakeChecker{err: errors.New("redis down")}, config.GuardFailClosed)

	w := doGet(router)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestProfileGateRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewProfileGate(&fakeChecker{complete: true}, &config.GuardConfig{FailPolicy: config.GuardFailOpen}, logger.NewLogger()))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := doGet(router)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("user-1", "jane", "secret", 3600)
	assert.NoError(t, err)

	claims, err := ParseToken(token, "secret")
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "jane", claims.Username)

	_, err = ParseToken(token, "wrong-secret")
	assert.Error(t, err)
}
