package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func optionalAuthRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewOptionalJWTAuth(&JWTConfig{Secret: secret}))
	router.GET("/public", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"viewer": GetUserID(c)})
	})
	return router
}

func doGetWithAuth(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestOptionalAuthIdentifiesViewer(t *testing.T) {
	router := optionalAuthRouter("secret")

	token, err := GenerateToken("viewer-1", "jane", "secret", 3600)
	assert.NoError(t, err)

	w := doGetWithAuth(router, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"viewer":"viewer-1"`)
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	router := optionalAuthRouter("secret")

	w := doGetWithAuth(router, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"viewer":""`)
}

func TestOptionalAuthIgnoresInvalidToken(t *testing.T) {
	router := optionalAuthRouter("secret")

	token, err := GenerateToken("viewer-1", "jane", "other-secret", 3600)
	assert.NoError(t, err)

	// 无效令牌不拒绝请求,只当匿名处理
	w := doGetWithAuth(router, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"viewer":""`)
}
