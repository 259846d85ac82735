package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func jobTestRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/jobs/test", JobAuth(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func performJobRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/jobs/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJobAuthAcceptsValidSecret(t *testing.T) {
	router := jobTestRouter("topsecret")
	w := performJobRequest(router, "Bearer topsecret")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJobAuthRejectsWrongSecret(t *testing.T) {
	router := jobTestRouter("topsecret")

	w := performJobRequest(router, "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performJobRequest(router, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A header without the bearer prefix never matches
	w = performJobRequest(router, "topsecret")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJobAuthDisabledWithoutSecret(t *testing.T) {
	router := jobTestRouter("")
	w := performJobRequest(router, "Bearer anything")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
