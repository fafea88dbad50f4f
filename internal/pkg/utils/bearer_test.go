package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func contextWithAuth(header string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		c.Request.Header.Set("Authorization", header)
	}
	return c
}

func TestBearerTokenExtractsCredential(t *testing.T) {
	assert.Equal(t, "abc.def.ghi", BearerToken(contextWithAuth("Bearer abc.def.ghi")))
}

func TestBearerTokenKeepsSchemeSubstringInPayload(t *testing.T) {
	// Only the leading scheme is stripped, never occurrences inside the
	// credential itself.
	assert.Equal(t, "xxBeareryy", BearerToken(contextWithAuth("Bearer xxBeareryy")))
}

func TestBearerTokenRejectsMissingScheme(t *testing.T) {
	assert.Empty(t, BearerToken(contextWithAuth("abc.def.ghi")))
	assert.Empty(t, BearerToken(contextWithAuth("Basic abc.def.ghi")))
}

func TestBearerTokenEmptyHeader(t *testing.T) {
	assert.Empty(t, BearerToken(contextWithAuth("")))
}
