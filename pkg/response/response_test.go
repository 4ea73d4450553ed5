package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tablekit/backend/internal/apperr"
)

func render(t *testing.T, fn func(c *gin.Context)) (*httptest.ResponseRecorder, Body) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	fn(c)
	var body Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestFailMapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{apperr.Validation("name is required"), http.StatusBadRequest, "name is required"},
		{apperr.DuplicateEmail(), http.StatusBadRequest, "Email already exists"},
		{apperr.Forbidden("nope"), http.StatusForbidden, "nope"},
		{apperr.NotFound("User not found"), http.StatusNotFound, "User not found"},
		{apperr.SelfDeletion(), http.StatusBadRequest, "Cannot delete your own account"},
		{apperr.Unauthenticated("Unauthorized"), http.StatusUnauthorized, "Unauthorized"},
	}
	for _, tc := range cases {
		w, body := render(t, func(c *gin.Context) { Fail(c, nil, tc.err) })
		assert.Equal(t, tc.status, w.Code)
		assert.Equal(t, tc.status, body.StatusCode)
		assert.Equal(t, tc.msg, body.Message)
		assert.False(t, body.Success)
	}
}

func TestFailHidesInternalCause(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	w, body := render(t, func(c *gin.Context) {
		Fail(c, zap.New(core), errors.New("pq: connection refused at 10.0.0.3"))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperr.InternalMessage, body.Message)
	assert.NotContains(t, w.Body.String(), "10.0.0.3")
	assert.Equal(t, 1, logs.Len())
}

func TestNewPage(t *testing.T) {
	p := NewPage([]int{1, 2}, 21, 2, 10)
	assert.Equal(t, 3, p.Pagination.TotalPages)
	assert.Equal(t, 2, p.Pagination.CurrentPage)

	p = NewPage([]int{}, 0, 1, 10)
	assert.Equal(t, 0, p.Pagination.TotalPages)
}
