package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haierkeys/omni-blogger/pkg/code"
	apperrors "github.com/haierkeys/omni-blogger/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set(TraceIDKey, "trace-1")

	NewResponse(c).ToError(err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestToError_Code(t *testing.T) {
	w, body := serve(t, code.ErrorPostConflict.WithDetails("stale sha"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.EqualValues(t, 3002, body["code"])
	assert.Equal(t, "trace-1", body["traceId"])
	assert.Equal(t, []any{"stale sha"}, body["details"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestToError_AppError(t *testing.T) {
	appErr := apperrors.NewAppError(code.ErrorBuildFailed, errors.New("exit 1")).WithDetails("hugo: template error")
	w, body := serve(t, appErr)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.EqualValues(t, 4001, body["code"])
	assert.Equal(t, []any{"hugo: template error"}, body["details"])
}

func TestToError_PlainError(t *testing.T) {
	w, body := serve(t, errors.New("disk full"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.EqualValues(t, 500, body["code"])
	assert.Equal(t, []any{"disk full"}, body["details"])
}

func TestToJSON(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	NewResponse(c).ToJSON(http.StatusCreated, gin.H{"success": true})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}
