package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"iapkit/internal/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})
	r.GET("/", handlers...)
	return r
}

func TestAPIKeyAuthMiddleware(t *testing.T) {
	r := newRouter(APIKeyAuthMiddleware([]string{"key-a", "key-b"}))

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{name: "missing", status: http.StatusUnauthorized},
		{name: "invalid", header: "key-c", status: http.StatusUnauthorized},
		{name: "header", header: "key-b", status: http.StatusOK},
		{name: "query", query: "key-a", status: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			url := "/"
			if tc.query != "" {
				url += "?api_key=" + tc.query
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			if tc.header != "" {
				req.Header.Set("X-API-Key", tc.header)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tc.status, w.Code)
		})
	}
}

func TestAPIKeyAuthMiddlewareEnvelope(t *testing.T) {
	r := newRouter(RequestID(), APIKeyAuthMiddleware([]string{"key-a"}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.Equal(t, response.CodeUnauthorized, resp.Code)
	require.Equal(t, "Missing api_key", resp.Message)
	require.Equal(t, w.Header().Get(RequestIDHeader), resp.RequestID)
	require.Nil(t, resp.Data)
}

func TestAPIKeyAuthMiddlewareDisabled(t *testing.T) {
	r := newRouter(APIKeyAuthMiddleware(nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequestID(t *testing.T) {
	r := newRouter(RequestID())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	require.Equal(t, id, w.Body.String())

	given := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, given)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, given, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.NotEqual(t, "not-a-uuid", w.Header().Get(RequestIDHeader))
}
