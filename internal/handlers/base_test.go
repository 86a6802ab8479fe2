package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"devqa/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			name:   "validation",
			err:    &services.ValidationError{Message: "invalid question", Details: []string{"a", "b"}},
			status: http.StatusBadRequest,
			body:   `{"error":"invalid question","details":"a; b"}`,
		},
		{
			name:   "wrapped not found",
			err:    fmt.Errorf("loading: %w", &services.StatusError{Message: "answer not found", Kind: services.ErrNotFound}),
			status: http.StatusNotFound,
			body:   `{"error":"answer not found"}`,
		},
		{
			name:   "forbidden",
			err:    &services.StatusError{Message: "not authorized to accept this answer", Kind: services.ErrForbidden},
			status: http.StatusForbidden,
			body:   `{"error":"not authorized to accept this answer"}`,
		},
		{
			name:   "bare sentinel",
			err:    services.ErrNotFound,
			status: http.StatusNotFound,
			body:   `{"error":"not found"}`,
		},
		{
			name:   "unauthorized",
			err:    services.ErrUnauthorized,
			status: http.StatusUnauthorized,
			body:   `{"error":"authentication required"}`,
		},
		{
			name:   "internal",
			err:    errors.New("connection refused"),
			status: http.StatusInternalServerError,
			body:   `{"error":"internal server error"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestPathID(t *testing.T) {
	r := gin.New()
	r.GET("/items/:id", func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	for path, status := range map[string]int{
		"/items/7":   http.StatusOK,
		"/items/0":   http.StatusBadRequest,
		"/items/-3":  http.StatusBadRequest,
		"/items/abc": http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, status, w.Code, path)
	}
}
