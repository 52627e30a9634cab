package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind services.ErrorKind
		want int
	}{
		{services.KindValidation, http.StatusBadRequest},
		{services.KindInsufficientBalance, http.StatusBadRequest},
		{services.KindUnauthorized, http.StatusUnauthorized},
		{services.KindForbidden, http.StatusForbidden},
		{services.KindNotFound, http.StatusNotFound},
		{services.KindConflict, http.StatusConflict},
		{services.KindUpstreamUnavailable, http.StatusBadGateway},
		{services.KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.kind))
		})
	}
}

func serveOnce(handler gin.HandlerFunc, path, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	r := gin.New()
	r.GET(path, handler)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	body := map[string]interface{}{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestRespondError(t *testing.T) {
	t.Run("app error keeps its message", func(t *testing.T) {
		w, body := serveOnce(func(c *gin.Context) {
			respondError(c, utils.NopLogger(), services.NewInsufficientBalance(75, 50))
		}, "/x", "/x")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Not enough points. You need 75 points but have 50.", body["message"])
	})

	t.Run("plain error is hidden", func(t *testing.T) {
		w, body := serveOnce(func(c *gin.Context) {
			respondError(c, nil, errors.New("dial tcp 10.0.0.1: connection refused"))
		}, "/x", "/x")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, body["message"], "10.0.0.1")
	})

	t.Run("upstream cause is hidden", func(t *testing.T) {
		w, body := serveOnce(func(c *gin.Context) {
			respondError(c, utils.NopLogger(), services.NewUpstream("Upload failed", errors.New("bucket key leaked")))
		}, "/x", "/x")
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "Upload failed", body["message"])
	})
}

func TestRespondSuccessMergesPayload(t *testing.T) {
	w, body := serveOnce(func(c *gin.Context) {
		respondSuccess(c, http.StatusCreated, gin.H{"message": "Course created", "courseId": 7})
	}, "/x", "/x")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Course created", body["message"])
	assert.EqualValues(t, 7, body["courseId"])
}

func TestIDParam(t *testing.T) {
	handler := func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if ok {
			respondSuccess(c, http.StatusOK, gin.H{"id": id})
		}
	}
	for _, target := range []string{"/items/0", "/items/-3", "/items/abc"} {
		w, body := serveOnce(handler, "/items/:id", target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Equal(t, "Invalid id", body["message"], target)
	}
	w, body := serveOnce(handler, "/items/:id", "/items/12")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 12, body["id"])
}

func TestQueryInt(t *testing.T) {
	r := gin.New()
	var got []int
	r.GET("/q", func(c *gin.Context) {
		got = append(got, queryInt(c, "page"))
		c.Status(http.StatusNoContent)
	})
	for _, target := range []string{"/q?page=3", "/q?page=x", "/q"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}
	assert.Equal(t, []int{3, 0, 0}, got)
}
