package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"github.com/fkhayef/splitledger/pkg/logger"
)

func TestActingUser(t *testing.T) {
	var seen int64
	h := ActingUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
		userID int64
	}{
		{"valid", "7", http.StatusNoContent, 7},
		{"missing", "", http.StatusUnauthorized, 0},
		{"not a number", "abc", http.StatusUnauthorized, 0},
		{"zero", "0", http.StatusUnauthorized, 0},
		{"negative", "-3", http.StatusUnauthorized, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = 0
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(UserHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.userID, seen)
		})
	}
}

func TestRequestLoggerWritesAccessLine(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(logger.Options{ServiceName: "test", Output: buf})

	h := chimw.RequestID(RequestLogger(log)(ActingUser(LogActingUser(log)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Info(r.Context(), "inside")
			w.WriteHeader(http.StatusCreated)
		}),
	))))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/expenses", nil)
	req.Header.Set(UserHeader, "5")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"message":"inside"`)
	assert.Contains(t, out, `"user_id":5`)
	assert.Contains(t, out, `"status":201`)
	assert.Contains(t, out, `"path":"/api/v1/expenses"`)
	assert.Contains(t, out, `"request_id"`)
}
