package settlement

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/splitledger/pkg/logger"
	"github.com/fkhayef/splitledger/pkg/middleware"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func serve(t *testing.T, h http.Handler, actor int64, method, target, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if actor != 0 {
		req = req.WithContext(middleware.WithUserID(req.Context(), actor))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestHandler_RecordSettlement(t *testing.T) {
	svc, store := newTestService(t)
	triangle(store)
	h := NewHandler(svc, logger.Nop()).Routes()

	code, env := serve(t, h, john, http.MethodPost, "/", `{"group_id":10,"to_user_id":2}`)
	require.Equal(t, http.StatusCreated, code)
	var created SettlementResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "30.00", created.Amount)
	assert.Equal(t, "SAR", created.Currency)
	assert.Equal(t, "sarah", created.ToUsername)

	code, env = serve(t, h, john, http.MethodPost, "/", `{"group_id":10,"to_user_id":2}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "CONFLICT", env.Error.Code)
}

func TestHandler_StatusMapping(t *testing.T) {
	svc, store := newTestService(t)
	triangle(store)
	h := NewHandler(svc, logger.Nop()).Routes()

	tests := []struct {
		name   string
		actor  int64
		method string
		target string
		body   string
		status int
	}{
		{"no acting user", 0, http.MethodGet, "/group/10/balances", "", http.StatusUnauthorized},
		{"settle with yourself", john, http.MethodPost, "/", `{"group_id":10,"to_user_id":1,"amount":"5"}`, http.StatusBadRequest},
		{"missing receiver", john, http.MethodPost, "/", `{"group_id":10}`, http.StatusBadRequest},
		{"negative amount", john, http.MethodPost, "/", `{"group_id":10,"to_user_id":2,"amount":"-5"}`, http.StatusBadRequest},
		{"not a party", john, http.MethodPost, "/", `{"group_id":10,"from_user_id":2,"to_user_id":3,"amount":"5"}`, http.StatusForbidden},
		{"outsider reads balances", zoe, http.MethodGet, "/group/10/balances", "", http.StatusForbidden},
		{"unknown group", john, http.MethodGet, "/group/99/plan", "", http.StatusNotFound},
		{"bad group id", john, http.MethodGet, "/group/abc/balances", "", http.StatusBadRequest},
		{"negative group id", john, http.MethodGet, "/group/-1/balances", "", http.StatusBadRequest},
		{"bad page", john, http.MethodGet, "/group/10/?page=0", "", http.StatusBadRequest},
		{"balances", john, http.MethodGet, "/group/10/balances", "", http.StatusOK},
		{"balance with user", john, http.MethodGet, "/group/10/balances/2", "", http.StatusOK},
		{"plan", john, http.MethodGet, "/group/10/plan", "", http.StatusOK},
		{"list", john, http.MethodGet, "/group/10/?trip=porto", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := serve(t, h, tt.actor, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, code)
			assert.Equal(t, tt.status < 300, env.Success)
		})
	}
}

func TestHandler_PlanIsTagged(t *testing.T) {
	svc, store := newTestService(t)
	triangle(store)
	h := NewHandler(svc, logger.Nop()).Routes()

	code, env := serve(t, h, mike, http.MethodGet, "/group/10/plan", "")
	require.Equal(t, http.StatusOK, code)

	var plan PlanResponse
	require.NoError(t, json.Unmarshal(env.Data, &plan))
	assert.Equal(t, "optimized_settlement", plan.Kind)
	assert.Len(t, plan.Payments, 2)
}
