package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tournament-ledger/internal/model"
	"tournament-ledger/internal/pkg/session"
	"tournament-ledger/internal/repository/memory"
	"tournament-ledger/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiEnv struct {
	router     *gin.Engine
	adminToken string
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	store := memory.New()
	locks := service.NewLocks(time.Second)
	sessions := session.NewManager("test-secret", time.Hour, session.NewMemoryRevocations())
	accounts := service.NewAccountService(store, locks, sessions, bcrypt.MinCost)

	_, err := accounts.EnsureAdmin(context.Background(), service.AdminSeed{
		Username: "daddyji", Password: "daddyjii", Phone: "9800000000", InitialBalance: 999999,
	})
	require.NoError(t, err)

	r, err := NewRouter(&Dependencies{
		Accounts:    accounts,
		Tournaments: service.NewTournamentService(store, locks),
		Wallet:      service.NewWalletService(store, locks, nil),
		Settings:    service.NewSettingsService(store, model.DefaultSettings()),
		Sessions:    sessions,
		Store:       store,
	})
	require.NoError(t, err)

	env := &apiEnv{router: r}
	env.adminToken = env.login(t, "daddyji", "daddyjii")
	return env
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func (e *apiEnv) register(t *testing.T, username, phone string) (int64, string) {
	t.Helper()
	code, res := e.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username, "email": username + "@example.com", "password": "pw", "phone": phone,
	})
	require.Equal(t, http.StatusCreated, code, res.Message)
	auth := decode[service.AuthResult](t, res.Data)
	return auth.User.ID, auth.Token
}

func (e *apiEnv) login(t *testing.T, credential, password string) string {
	t.Helper()
	code, res := e.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": credential, "password": password})
	require.Equal(t, http.StatusOK, code, res.Message)
	return decode[service.AuthResult](t, res.Data).Token
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{model.ErrInvalidPhone, http.StatusBadRequest},
		{model.ErrPhoneTaken, http.StatusConflict},
		{model.ErrInvalidCredentials, http.StatusUnauthorized},
		{model.ErrRequestNotFound, http.StatusNotFound},
		{model.ErrAlreadyCompleted, http.StatusConflict},
		{model.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{fmt.Errorf("failed to join: %w", model.ErrAlreadyJoined), http.StatusConflict},
		{model.ErrLedgerBusy, http.StatusServiceUnavailable},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestWriteError_BusyAsksForRetry(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/tournaments/1/join", nil)

	writeError(c, fmt.Errorf("failed to join: %w", model.ErrLedgerBusy))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	var res envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Success)
	assert.Equal(t, model.ErrLedgerBusy.Error(), res.Message)
	assert.Equal(t, model.ErrBusy.Error(), res.Error)
}

func TestHealthz(t *testing.T) {
	env := newAPIEnv(t)
	code, res := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, res.Success)
}

func TestRegisterLoginMe(t *testing.T) {
	env := newAPIEnv(t)
	id, token := env.register(t, "alice", "9811111111")

	code, res := env.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	me := decode[map[string]any](t, res.Data)
	assert.Equal(t, float64(id), me["id"])
	assert.Equal(t, "alice", me["username"])
	assert.NotContains(t, me, "password")

	phoneToken := env.login(t, "9811111111", "pw")
	code, _ = env.do(t, http.MethodGet, "/api/me", phoneToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, res = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, res.Success)
}

func TestRegister_Errors(t *testing.T) {
	env := newAPIEnv(t)
	env.register(t, "alice", "9811111111")

	code, res := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "bob", "password": "pw", "phone": "9811111111"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, model.ErrConflict.Error(), res.Error)

	code, _ = env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "bob", "password": "pw", "phone": "12345"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, res = env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "bob", "phone": "9822222222"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, res.Message, "password is required")
}

func TestAuthRequired(t *testing.T) {
	env := newAPIEnv(t)

	code, _ := env.do(t, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = env.do(t, http.MethodGet, "/api/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newAPIEnv(t)
	_, token := env.register(t, "alice", "9811111111")

	code, _ := env.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = env.do(t, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAdminOnly(t *testing.T) {
	env := newAPIEnv(t)
	_, token := env.register(t, "alice", "9811111111")

	code, _ := env.do(t, http.MethodGet, "/api/admin/users", token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, res := env.do(t, http.MethodGet, "/api/admin/users", env.adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	users := decode[[]model.User](t, res.Data)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
}

func TestTournamentFlow(t *testing.T) {
	env := newAPIEnv(t)
	aliceID, alice := env.register(t, "alice", "9811111111")

	code, res := env.do(t, http.MethodPost, "/api/deposits", alice, gin.H{"amount": 500, "transaction_id": "ESW-9"})
	require.Equal(t, http.StatusCreated, code, res.Message)
	dep := decode[model.DepositRequest](t, res.Data)

	code, res = env.do(t, http.MethodGet, "/api/admin/deposits?status=Pending", env.adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]model.DepositRequest](t, res.Data), 1)

	path := fmt.Sprintf("/api/admin/deposits/%d/process", dep.ID)
	code, res = env.do(t, http.MethodPost, path, env.adminToken, gin.H{"approve": true})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Request processed", res.Message)
	code, res = env.do(t, http.MethodPost, path, env.adminToken, gin.H{"approve": true})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Request already processed", res.Message)

	code, res = env.do(t, http.MethodPost, "/api/admin/tournaments", env.adminToken, gin.H{
		"title": "T", "game_name": "Free Fire", "entry_fee": 100, "prize_pool": 1000, "match_time": "2024-05-01 18:00",
	})
	require.Equal(t, http.StatusCreated, code, res.Message)
	tm := decode[model.Tournament](t, res.Data)

	code, res = env.do(t, http.MethodPost, fmt.Sprintf("/api/tournaments/%d/join", tm.ID), alice, nil)
	require.Equal(t, http.StatusOK, code, res.Message)
	code, _ = env.do(t, http.MethodPost, fmt.Sprintf("/api/tournaments/%d/join", tm.ID), alice, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, res = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/tournaments/%d/winner", tm.ID), env.adminToken, gin.H{"user_id": aliceID})
	require.Equal(t, http.StatusOK, code, res.Message)
	code, _ = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/tournaments/%d/winner", tm.ID), env.adminToken, gin.H{"user_id": aliceID})
	assert.Equal(t, http.StatusConflict, code)

	code, res = env.do(t, http.MethodGet, "/api/me", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(1400), decode[model.User](t, res.Data).WalletBalance)

	code, res = env.do(t, http.MethodGet, "/api/me/transactions", alice, nil)
	require.Equal(t, http.StatusOK, code)
	txs := decode[[]model.Transaction](t, res.Data)
	require.Len(t, txs, 3)
	assert.Equal(t, service.WinDescription("T"), txs[0].Description)
	assert.Equal(t, service.JoinDescription("T"), txs[1].Description)
	assert.Equal(t, model.DescDepositApproved, txs[2].Description)

	code, res = env.do(t, http.MethodGet, "/api/me/tournaments", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]model.Tournament](t, res.Data), 1)
}

func TestWithdrawalInsufficientFunds(t *testing.T) {
	env := newAPIEnv(t)
	_, alice := env.register(t, "alice", "9811111111")

	code, res := env.do(t, http.MethodPost, "/api/withdrawals", alice, gin.H{"amount": 100})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, model.ErrInsufficientFunds.Error(), res.Error)

	code, res = env.do(t, http.MethodPost, "/api/withdrawals", alice, gin.H{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, res.Message, "amount")
}

func TestProcessRequiresDecision(t *testing.T) {
	env := newAPIEnv(t)
	code, _ := env.do(t, http.MethodPost, "/api/admin/withdrawals/1/process", env.adminToken, gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = env.do(t, http.MethodPost, "/api/admin/withdrawals/1/process", env.adminToken, gin.H{"approve": false})
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = env.do(t, http.MethodPost, "/api/admin/withdrawals/abc/process", env.adminToken, gin.H{"approve": false})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSettingsRoutes(t *testing.T) {
	env := newAPIEnv(t)

	code, res := env.do(t, http.MethodGet, "/api/settings", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, model.DefaultSettings().AppName, decode[model.AppSettings](t, res.Data).AppName)

	updated := model.DefaultSettings()
	updated.AdminUPIID = "admin@esewa"
	code, _ = env.do(t, http.MethodPut, "/api/admin/settings", env.adminToken, updated)
	require.Equal(t, http.StatusOK, code)

	_, res = env.do(t, http.MethodGet, "/api/settings", "", nil)
	assert.Equal(t, "admin@esewa", decode[model.AppSettings](t, res.Data).AdminUPIID)
}

func TestAdminUserManagement(t *testing.T) {
	env := newAPIEnv(t)
	id, alice := env.register(t, "alice", "9811111111")

	code, res := env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/coins", id), env.adminToken, gin.H{"amount": 250})
	require.Equal(t, http.StatusOK, code, res.Message)
	assert.Equal(t, int64(250), decode[model.User](t, res.Data).WalletBalance)

	code, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", id), env.adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = env.do(t, http.MethodGet, "/api/me", alice, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRequestIDHeader(t *testing.T) {
	env := newAPIEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
