package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	service *Service
	router  *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	svc := newTestService(t)
	handler := NewHandler(svc, newTestLogger(t))
	middleware := NewMiddleware(svc, newTestLogger(t))

	router := gin.New()
	router.POST("/auth/register", handler.Register)
	router.POST("/auth/login", handler.Login)
	router.POST("/auth/logout", handler.Logout)
	router.GET("/auth/verify", handler.Verify)

	protected := router.Group("/", middleware.RequireAuth())
	protected.PUT("/auth/profile", handler.UpdateProfile)

	return &testServer{service: svc, router: router}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandler_Register(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
		wantError  string
	}{
		{
			name: "created",
			body: map[string]string{
				"name": "Maria", "email": "maria@example.com",
				"cpf": "12345678909", "senha": "senha123",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "missing fields",
			body: map[string]string{
				"name": "Maria", "email": "maria@example.com",
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request",
		},
		{
			name: "bad email",
			body: map[string]string{
				"name": "Maria", "email": "not-an-email",
				"cpf": "12345678909", "senha": "senha123",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "bad cpf checksum",
			body: map[string]string{
				"name": "Maria", "email": "maria@example.com",
				"cpf": "12345678900", "senha": "senha123",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "short senha",
			body: map[string]string{
				"name": "Maria", "email": "maria@example.com",
				"cpf": "12345678909", "senha": "123",
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			rec := ts.do(t, http.MethodPost, "/auth/register", "", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			body := decodeBody(t, rec)
			if tt.wantStatus == http.StatusCreated {
				assert.Equal(t, true, body["success"])
				data := body["data"].(map[string]any)
				assert.Equal(t, false, data["active"])
				assert.NotContains(t, data, "password_hash")
			} else if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			}
		})
	}
}

func TestHandler_RegisterDuplicate(t *testing.T) {
	ts := newTestServer(t)
	payload := map[string]string{
		"name": "Maria", "email": "maria@example.com",
		"cpf": "12345678909", "senha": "senha123",
	}

	rec := ts.do(t, http.MethodPost, "/auth/register", "", payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPost, "/auth/register", "", payload)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "email already registered", decodeBody(t, rec)["error"])

	payload["email"] = "outra@example.com"
	rec = ts.do(t, http.MethodPost, "/auth/register", "", payload)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "cpf already registered", decodeBody(t, rec)["error"])
}

func TestHandler_LoginFlow(t *testing.T) {
	ts := newTestServer(t)
	registerActive(t, ts.service, "maria@example.com", "senha123")

	// a wrong password reports the remaining attempts
	rec := ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "maria@example.com", "senha": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "invalid credentials", body["error"])
	assert.Equal(t, float64(4), body["tentativas_restantes"])

	rec = ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "maria@example.com", "senha": "senha123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.NotEmpty(t, data["token"])
	assert.Equal(t, float64(86400), data["expires_in"])
}

func TestHandler_LoginLocked(t *testing.T) {
	ts := newTestServer(t)
	registerActive(t, ts.service, "maria@example.com", "senha123")

	for i := 0; i < 5; i++ {
		ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"email": "maria@example.com", "senha": "wrong",
		})
	}

	rec := ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "maria@example.com", "senha": "senha123",
	})
	assert.Equal(t, http.StatusLocked, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "account locked", body["error"])
	assert.Greater(t, body["retry_after_minutes"], float64(0))
}

func TestHandler_LoginInactive(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.service.Register(RegisterInput{
		Name: "Maria", Email: "maria@example.com",
		CPF: "12345678909", Password: "senha123",
	})
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "maria@example.com", "senha": "senha123",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "account inactive", decodeBody(t, rec)["error"])
}

func TestHandler_VerifyAndLogout(t *testing.T) {
	ts := newTestServer(t)
	registerActive(t, ts.service, "maria@example.com", "senha123")

	login, err := ts.service.Login("maria@example.com", "senha123", "10.0.0.1", "go-test")
	require.NoError(t, err)

	rec := ts.do(t, http.MethodGet, "/auth/verify", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	tokenInfo := data["token_info"].(map[string]any)
	assert.Greater(t, tokenInfo["time_remaining"], float64(0))

	rec = ts.do(t, http.MethodPost, "/auth/logout", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	logoutData := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, true, logoutData["session_invalidated"])

	// the session is dead, so verify now fails
	rec = ts.do(t, http.MethodGet, "/auth/verify", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "session invalid", decodeBody(t, rec)["error"])
}

func TestHandler_VerifyWithoutToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/auth/verify", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token missing", decodeBody(t, rec)["error"])
}

func TestHandler_LogoutWithoutToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/auth/logout", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "token missing", decodeBody(t, rec)["error"])
}

func TestHandler_LogoutGarbageToken(t *testing.T) {
	ts := newTestServer(t)

	// garbage tokens still get a 200; there is just nothing to invalidate
	rec := ts.do(t, http.MethodPost, "/auth/logout", "garbage", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, false, data["session_invalidated"])
}

func TestHandler_UpdateProfile(t *testing.T) {
	ts := newTestServer(t)
	registerActive(t, ts.service, "maria@example.com", "senha123")

	login, err := ts.service.Login("maria@example.com", "senha123", "10.0.0.1", "go-test")
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPut, "/auth/profile", login.Token, map[string]string{
		"name": "Maria S.",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "Maria S.", data["name"])

	// without a token the middleware rejects the request
	rec = ts.do(t, http.MethodPut, "/auth/profile", "", map[string]string{"name": "X"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
