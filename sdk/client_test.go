package ndexpress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req["senha"] != "senha123" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"error":                "invalid credentials",
				"message":              "email or senha incorrect",
				"tentativas_restantes": 3,
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"token":      "token-abc",
				"user":       map[string]any{"id": "u1", "email": req["email"], "name": "Maria"},
				"expires_in": 86400,
			},
		})
	})

	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"session_invalidated": true},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestSignInStoresSession(t *testing.T) {
	server := authServer(t)
	client := NewClient(WithBaseURL(server.URL))

	var events []AuthState
	client.OnAuthStateChange(func(state AuthState, user *User) {
		events = append(events, state)
	})

	session, err := client.SignIn(context.Background(), "maria@example.com", "senha123")
	require.NoError(t, err)
	assert.Equal(t, "token-abc", session.Token)
	assert.Equal(t, int64(86400), session.ExpiresIn)

	assert.True(t, client.IsAuthenticated())
	assert.Equal(t, "token-abc", client.Token())
	require.NotNil(t, client.CurrentUser())
	assert.Equal(t, "Maria", client.CurrentUser().Name)

	require.NoError(t, client.SignOut(context.Background()))
	assert.False(t, client.IsAuthenticated())
	assert.Nil(t, client.CurrentUser())

	assert.Equal(t, []AuthState{SignedIn, SignedOut}, events)
}

func TestSignInInvalidCredentials(t *testing.T) {
	server := authServer(t)
	client := NewClient(WithBaseURL(server.URL))

	_, err := client.SignIn(context.Background(), "maria@example.com", "wrong")
	require.Error(t, err)

	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsUnauthorized())
	require.NotNil(t, apiErr.AttemptsRemaining)
	assert.Equal(t, 3, *apiErr.AttemptsRemaining)
	assert.False(t, client.IsAuthenticated())
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(*Error) bool
	}{
		{
			name:   "locked account",
			status: http.StatusLocked,
			body:   `{"error":"account locked","message":"try later","retry_after_minutes":29}`,
			check:  (*Error).IsLocked,
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"error":"too many requests","message":"slow down","retryAfter":42}`,
			check:  (*Error).IsRateLimited,
		},
		{
			name:   "inactive account",
			status: http.StatusForbidden,
			body:   `{"error":"account inactive","message":"pending activation"}`,
			check:  (*Error).IsInactive,
		},
		{
			name:   "category cap",
			status: http.StatusUnprocessableEntity,
			body:   `{"error":"value exceeds category cap","message":"too much"}`,
			check:  (*Error).IsValidationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(WithBaseURL(server.URL))
			_, err := client.CurrentReport(context.Background())
			require.Error(t, err)

			apiErr, ok := IsAPIError(err)
			require.True(t, ok)
			assert.True(t, tt.check(apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
		})
	}
}

func TestRateLimitDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"too many requests","message":"slow down","retryAfter":42}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.SignIn(context.Background(), "a@b.co", "senha123")

	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	require.NotNil(t, apiErr.RetryAfter)
	assert.Equal(t, 42, *apiErr.RetryAfter)
}

func TestSignUpValidatesLocally(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	ctx := context.Background()

	_, err := client.SignUp(ctx, "Maria", "not-an-email", "12345678909", "senha123")
	assertValidation(t, err)

	_, err = client.SignUp(ctx, "Maria", "maria@example.com", "11111111111", "senha123")
	assertValidation(t, err)

	_, err = client.SignUp(ctx, "Maria", "maria@example.com", "12345678909", "123")
	assertValidation(t, err)

	assert.Equal(t, 0, calls)
}

func assertValidation(t *testing.T, err error) {
	t.Helper()
	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsValidationError())
}

func TestValidCPF(t *testing.T) {
	assert.True(t, validCPF("12345678909"))
	assert.True(t, validCPF("123.456.789-09"))
	assert.False(t, validCPF("11111111111"))
	assert.False(t, validCPF("12345678900"))
	assert.False(t, validCPF("1234567890"))
}

type fakeTokenStore struct {
	token string
}

func (s *fakeTokenStore) Load() string      { return s.token }
func (s *fakeTokenStore) Save(token string) { s.token = token }
func (s *fakeTokenStore) Clear()            { s.token = "" }

func TestTokenStore(t *testing.T) {
	server := authServer(t)
	store := &fakeTokenStore{token: "stale"}
	client := NewClient(WithBaseURL(server.URL), WithTokenStore(store))

	// a token already in the store is picked up
	assert.Equal(t, "stale", client.Token())
	assert.True(t, client.IsAuthenticated())

	_, err := client.SignIn(context.Background(), "maria@example.com", "senha123")
	require.NoError(t, err)
	assert.Equal(t, "token-abc", store.token)

	require.NoError(t, client.SignOut(context.Background()))
	assert.Empty(t, store.token)
}

func TestReportFlow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /reports", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": "r1", "number": "ND001", "status": "open"},
		})
	})
	mux.HandleFunc("POST /reports/r1/expenses", func(w http.ResponseWriter, r *http.Request) {
		var req LaunchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 42.50, req.Value)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": "e1", "report_id": "r1", "value": 42.50, "category": "Alimentação"},
		})
	})
	mux.HandleFunc("GET /reports/r1/summary", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"total":   42.50,
				"balance": -42.50,
				"categories": []map[string]any{
					{"category": "Alimentação", "total": 42.50, "count": 1},
				},
			},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithToken("token-abc"))
	ctx := context.Background()

	report, err := client.OpenReport(ctx, "Viagem SP")
	require.NoError(t, err)
	assert.Equal(t, "ND001", report.Number)

	expense, err := client.AddLaunch(ctx, report.ID, LaunchRequest{
		Value:       42.50,
		Description: "restaurante",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alimentação", expense.Category)

	summary, err := client.Summarize(ctx, report.ID)
	require.NoError(t, err)
	assert.InDelta(t, -42.50, summary.Balance, 0.001)
	require.Len(t, summary.Categories, 1)
	assert.Equal(t, 1, summary.Categories[0].Count)
}
