package ndexpress

import (
	"context"
	"net/http"
)

// AuthState names a change in the client's authentication state.
type AuthState string

const (
	SignedIn  AuthState = "SIGNED_IN"
	SignedOut AuthState = "SIGNED_OUT"
)

// AuthStateListener is called whenever the session is established or torn
// down. The user is nil on SignedOut.
type AuthStateListener func(state AuthState, user *User)

// OnAuthStateChange registers a listener for sign-in and sign-out events.
func (c *Client) OnAuthStateChange(fn AuthStateListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Client) setSession(token string, user *User) {
	if token == "" {
		c.tokens.Clear()
	} else {
		c.tokens.Save(token)
	}

	c.mu.Lock()
	c.user = user
	listeners := append([]AuthStateListener(nil), c.listeners...)
	c.mu.Unlock()

	state := SignedIn
	if token == "" {
		state = SignedOut
	}
	for _, fn := range listeners {
		fn(state, user)
	}
}

// SignUp registers a new account. The account stays inactive until an
// administrator approves it, so no session is created.
func (c *Client) SignUp(ctx context.Context, name, email, cpf, senha string) (*User, error) {
	if err := validateSignUp(name, email, cpf, senha); err != nil {
		return nil, err
	}

	body := map[string]string{
		"name":  name,
		"email": email,
		"cpf":   cpf,
		"senha": senha,
	}
	var resp envelope[*User]
	if err := c.post(ctx, "/auth/register", body, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// SignIn authenticates and stores the session token on the client.
func (c *Client) SignIn(ctx context.Context, email, senha string) (*Session, error) {
	if email == "" || senha == "" {
		return nil, &Error{
			StatusCode: http.StatusBadRequest,
			Code:       "missing required fields",
			Message:    "email and senha are required",
		}
	}

	body := map[string]string{"email": email, "senha": senha}
	var resp envelope[*Session]
	if err := c.post(ctx, "/auth/login", body, &resp); err != nil {
		return nil, err
	}

	c.setSession(resp.Data.Token, resp.Data.User)
	return resp.Data, nil
}

// SignOut invalidates the server-side session and clears the local token.
// The local state is cleared even when the server call fails.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.post(ctx, "/auth/logout", struct{}{}, nil)
	c.setSession("", nil)
	return err
}

// Verify checks the stored token against the server.
func (c *Client) Verify(ctx context.Context) (*VerifyResult, error) {
	var resp envelope[*VerifyResult]
	if err := c.get(ctx, "/auth/verify", &resp); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.user = resp.Data.User
	c.mu.Unlock()
	return resp.Data, nil
}

// CurrentUser returns the user from the last sign-in or verify, without a
// network round trip.
func (c *Client) CurrentUser() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// IsAuthenticated reports whether a session token is held.
func (c *Client) IsAuthenticated() bool {
	return c.Token() != ""
}

// UpdateProfile changes the display name and optionally rotates the password.
func (c *Client) UpdateProfile(ctx context.Context, name, currentPassword, newPassword string) (*User, error) {
	body := map[string]string{
		"name":             name,
		"current_password": currentPassword,
		"new_password":     newPassword,
	}
	var resp envelope[*User]
	if err := c.put(ctx, "/auth/profile", body, &resp); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.user = resp.Data
	c.mu.Unlock()
	return resp.Data, nil
}
