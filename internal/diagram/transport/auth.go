package transport

import (
	"context"
	"fmt"
	"net/http"
)

type SignupDetails struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type authResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Signup registers a user and stores the returned token.
func (c *Client) Signup(ctx context.Context, details SignupDetails) (User, error) {
	return c.authenticate(ctx, "/auth/signup", details)
}

// Signin logs in and stores the returned token.
func (c *Client) Signin(ctx context.Context, email, password string) (User, error) {
	return c.authenticate(ctx, "/auth/login", map[string]string{"email": email, "password": password})
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (User, error) {
	var out authResponse
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return User{}, err
	}
	if err := c.tokens.SetToken(out.Token); err != nil {
		return User{}, fmt.Errorf("store token: %w", err)
	}
	return out.User, nil
}

// Verify checks the stored token and returns the user's first name.
func (c *Client) Verify(ctx context.Context) (string, error) {
	var out struct {
		FirstName string `json:"firstName"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/verify", nil, &out); err != nil {
		return "", err
	}
	return out.FirstName, nil
}
