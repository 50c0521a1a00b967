// Package auth talks to the external authentication service. Tokens are
// validated remotely; on expiry the client refreshes once through the auth
// collaborator and then surfaces the failure. No credentials live here.
package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrUserDisabled = errors.New("user disabled")
)

type Client struct {
	baseURL string
	client  *http.Client
}

// User is the acting staff member as resolved by the auth service.
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	Login       string   `json:"login"`
	Enabled     bool     `json:"enabled"`
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// IsAdmin reports whether the user carries the admin permission.
func (u *User) IsAdmin() bool {
	for _, perm := range u.Permissions {
		if perm == "admin" {
			return true
		}
	}
	return false
}

// ValidateToken asks the auth service who the token belongs to.
func (c *Client) ValidateToken(token string) (*User, error) {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/users/current", c.baseURL), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrTokenExpired
	default:
		return nil, ErrInvalidToken
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	if !user.Enabled {
		return nil, ErrUserDisabled
	}
	return &user, nil
}

// Refresh exchanges a refresh token for a fresh access token. Called at most
// once per request by the middleware; a second expiry is surfaced to the
// caller, never retried again.
func (c *Client) Refresh(refreshToken string) (string, error) {
	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return "", err
	}
	resp, err := c.client.Post(fmt.Sprintf("%s/auth/refresh", c.baseURL), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("auth refresh failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrTokenExpired
	}

	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}
