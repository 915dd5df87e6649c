package api

import (
	"context"
	"fmt"
	"net/url"
)

// Token exchanges credentials for a bearer token via /users/token.
func (c *Client) Token(ctx context.Context, username, password string) (string, error) {
	form := url.Values{
		"username": {username},
		"password": {password},
	}
	var resp TokenResponse
	if err := c.postForm(ctx, "/users/token", form, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access_token")
	}
	return resp.AccessToken, nil
}

// RegisterRequest is the /users/ creation payload.
type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// Register creates a new account. It does not log the account in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var user User
	if err := c.postJSONOpen(ctx, "/users/", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "/users/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateMe patches the authenticated user's mutable fields. The payload must
// contain only the fields to change.
func (c *Client) UpdateMe(ctx context.Context, fields map[string]string) (*User, error) {
	var user User
	if err := c.patchJSON(ctx, "/users/me", fields, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ForgotPassword requests a password reset for the given email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	payload := map[string]string{"email": email}
	return c.postJSONOpen(ctx, "/users/forgot-password", payload, nil)
}

// Contacts lists the user's saved contacts.
func (c *Client) Contacts(ctx context.Context) ([]Contact, error) {
	var contacts []Contact
	if err := c.get(ctx, "/users/contacts", &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// AddContact saves another user, looked up by username or email, to the
// contact list.
func (c *Client) AddContact(ctx context.Context, identifier string) (*Contact, error) {
	var contact Contact
	payload := map[string]string{"identifier": identifier}
	if err := c.postJSON(ctx, "/users/contacts", payload, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// RemoveContact deletes a contact by ID.
func (c *Client) RemoveContact(ctx context.Context, contactID int) error {
	return c.delete(ctx, fmt.Sprintf("/users/contacts/%d", contactID), nil)
}
