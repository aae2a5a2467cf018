package frontegg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"researchPortalAPI/internal/metadata"
)

// ErrUnrecognizedEnvelope is returned when a list response matches none of
// the known envelope shapes.
var ErrUnrecognizedEnvelope = errors.New("unrecognized list envelope")

type Role struct {
	ID   string `json:"id,omitempty"`
	Key  string `json:"key,omitempty"`
	Name string `json:"name"`
}

// RawMetadata is the metadata field as the vendor sends it, already
// normalized to a mapping. Strings, objects and null are all accepted.
type RawMetadata map[string]any

func (m *RawMetadata) UnmarshalJSON(b []byte) error {
	*m = metadata.Normalize(json.RawMessage(b))
	return nil
}

type User struct {
	ID                string      `json:"id"`
	Name              string      `json:"name,omitempty"`
	Email             string      `json:"email,omitempty"`
	PhoneNumber       string      `json:"phoneNumber,omitempty"`
	ProfilePictureURL string      `json:"profilePictureUrl,omitempty"`
	TenantID          string      `json:"tenantId,omitempty"`
	Metadata          RawMetadata `json:"metadata,omitempty"`
	Roles             []Role      `json:"roles,omitempty"`
}

// UserUpdate is the body of a profile update. Metadata must already be
// encoded as a JSON string.
type UserUpdate struct {
	Name              string `json:"name,omitempty"`
	PhoneNumber       string `json:"phoneNumber,omitempty"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
	Metadata          string `json:"metadata,omitempty"`
}

type CreateUserRequest struct {
	Email           string   `json:"email"`
	Name            string   `json:"name"`
	RoleIDs         []string `json:"roleIds"`
	SkipInviteEmail bool     `json:"skipInviteEmail"`
}

// EnvelopeShape names the wrapper a user list arrived in.
type EnvelopeShape string

const (
	EnvelopeData    EnvelopeShape = "data"
	EnvelopeItems   EnvelopeShape = "items"
	EnvelopeContent EnvelopeShape = "content"
	EnvelopeBare    EnvelopeShape = "bare"
)

var envelopeKeys = []EnvelopeShape{EnvelopeData, EnvelopeItems, EnvelopeContent}

// DecodeUserList decodes a user list that may be wrapped in data, items or
// content, or be a bare array.
func DecodeUserList(b []byte) ([]User, EnvelopeShape, error) {
	var users []User
	shape, err := decodeEnvelope(b, envelopeKeys, &users)
	if err != nil {
		return nil, "", err
	}
	return users, shape, nil
}

func decodeEnvelope(b []byte, keys []EnvelopeShape, out any) (EnvelopeShape, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, out); err != nil {
			return "", fmt.Errorf("failed to decode list: %w", err)
		}
		return EnvelopeBare, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnrecognizedEnvelope, err)
	}
	for _, k := range keys {
		raw := bytes.TrimSpace(wrapper[string(k)])
		if len(raw) == 0 || raw[0] != '[' {
			continue
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return "", fmt.Errorf("failed to decode %s list: %w", k, err)
		}
		return k, nil
	}
	return "", ErrUnrecognizedEnvelope
}

// ListUsers lists users visible to the session token.
func (c *Client) ListUsers(ctx context.Context, sessionToken string) ([]User, error) {
	b, err := c.sessionDo(ctx, sessionToken, call{
		endpoint: "users_list",
		method:   http.MethodGet,
		url:      c.baseURL + "/identity/resources/users/v2",
	})
	if err != nil {
		return nil, err
	}
	users, _, err := DecodeUserList(b)
	return users, err
}

// GetMe fetches the profile behind the session token.
func (c *Client) GetMe(ctx context.Context, sessionToken string) (*User, error) {
	b, err := c.sessionDo(ctx, sessionToken, call{
		endpoint: "users_me",
		method:   http.MethodGet,
		url:      c.baseURL + "/identity/resources/users/v2/me",
	})
	if err != nil {
		return nil, err
	}
	var u User
	if err := decode("users_me", b, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateMe updates the profile behind the session token.
func (c *Client) UpdateMe(ctx context.Context, sessionToken string, upd UserUpdate) (*User, error) {
	b, err := c.sessionDo(ctx, sessionToken, call{
		endpoint: "users_me_update",
		method:   http.MethodPut,
		url:      c.baseURL + "/identity/resources/users/v2/me",
		body:     upd,
	})
	if err != nil {
		return nil, err
	}
	return decodeOptionalUser("users_me_update", b)
}

// GetUser fetches a single user of tenantID on behalf of the vendor account.
func (c *Client) GetUser(ctx context.Context, tenantID, userID string) (*User, error) {
	b, err := c.vendorDo(ctx, call{
		endpoint: "users_get",
		method:   http.MethodGet,
		url:      c.apiURL + "/identity/resources/users/v1/" + url.PathEscape(userID),
		headers:  map[string]string{"frontegg-tenant-id": tenantID},
	})
	if err != nil {
		return nil, err
	}
	var u User
	if err := decode("users_get", b, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser updates another user on behalf of the vendor account.
func (c *Client) UpdateUser(ctx context.Context, tenantID, userID string, upd UserUpdate) (*User, error) {
	b, err := c.vendorDo(ctx, call{
		endpoint: "users_update",
		method:   http.MethodPut,
		url:      c.apiURL + "/identity/resources/users/v1",
		headers: map[string]string{
			"frontegg-tenant-id": tenantID,
			"frontegg-user-id":   userID,
		},
		body: upd,
	})
	if err != nil {
		return nil, err
	}
	return decodeOptionalUser("users_update", b)
}

// UserExists looks a user up by email. 404 means absent.
func (c *Client) UserExists(ctx context.Context, email string) (bool, error) {
	_, err := c.vendorDo(ctx, call{
		endpoint: "users_by_email",
		method:   http.MethodGet,
		url:      c.apiURL + "/identity/resources/users/v1/email?email=" + url.QueryEscape(email),
	})
	if err == nil {
		return true, nil
	}
	if IsNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check user existence: %w", err)
}

// CreateUser creates a user in tenantID and lets the vendor send the invite.
func (c *Client) CreateUser(ctx context.Context, tenantID string, req CreateUserRequest) error {
	_, err := c.vendorDo(ctx, call{
		endpoint: "users_create",
		method:   http.MethodPost,
		url:      c.apiURL + "/identity/resources/users/v2",
		headers:  map[string]string{"frontegg-tenant-id": tenantID},
		body:     req,
	})
	return err
}

func decodeOptionalUser(endpoint string, b []byte) (*User, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}
	var u User
	if err := decode(endpoint, b, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
