package frontegg

import (
	"context"
	"net/http"
	"net/url"
)

type Entitlement struct {
	ID             string `json:"id,omitempty"`
	PlanID         string `json:"planId,omitempty"`
	PlanName       string `json:"planName,omitempty"`
	UserID         string `json:"userId,omitempty"`
	TenantID       string `json:"tenantId,omitempty"`
	ExpirationDate string `json:"expirationDate,omitempty"`
	Plan           *struct {
		Name string `json:"name"`
	} `json:"plan,omitempty"`
}

// EmbeddedPlanName returns the plan name carried by the entitlement itself.
func (e Entitlement) EmbeddedPlanName() string {
	if e.PlanName != "" {
		return e.PlanName
	}
	if e.Plan != nil {
		return e.Plan.Name
	}
	return ""
}

type Plan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type NewEntitlement struct {
	PlanID         string `json:"planId"`
	TenantID       string `json:"tenantId"`
	UserID         string `json:"userId"`
	ExpirationDate string `json:"expirationDate"`
}

// ListEntitlements returns the entitlements granted to userID.
func (c *Client) ListEntitlements(ctx context.Context, userID string) ([]Entitlement, error) {
	b, err := c.vendorDo(ctx, call{
		endpoint: "entitlements_list",
		method:   http.MethodGet,
		url:      c.apiURL + "/entitlements/resources/entitlements/v2?userId=" + url.QueryEscape(userID),
	})
	if err != nil {
		return nil, err
	}
	var out []Entitlement
	if _, err := decodeEnvelope(b, []EnvelopeShape{EnvelopeItems, "entitlements"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPlans returns the plan catalog.
func (c *Client) ListPlans(ctx context.Context) ([]Plan, error) {
	b, err := c.vendorDo(ctx, call{
		endpoint: "plans_list",
		method:   http.MethodGet,
		url:      c.apiURL + "/entitlements/resources/plans/v1",
	})
	if err != nil {
		return nil, err
	}
	var out []Plan
	if _, err := decodeEnvelope(b, []EnvelopeShape{EnvelopeItems}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateEntitlement(ctx context.Context, e NewEntitlement) error {
	_, err := c.vendorDo(ctx, call{
		endpoint: "entitlements_create",
		method:   http.MethodPost,
		url:      c.apiURL + "/entitlements/resources/entitlements/v2",
		body:     e,
	})
	return err
}

func (c *Client) UpdateEntitlementExpiration(ctx context.Context, id, expirationDate string) error {
	_, err := c.vendorDo(ctx, call{
		endpoint: "entitlements_update",
		method:   http.MethodPatch,
		url:      c.apiURL + "/entitlements/resources/entitlements/v2/" + url.PathEscape(id),
		body:     map[string]string{"expirationDate": expirationDate},
	})
	return err
}

func (c *Client) DeleteEntitlement(ctx context.Context, id string) error {
	_, err := c.vendorDo(ctx, call{
		endpoint: "entitlements_delete",
		method:   http.MethodDelete,
		url:      c.apiURL + "/entitlements/resources/entitlements/v2/" + url.PathEscape(id),
	})
	return err
}
