package frontegg

import (
	"context"
	"fmt"
	"net/http"
)

// SSOPrelogin asks the vendor whether email belongs to an SSO-enabled
// account. It returns the IdP address, or "" when SSO is not configured.
func (c *Client) SSOPrelogin(ctx context.Context, email string) (string, error) {
	b, err := c.vendorDo(ctx, call{
		endpoint: "sso_prelogin",
		method:   http.MethodPost,
		url:      c.baseURL + "/frontegg/identity/resources/auth/v2/user/sso/prelogin",
		body:     map[string]string{"email": email},
	})
	if IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("SSO prelogin check failed: %w", err)
	}

	var resp struct {
		Address string `json:"address"`
	}
	if err := decode("sso_prelogin", b, &resp); err != nil {
		return "", err
	}
	return resp.Address, nil
}
