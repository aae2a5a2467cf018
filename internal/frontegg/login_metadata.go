package frontegg

import (
	"context"
	"net/http"
	"net/url"
)

// EntityMetadata is the vendor's stored configuration for a hosted box
// such as loginBox or adminBox.
type EntityMetadata struct {
	EntityName    string         `json:"entityName"`
	Configuration map[string]any `json:"configuration"`
}

func (c *Client) GetEntityMetadata(ctx context.Context, entityName string) (*EntityMetadata, error) {
	b, err := c.vendorDo(ctx, call{
		endpoint: "metadata_get",
		method:   http.MethodGet,
		url:      c.apiURL + "/metadata?entityName=" + url.QueryEscape(entityName),
	})
	if err != nil {
		return nil, err
	}
	var md EntityMetadata
	if err := decode("metadata_get", b, &md); err != nil {
		return nil, err
	}
	if md.Configuration == nil {
		md.Configuration = map[string]any{}
	}
	return &md, nil
}

func (c *Client) UpdateEntityMetadata(ctx context.Context, md EntityMetadata) error {
	_, err := c.vendorDo(ctx, call{
		endpoint: "metadata_update",
		method:   http.MethodPost,
		url:      c.apiURL + "/metadata",
		body:     md,
	})
	return err
}

// WithOverridesURL returns a copy of configuration pointing the hosted login
// at an overrides endpoint.
func WithOverridesURL(configuration map[string]any, overridesURL string) map[string]any {
	out := make(map[string]any, len(configuration)+1)
	for k, v := range configuration {
		out[k] = v
	}
	out["metadataOverrides"] = map[string]any{"url": overridesURL}
	return out
}
