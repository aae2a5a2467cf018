package frontegg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// ErrEmptyImageURL is returned when an upload succeeds but yields no URL.
var ErrEmptyImageURL = errors.New("invalid URL received from upload")

// UploadProfileImage uploads image data as the session user's profile picture
// and returns the hosted URL.
func (c *Client) UploadProfileImage(ctx context.Context, sessionToken, filename, contentType string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, escapeQuotes(filename)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}

	b, err := c.sessionDo(ctx, sessionToken, call{
		endpoint: "profile_image",
		method:   http.MethodPut,
		url:      c.baseURL + "/frontegg/team/resources/profile/me/image/v1",
		rawBody:  &buf,
		ctype:    mw.FormDataContentType(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload profile picture: %w", err)
	}
	return ParseImageURL(b)
}

// ParseImageURL reads the upload answer, which is either a bare URL, a JSON
// string, or an object carrying url, profilePictureUrl or imageUrl.
func ParseImageURL(b []byte) (string, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nonEmpty(string(b))
	}
	switch t := v.(type) {
	case string:
		return nonEmpty(t)
	case map[string]any:
		for _, k := range []string{"url", "profilePictureUrl", "imageUrl"} {
			if s, ok := t[k].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s), nil
			}
		}
	}
	return "", ErrEmptyImageURL
}

func nonEmpty(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyImageURL
	}
	return s, nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
