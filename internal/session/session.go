// Package session reads the vendor-issued session token the portal forwards
// with every request.
package session

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
	log "github.com/sirupsen/logrus"

	"researchPortalAPI/internal/metadata"
)

var adminRoles = []string{"Admin", "admin"}

// Claims are the identity attributes the vendor embeds in its session token.
type Claims struct {
	jwt.RegisteredClaims
	Name           string   `json:"name,omitempty"`
	Email          string   `json:"email,omitempty"`
	PhoneNumber    string   `json:"phone_number,omitempty"`
	Picture        string   `json:"picture,omitempty"`
	TenantID       string   `json:"tenantId,omitempty"`
	Roles          []string `json:"roles,omitempty"`
	Metadata       any      `json:"metadata,omitempty"`
	VendorMetadata any      `json:"vendorMetadata,omitempty"`
}

// Session is an authenticated request: the raw bearer token, forwarded to
// the vendor, and its claims.
type Session struct {
	Token  string
	Claims Claims
}

func (s *Session) UserID() string {
	return s.Claims.Subject
}

// Metadata returns claims-derived metadata, preferring metadata over
// vendorMetadata. The bool is false when neither parses.
func (s *Session) Metadata() (map[string]any, bool) {
	if m, ok := metadata.Parse(s.Claims.Metadata); ok {
		return m, true
	}
	return metadata.Parse(s.Claims.VendorMetadata)
}

func (s *Session) HasRole(names ...string) bool {
	for _, r := range s.Claims.Roles {
		for _, n := range names {
			if r == n {
				return true
			}
		}
	}
	return false
}

func (s *Session) IsAdmin() bool {
	return s.HasRole(adminRoles...)
}

// ParserOptions configures where signing keys come from. JWKSURL is the
// primary source; PinnedRSAPEM is used when the key set cannot be fetched.
type ParserOptions struct {
	JWKSURL      string
	PinnedRSAPEM string
	CacheTTL     time.Duration
	HTTPClient   *http.Client
}

// ErrNoKeySource is returned when neither a JWKS URL nor a pinned key is set.
var ErrNoKeySource = errors.New("session: no JWKS URL or pinned public key configured")

// Parser verifies vendor session tokens (RS256) and turns them into sessions.
type Parser struct {
	jwksURL    string
	pinned     *rsa.PublicKey
	ttl        time.Duration
	httpClient *http.Client
	now        func() time.Time

	mu        sync.Mutex
	keySet    jwk.Set
	fetchedAt time.Time
}

const minRefetchInterval = time.Minute

func NewParser(opts ParserOptions) (*Parser, error) {
	p := &Parser{
		jwksURL:    strings.TrimSpace(opts.JWKSURL),
		ttl:        opts.CacheTTL,
		httpClient: opts.HTTPClient,
		now:        time.Now,
	}
	if p.ttl <= 0 {
		p.ttl = 10 * time.Minute
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if pemText := strings.TrimSpace(opts.PinnedRSAPEM); pemText != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemText))
		if err != nil {
			return nil, fmt.Errorf("failed to parse vendor public key: %w", err)
		}
		p.pinned = key
	}
	if p.jwksURL == "" && p.pinned == nil {
		return nil, ErrNoKeySource
	}
	return p, nil
}

// Parse verifies token and returns its session. The signature is always
// checked; tokens without an expiry are rejected.
func (p *Parser) Parse(ctx context.Context, token string) (*Session, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return p.key(ctx, kid)
	}, jwt.WithValidMethods([]string{"RS256"}), jwt.WithTimeFunc(p.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Claims: claims}, nil
}

// key resolves the verification key for kid. An unknown kid triggers one
// refetch, at most once per minRefetchInterval. When the key set cannot be
// fetched at all the pinned key is used.
func (p *Parser) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if p.jwksURL == "" {
		return p.pinned, nil
	}

	set, err := p.currentSet(ctx, false)
	if err == nil {
		if k, ok := lookup(set, kid); ok {
			return k, nil
		}
		if set, err = p.currentSet(ctx, true); err == nil {
			if k, ok := lookup(set, kid); ok {
				return k, nil
			}
			return nil, fmt.Errorf("session: no signing key for kid %q", kid)
		}
	}

	if p.pinned != nil {
		log.Printf("JWKS unavailable, falling back to pinned key: %v", err)
		return p.pinned, nil
	}
	return nil, err
}

// currentSet returns the cached key set, fetching it when missing or older
// than the TTL. force asks for a refetch if the last one is old enough. A
// failed refetch keeps serving the previous set.
func (p *Parser) currentSet(ctx context.Context, force bool) (jwk.Set, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	age := p.now().Sub(p.fetchedAt)
	stale := p.keySet == nil || age >= p.ttl || (force && age >= minRefetchInterval)
	if !stale {
		return p.keySet, nil
	}

	set, err := jwk.Fetch(ctx, p.jwksURL, jwk.WithHTTPClient(p.httpClient))
	if err != nil {
		if p.keySet != nil {
			log.Printf("JWKS refresh failed, keeping previous keys: %v", err)
			return p.keySet, nil
		}
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	p.keySet = set
	p.fetchedAt = p.now()
	return set, nil
}

func lookup(set jwk.Set, kid string) (*rsa.PublicKey, bool) {
	var key jwk.Key
	var ok bool
	if kid != "" {
		key, ok = set.LookupKeyID(kid)
	} else if set.Len() == 1 {
		key, ok = set.Key(0)
	}
	if !ok {
		return nil, false
	}
	var raw any
	if err := key.Raw(&raw); err != nil {
		return nil, false
	}
	pub, ok := raw.(*rsa.PublicKey)
	return pub, ok
}
