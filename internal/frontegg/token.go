package frontegg

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const defaultTokenLifetime = 3600 * time.Second

// ErrMissingCredentials is returned when the vendor client id or secret is unset.
var ErrMissingCredentials = errors.New("missing Frontegg credentials: FRONTEGG_CLIENT_ID and FRONTEGG_API_KEY must be set")

var tokenExchangesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "frontegg_token_exchanges_total",
		Help: "Total number of vendor token exchanges",
	},
	[]string{"result"},
)

// VendorCredential is a vendor bearer token and the moment it stops being usable.
type VendorCredential struct {
	Token            string `json:"token"`
	ExpiresAtEpochMs int64  `json:"expiresAtEpochMs"`
}

func (c VendorCredential) Valid(now time.Time) bool {
	return c.Token != "" && now.UnixMilli() < c.ExpiresAtEpochMs
}

// TokenStore persists the vendor credential between processes.
type TokenStore interface {
	Load(ctx context.Context) (VendorCredential, bool, error)
	Save(ctx context.Context, cred VendorCredential) error
	Clear(ctx context.Context) error
}

type TokenCacheOptions struct {
	ClientID   string
	Secret     string
	APIURL     string
	HTTPClient *http.Client
	Store      TokenStore
	Now        func() time.Time
}

// TokenCache hands out vendor tokens for server-to-server calls. Expired or
// missing tokens are exchanged once, however many callers are waiting.
type TokenCache struct {
	clientID   string
	secret     string
	apiURL     string
	httpClient *http.Client
	store      TokenStore
	now        func() time.Time

	mu      sync.Mutex
	current VendorCredential
	group   singleflight.Group
}

func NewTokenCache(opts TokenCacheOptions) *TokenCache {
	if opts.Store == nil {
		opts.Store = NewMemoryTokenStore()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &TokenCache{
		clientID:   opts.ClientID,
		secret:     opts.Secret,
		apiURL:     opts.APIURL,
		httpClient: opts.HTTPClient,
		store:      opts.Store,
		now:        opts.Now,
	}
}

// Token returns a valid vendor token, exchanging credentials when needed.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()
	if cur.Valid(c.now()) {
		return cur.Token, nil
	}

	return c.shared(ctx, c.now)
}

// shared runs a single refresh for all concurrent callers. usableUntil is the
// moment a cached or stored credential must still be valid at to be reused.
func (c *TokenCache) shared(ctx context.Context, usableUntil func() time.Time) (string, error) {
	v, err, _ := c.group.Do("vendor-token", func() (any, error) {
		// Callers share this refresh, so one caller's cancellation must not fail the rest.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		return c.refresh(rctx, usableUntil())
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate forgets the cached credential in memory and in the store.
func (c *TokenCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.current = VendorCredential{}
	c.mu.Unlock()
	if err := c.store.Clear(ctx); err != nil {
		log.Printf("TokenCache: failed to clear stored vendor token: %v", err)
	}
}

// Warm exchanges a new token ahead of time when neither the cached nor the
// stored credential outlives the given window, so request paths rarely wait
// on an exchange. The shared store is overwritten, never cleared.
func (c *TokenCache) Warm(ctx context.Context, within time.Duration) error {
	_, err := c.shared(ctx, func() time.Time { return c.now().Add(within) })
	return err
}

func (c *TokenCache) refresh(ctx context.Context, usableUntil time.Time) (string, error) {
	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()
	if cur.Valid(usableUntil) {
		return cur.Token, nil
	}

	stored, ok, err := c.store.Load(ctx)
	if err != nil {
		log.Printf("TokenCache: failed to load stored vendor token: %v", err)
	} else if ok && stored.Valid(usableUntil) {
		c.set(stored)
		return stored.Token, nil
	}

	cred, err := c.exchange(ctx)
	if err != nil {
		tokenExchangesTotal.WithLabelValues("error").Inc()
		return "", err
	}
	tokenExchangesTotal.WithLabelValues("ok").Inc()

	c.set(cred)
	if err := c.store.Save(ctx, cred); err != nil {
		log.Printf("TokenCache: failed to persist vendor token: %v", err)
	}
	return cred.Token, nil
}

func (c *TokenCache) set(cred VendorCredential) {
	c.mu.Lock()
	c.current = cred
	c.mu.Unlock()
}

func (c *TokenCache) exchange(ctx context.Context) (VendorCredential, error) {
	if c.clientID == "" || c.secret == "" {
		return VendorCredential{}, ErrMissingCredentials
	}

	// The exchange does not go through Client.do's vendor token path.
	cl := &Client{httpClient: c.httpClient}
	b, err := cl.do(ctx, call{
		endpoint: "auth_vendor",
		method:   http.MethodPost,
		url:      c.apiURL + "/auth/vendor/",
		body:     map[string]string{"clientId": c.clientID, "secret": c.secret},
	})
	if err != nil {
		return VendorCredential{}, fmt.Errorf("failed to get vendor token: %w", err)
	}

	var resp struct {
		Token     string  `json:"token"`
		ExpiresIn float64 `json:"expiresIn"`
	}
	if err := decode("auth_vendor", b, &resp); err != nil {
		return VendorCredential{}, err
	}
	if resp.Token == "" {
		return VendorCredential{}, errors.New("failed to get vendor token: response has no token")
	}

	lifetime := defaultTokenLifetime
	if resp.ExpiresIn > 0 {
		lifetime = time.Duration(resp.ExpiresIn * float64(time.Second))
	}
	log.Printf("TokenCache: obtained vendor token valid for %s", lifetime)

	return VendorCredential{
		Token:            resp.Token,
		ExpiresAtEpochMs: c.now().Add(lifetime).UnixMilli(),
	}, nil
}
