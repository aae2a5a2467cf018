package redirect

import (
	"net/url"
	"strconv"
	"strings"
)

const vendorRootDomain = "frontegg.com"

// KnownSSOProviders are identity providers an SSO prelogin may send users to.
var KnownSSOProviders = []string{
	"login.microsoftonline.com",
	"accounts.google.com",
	"login.okta.com",
	"okta.com",
	"auth0.com",
	"login.salesforce.com",
	"sso.azure.com",
	"sts.windows.net",
}

var blockedPrefixes = []string{"192.168.", "10."}

func init() {
	for i := 16; i <= 31; i++ {
		blockedPrefixes = append(blockedPrefixes, "172."+strconv.Itoa(i)+".")
	}
}

// Validator decides whether an SSO address is safe to send a browser to.
type Validator struct {
	vendorHost string
	providers  []string
}

// NewValidator builds a Validator for the vendor at baseURL. An unparsable
// baseURL leaves only the vendor root domain and the known providers allowed.
func NewValidator(baseURL string) *Validator {
	v := &Validator{providers: KnownSSOProviders}
	if u, err := url.Parse(baseURL); err == nil {
		v.vendorHost = strings.ToLower(u.Hostname())
	}
	return v
}

// IsSafeRedirect reports whether candidate is an https URL on the vendor's
// domain or on a known identity provider.
func (v *Validator) IsSafeRedirect(candidate string) bool {
	u, err := url.Parse(candidate)
	if err != nil || u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || isPrivate(host) {
		return false
	}

	if (v.vendorHost != "" && host == v.vendorHost) || strings.HasSuffix(host, "."+vendorRootDomain) {
		return true
	}
	for _, p := range v.providers {
		if host == p || strings.HasSuffix(host, "."+p) {
			return true
		}
	}
	return false
}

func isPrivate(host string) bool {
	if host == "localhost" || host == "127.0.0.1" {
		return true
	}
	for _, p := range blockedPrefixes {
		if strings.HasPrefix(host, p) {
			return true
		}
	}
	return false
}
