package redirect

import "testing"

func TestIsSafeRedirect(t *testing.T) {
	v := NewValidator("https://vendor.example.com")

	tests := []struct {
		in   string
		want bool
	}{
		{in: "http://vendor.example.com/path", want: false},
		{in: "https://vendor.example.com/path", want: true},
		{in: "https://sub.frontegg.com/path", want: true},
		{in: "https://frontegg.com.evil.io/path", want: false},
		{in: "https://10.0.0.5/x", want: false},
		{in: "https://localhost/x", want: false},
		{in: "https://127.0.0.1/x", want: false},
		{in: "https://192.168.1.20/x", want: false},
		{in: "https://172.16.0.1/x", want: false},
		{in: "https://172.31.255.1/x", want: false},
		{in: "https://172.32.0.1/x", want: false},
		{in: "https://login.microsoftonline.com/tenant/saml2", want: true},
		{in: "https://acme.okta.com/app/sso", want: true},
		{in: "https://notokta.com/app", want: false},
		{in: "https://evil.example.org/", want: false},
		{in: "javascript:alert(1)", want: false},
		{in: "://missing-scheme", want: false},
		{in: "", want: false},
	}

	for _, tt := range tests {
		if got := v.IsSafeRedirect(tt.in); got != tt.want {
			t.Fatalf("IsSafeRedirect(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBlockedPrefixesCoverPrivateRange(t *testing.T) {
	for _, host := range []string{"172.16.", "172.20.", "172.31."} {
		if !isPrivate(host + "1.1") {
			t.Fatalf("expected %s to be private", host)
		}
	}
}
