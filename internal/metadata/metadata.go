// Package metadata turns the vendor's free-form user metadata bag into a typed
// record and back.
//
// The vendor transports metadata as a JSON-encoded string, sometimes as an
// object, sometimes not at all. Everything past the vendor adapter works with
// Metadata; only Decode and Encode see the raw forms.
package metadata

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	keyCompany            = "company"
	keyJobTitle           = "jobTitle"
	keyUniversity         = "university"
	keyQualification      = "qualification"
	keyGraduationYear     = "graduationYear"
	keyOnboardingComplete = "onboardingComplete"
	keyAddress            = "address"

	// legacy flat layout
	keyLegacyCountry  = "country"
	keyLegacyPostcode = "postcode"
)

type Address struct {
	Address1 string `json:"address1"`
	City     string `json:"city"`
	State    string `json:"state"`
	Country  string `json:"country"`
	PostCode string `json:"postCode"`
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// Metadata is the normalized profile metadata. Keys this package does not
// know about are kept in Extra and written back unchanged.
type Metadata struct {
	Company            string
	JobTitle           string
	University         string
	Qualification      string
	GraduationYear     string
	OnboardingComplete bool
	Address            Address
	Extra              map[string]any
}

// Parse accepts nil, a JSON string, raw JSON bytes or an already decoded
// object. The bool is false when the value is absent or is not a JSON object.
func Parse(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, false
	case map[string]any:
		if v == nil {
			return nil, false
		}
		return v, true
	case string:
		if v == "" {
			return nil, false
		}
		return parseObject([]byte(v))
	case json.RawMessage:
		return parseRaw(v)
	case []byte:
		return parseRaw(v)
	default:
		return nil, false
	}
}

// Normalize is Parse with the failure cases collapsed into an empty map.
// Malformed input never produces an error.
func Normalize(raw any) map[string]any {
	m, ok := Parse(raw)
	if !ok {
		return map[string]any{}
	}
	return m
}

// Stringify encodes a mapping the way the vendor stores it.
func Stringify(m map[string]any) string {
	if m == nil {
		m = map[string]any{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Reconcile picks between claims-derived metadata and a live profile fetch.
// The fetched value wins once it has resolved.
func Reconcile(claims, fetched map[string]any, fetchedOK bool) map[string]any {
	if fetchedOK {
		if fetched == nil {
			return map[string]any{}
		}
		return fetched
	}
	if claims == nil {
		return map[string]any{}
	}
	return claims
}

// Decode normalizes raw and migrates the legacy flat address layout.
func Decode(raw any) Metadata {
	return FromMap(Normalize(raw))
}

// FromMap builds a Metadata from a normalized mapping.
func FromMap(m map[string]any) Metadata {
	md := Metadata{Extra: map[string]any{}}
	for k, v := range m {
		switch k {
		case keyCompany:
			md.Company = asString(v)
		case keyJobTitle:
			md.JobTitle = asString(v)
		case keyUniversity:
			md.University = asString(v)
		case keyQualification:
			md.Qualification = asString(v)
		case keyGraduationYear:
			md.GraduationYear = asString(v)
		case keyOnboardingComplete:
			b, _ := v.(bool)
			md.OnboardingComplete = b
		case keyAddress, keyLegacyCountry, keyLegacyPostcode:
		default:
			md.Extra[k] = v
		}
	}

	switch addr := m[keyAddress].(type) {
	case map[string]any:
		md.Address = Address{
			Address1: asString(addr["address1"]),
			City:     asString(addr["city"]),
			State:    asString(addr["state"]),
			Country:  asString(addr["country"]),
			PostCode: asString(addr["postCode"]),
		}
	case string:
		md.Address.Address1 = addr
	}
	if md.Address.Country == "" {
		md.Address.Country = asString(m[keyLegacyCountry])
	}
	if md.Address.PostCode == "" {
		md.Address.PostCode = asString(m[keyLegacyPostcode])
	}
	return md
}

// ToMap renders the record in the nested layout. Empty fields are omitted.
func (md Metadata) ToMap() map[string]any {
	m := make(map[string]any, len(md.Extra)+7)
	for k, v := range md.Extra {
		m[k] = v
	}
	setString(m, keyCompany, md.Company)
	setString(m, keyJobTitle, md.JobTitle)
	setString(m, keyUniversity, md.University)
	setString(m, keyQualification, md.Qualification)
	setString(m, keyGraduationYear, md.GraduationYear)
	if md.OnboardingComplete {
		m[keyOnboardingComplete] = true
	}
	if !md.Address.IsZero() {
		m[keyAddress] = map[string]any{
			"address1": md.Address.Address1,
			"city":     md.Address.City,
			"state":    md.Address.State,
			"country":  md.Address.Country,
			"postCode": md.Address.PostCode,
		}
	}
	return m
}

// Encode returns the JSON string form the vendor expects.
func (md Metadata) Encode() string {
	return Stringify(md.ToMap())
}

// Merge overlays the profile fields of patch on base. Extra keys of base are
// kept, and a completed onboarding is never reset.
func Merge(base, patch Metadata) Metadata {
	out := base
	out.Extra = make(map[string]any, len(base.Extra))
	for k, v := range base.Extra {
		out.Extra[k] = v
	}
	out.Company = patch.Company
	out.JobTitle = patch.JobTitle
	out.University = patch.University
	out.Qualification = patch.Qualification
	out.GraduationYear = patch.GraduationYear
	out.Address = patch.Address
	out.OnboardingComplete = base.OnboardingComplete || patch.OnboardingComplete
	return out
}

func (md Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(md.ToMap())
}

func (md *Metadata) UnmarshalJSON(b []byte) error {
	*md = Decode(json.RawMessage(b))
	return nil
}

func parseRaw(b []byte) (map[string]any, bool) {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil, false
		}
		return Parse(s)
	}
	return parseObject(b)
}

func parseObject(b []byte) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func setString(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
