package metadata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRoundTrip(t *testing.T) {
	inputs := []map[string]any{
		{},
		{"company": "Acme"},
		{"onboardingComplete": true, "graduationYear": "2019"},
		{"address": map[string]any{"city": "Leeds", "postCode": "LS1"}, "score": float64(3)},
		{"tags": []any{"a", "b"}, "nested": map[string]any{"x": nil}},
	}
	for _, m := range inputs {
		assert.Equal(t, m, Normalize(Stringify(m)))
	}
}

func TestNormalizeMalformed(t *testing.T) {
	for _, in := range []any{"{", "not json", `["a"]`, "null", "42", `"quoted"`, "", nil, 17} {
		got := Normalize(in)
		require.NotNil(t, got, "input %v", in)
		assert.Empty(t, got, "input %v", in)
	}
}

func TestNormalizeAcceptsObjectsAndRawJSON(t *testing.T) {
	obj := map[string]any{"company": "Acme"}
	assert.Equal(t, obj, Normalize(obj))
	assert.Equal(t, obj, Normalize(json.RawMessage(`{"company":"Acme"}`)))
	assert.Equal(t, obj, Normalize(json.RawMessage(`"{\"company\":\"Acme\"}"`)))
	assert.Equal(t, obj, Normalize([]byte(`{"company":"Acme"}`)))
}

func TestParseReportsPresence(t *testing.T) {
	_, ok := Parse(nil)
	assert.False(t, ok)
	_, ok = Parse("{bad")
	assert.False(t, ok)
	m, ok := Parse(`{}`)
	assert.True(t, ok)
	assert.Empty(t, m)
}

func TestReconcile(t *testing.T) {
	claims := map[string]any{"company": "FromClaims"}
	fetched := map[string]any{"company": "Fetched"}

	assert.Equal(t, claims, Reconcile(claims, nil, false))
	assert.Equal(t, fetched, Reconcile(claims, fetched, true))
	assert.Equal(t, map[string]any{}, Reconcile(claims, nil, true))
	assert.Equal(t, map[string]any{}, Reconcile(nil, nil, false))
}

func TestDecodeNestedAddress(t *testing.T) {
	md := Decode(`{"company":"Acme","graduationYear":2019,"onboardingComplete":true,
		"address":{"address1":"1 Main St","city":"Leeds","state":"WY","country":"UK","postCode":"LS1"},
		"favouriteColour":"green"}`)

	assert.Equal(t, "Acme", md.Company)
	assert.Equal(t, "2019", md.GraduationYear)
	assert.True(t, md.OnboardingComplete)
	assert.Equal(t, Address{Address1: "1 Main St", City: "Leeds", State: "WY", Country: "UK", PostCode: "LS1"}, md.Address)
	assert.Equal(t, map[string]any{"favouriteColour": "green"}, md.Extra)
}

func TestDecodeLegacyFlatLayout(t *testing.T) {
	md := Decode(`{"address":"1 Old Road","country":"France","postcode":"75001"}`)

	assert.Equal(t, "1 Old Road", md.Address.Address1)
	assert.Equal(t, "France", md.Address.Country)
	assert.Equal(t, "75001", md.Address.PostCode)

	out := md.ToMap()
	assert.NotContains(t, out, "country")
	assert.NotContains(t, out, "postcode")
	assert.Equal(t, "1 Old Road", out["address"].(map[string]any)["address1"])
}

func TestDecodeNestedWinsOverLegacy(t *testing.T) {
	md := Decode(map[string]any{
		"address": map[string]any{"country": "Spain"},
		"country": "France",
	})
	assert.Equal(t, "Spain", md.Address.Country)
}

func TestOnboardingFlagMustBeBool(t *testing.T) {
	assert.False(t, Decode(`{"onboardingComplete":"true"}`).OnboardingComplete)
	assert.False(t, Decode(`{"onboardingComplete":false}`).OnboardingComplete)
	assert.False(t, Decode(`{}`).OnboardingComplete)
}

func TestEncodeDecode(t *testing.T) {
	md := Metadata{
		Company:            "Acme",
		OnboardingComplete: true,
		Address:            Address{City: "Leeds"},
		Extra:              map[string]any{"plan": "gold"},
	}
	assert.Equal(t, md, Decode(md.Encode()))
}

func TestMergeKeepsExtraAndCompletion(t *testing.T) {
	base := Metadata{Company: "Old", OnboardingComplete: true, Extra: map[string]any{"k": "v"}}
	patch := Metadata{Company: "New", Address: Address{City: "York"}}

	out := Merge(base, patch)

	assert.Equal(t, "New", out.Company)
	assert.Equal(t, "York", out.Address.City)
	assert.True(t, out.OnboardingComplete)
	assert.Equal(t, "v", out.Extra["k"])

	out.Extra["k"] = "changed"
	assert.Equal(t, "v", base.Extra["k"])
}

func TestMetadataJSON(t *testing.T) {
	var wrapper struct {
		Metadata Metadata `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"metadata":"{\"company\":\"Acme\"}"}`), &wrapper))
	assert.Equal(t, "Acme", wrapper.Metadata.Company)

	b, err := json.Marshal(wrapper.Metadata)
	require.NoError(t, err)
	assert.JSONEq(t, `{"company":"Acme"}`, string(b))
}
