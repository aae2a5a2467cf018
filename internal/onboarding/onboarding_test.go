package onboarding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"researchPortalAPI/internal/user"
)

type countingFetch struct {
	calls int
	md    map[string]any
	err   error
}

func (f *countingFetch) fetch(context.Context) (map[string]any, error) {
	f.calls++
	return f.md, f.err
}

func TestEvaluateClaimsFastPath(t *testing.T) {
	f := &countingFetch{}

	d := Evaluate(context.Background(), map[string]any{"onboardingComplete": true}, true, f.fetch)

	assert.Equal(t, StateClear, d.State)
	assert.Equal(t, SourceClaims, d.Source)
	assert.Equal(t, 0, f.calls)
}

func TestEvaluateEmptyEverywhereBlocks(t *testing.T) {
	f := &countingFetch{md: map[string]any{}}

	d := Evaluate(context.Background(), map[string]any{}, true, f.fetch)

	assert.Equal(t, StateBlocking, d.State)
	assert.Equal(t, SourceVendor, d.Source)
	assert.Equal(t, 1, f.calls)
}

func TestEvaluateFetchedFlagClears(t *testing.T) {
	f := &countingFetch{md: map[string]any{"onboardingComplete": true, "company": "Acme"}}

	d := Evaluate(context.Background(), nil, false, f.fetch)

	assert.Equal(t, StateClear, d.State)
	assert.Equal(t, "Acme", d.Metadata.Company)
}

func TestEvaluateFetchedSupersedesClaims(t *testing.T) {
	f := &countingFetch{md: map[string]any{"company": "Fresh"}}

	d := Evaluate(context.Background(), map[string]any{"company": "Stale"}, true, f.fetch)

	assert.Equal(t, StateBlocking, d.State)
	assert.Equal(t, "Fresh", d.Metadata.Company)
}

func TestEvaluateFetchFailure(t *testing.T) {
	f := &countingFetch{err: errors.New("vendor down")}

	d := Evaluate(context.Background(), map[string]any{"company": "Acme"}, true, f.fetch)
	assert.Equal(t, StateBlocking, d.State)
	assert.Equal(t, SourceClaims, d.Source)
	assert.Equal(t, "Acme", d.Metadata.Company)

	d = Evaluate(context.Background(), nil, false, f.fetch)
	assert.Equal(t, StateBlocking, d.State)
	assert.Equal(t, SourceNone, d.Source)
}

func TestEvaluateNonBoolFlagIsIncomplete(t *testing.T) {
	f := &countingFetch{md: map[string]any{"onboardingComplete": "true"}}

	d := Evaluate(context.Background(), map[string]any{"onboardingComplete": 1.0}, true, f.fetch)

	assert.Equal(t, StateBlocking, d.State)
	assert.Equal(t, 1, f.calls)
}

func completeDetails() user.Details {
	return user.Details{
		Name: "Ada Lovelace", Phone: "+441234567890", Company: "Acme", JobTitle: "Scientist",
		University: "UCL", Qualification: "PhD", GraduationYear: "2015",
		Address1: "1 Main St", City: "London", State: "Greater London", Country: "UK", PostCode: "N1",
	}
}

func TestValidateRequiredAccepts(t *testing.T) {
	assert.NoError(t, ValidateRequired(completeDetails()))
}

func TestValidateRequiredReportsEveryField(t *testing.T) {
	err := ValidateRequired(user.Details{Name: "   "})

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 12)
	assert.Equal(t, "Name is required", verrs["name"])
	assert.Equal(t, "Phone is required", verrs["phone"])
	assert.Equal(t, "University/College is required", verrs["university"])
	assert.Equal(t, "Post code is required", verrs["postCode"])
}

func TestValidateRequiredBadPhone(t *testing.T) {
	d := completeDetails()
	d.Phone = "+0123456789"

	err := ValidateRequired(d)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, ValidationErrors{"phone": PhoneMessage}, verrs)
}

func TestValidPhone(t *testing.T) {
	for _, ok := range []string{"+441234567890", "4412345678", "1234567", "+123456789012345", " +441234567890 "} {
		assert.True(t, ValidPhone(ok), ok)
	}
	for _, bad := range []string{"+0441234567", "0441234567", "+44abc4567890", "12345", "+1234567890123456", "phone", ""} {
		assert.False(t, ValidPhone(bad), bad)
	}
}

func TestValidatePhoneOptional(t *testing.T) {
	assert.NoError(t, ValidatePhone(""))
	assert.NoError(t, ValidatePhone("+441234567890"))
	assert.Error(t, ValidatePhone("abc"))
}
